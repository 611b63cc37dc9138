package validation

import (
	"fmt"
	"regexp"
	"time"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/jmbg"
	"github.com/medflow/medflow-idscan/internal/idscan/normalizer"
)

// Score deductions
const (
	deductMissingRequired = 20
	deductChecksum        = 15
	deductDateOutOfRange  = 15
	deductIDTooShort      = 5
	deductInvalidDate     = 10
	deductImplausibleAge  = 5
	deductNameCharset     = 3
	deductGender          = 2
	deductCrossField      = 10
)

const (
	maxScore = 100

	// CompletenessThreshold is the completeness below which the score is capped
	CompletenessThreshold = 70
	// completenessHeadroom is how far the score may exceed a low completeness
	completenessHeadroom = 20

	minOpaqueIDLength = 10
	maxAge            = 120
)

// RequiredFields must be present for a scan to be valid
var RequiredFields = []domain.Field{
	domain.FieldFirstName,
	domain.FieldLastName,
	domain.FieldNationalIDNumber,
}

// CompletenessWeights sum to 100. insuranceProvider does not count.
var CompletenessWeights = map[domain.Field]int{
	domain.FieldFirstName:        20,
	domain.FieldLastName:         20,
	domain.FieldNationalIDNumber: 25,
	domain.FieldDateOfBirth:      15,
	domain.FieldGender:           10,
	domain.FieldAddress:          5,
	domain.FieldRegion:           5,
}

// Latin and Cyrillic letters with their diacritics, space, hyphen, apostrophes
var nameCharset = regexp.MustCompile(`^[\p{Latin}\p{Cyrillic}\p{Mn} '’-]+$`)

// Engine checks a field set and scores it
type Engine struct {
	now func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the clock used for age checks
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a validation engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// report accumulates findings for one Validate call
type report struct {
	findings []domain.Finding
}

func (r *report) error(kind domain.FindingKind, field domain.Field, deduction int, format string, args ...any) {
	r.add(domain.SeverityError, kind, field, deduction, format, args...)
}

func (r *report) warn(kind domain.FindingKind, field domain.Field, deduction int, format string, args ...any) {
	r.add(domain.SeverityWarning, kind, field, deduction, format, args...)
}

func (r *report) add(sev domain.Severity, kind domain.FindingKind, field domain.Field, deduction int, format string, args ...any) {
	r.findings = append(r.findings, domain.Finding{
		Kind:      kind,
		Severity:  sev,
		Field:     field,
		Message:   fmt.Sprintf(format, args...),
		Deduction: deduction,
	})
}

// Validate runs every check over fs. Checks never stop each other;
// all problems end up as findings in the returned report.
func (e *Engine) Validate(fs domain.FieldSet) domain.ValidationReport {
	r := &report{}

	e.checkRequired(r, fs)
	decoded := e.checkIdentityNumber(r, fs)
	dob := e.checkDateOfBirth(r, fs)
	e.checkNames(r, fs)
	e.checkGender(r, fs)
	e.checkCrossField(r, fs, decoded, dob)

	completeness := Completeness(fs)

	score := maxScore
	for _, f := range r.findings {
		score -= f.Deduction
	}

	if completeness < CompletenessThreshold {
		r.warn(domain.FindingLowCompleteness, "", 0,
			"Only %d%% of identity data could be extracted", completeness)
		score = min(score, completeness+completenessHeadroom)
	}
	score = max(score, 0)

	return buildReport(r.findings, score, completeness)
}

func buildReport(findings []domain.Finding, score, completeness int) domain.ValidationReport {
	out := domain.ValidationReport{
		Errors:       []string{},
		Warnings:     []string{},
		Findings:     findings,
		QualityScore: score,
		Completeness: completeness,
	}
	if out.Findings == nil {
		out.Findings = []domain.Finding{}
	}

	for _, f := range findings {
		if f.Severity == domain.SeverityError {
			out.Errors = append(out.Errors, f.Message)
		} else {
			out.Warnings = append(out.Warnings, f.Message)
		}
	}
	out.IsValid = len(out.Errors) == 0
	out.HasWarnings = len(out.Warnings) > 0
	return out
}

func (e *Engine) checkRequired(r *report, fs domain.FieldSet) {
	for _, f := range RequiredFields {
		if !fs.Has(f) {
			r.error(domain.FindingMissingRequiredField, f, deductMissingRequired,
				"Required field %s is missing", f)
		}
	}
}

// checkIdentityNumber returns the decoded number when it has 13 digits
func (e *Engine) checkIdentityNumber(r *report, fs domain.FieldSet) *jmbg.Decoded {
	number, ok := fs.Get(domain.FieldNationalIDNumber)
	if !ok {
		return nil
	}
	f := domain.FieldNationalIDNumber

	switch {
	case len(number) < minOpaqueIDLength:
		r.warn(domain.FindingIDTooShort, f, deductIDTooShort,
			"Identity number is too short (%d digits)", len(number))
		return nil
	case len(number) != jmbg.Length:
		r.warn(domain.FindingIDUnverifiable, f, 0,
			"Identity number with %d digits cannot be verified", len(number))
		return nil
	}

	d, err := jmbg.Decode(number)
	if err != nil {
		r.warn(domain.FindingIDUnverifiable, f, 0,
			"Identity number cannot be verified")
		return nil
	}

	if !d.ChecksumValid {
		r.error(domain.FindingChecksumMismatch, f, deductChecksum,
			"Identity number checksum mismatch (expected check digit %d, got %d)",
			d.ExpectedCheckDigit, d.CheckDigit)
	}
	if !d.DateValid {
		r.error(domain.FindingDateOutOfRange, f, deductDateOutOfRange,
			"Identity number encodes an impossible date (day %d, month %d)", d.Day, d.Month)
	}
	if !d.RegionKnown {
		r.warn(domain.FindingUnknownRegion, f, 0,
			"Identity number region code %s is unknown", d.RegionCode)
	}
	return d
}

// checkDateOfBirth returns the parsed date of birth, if any
func (e *Engine) checkDateOfBirth(r *report, fs domain.FieldSet) *time.Time {
	v, ok := fs.Get(domain.FieldDateOfBirth)
	if !ok {
		return nil
	}
	f := domain.FieldDateOfBirth

	dob, ok := normalizer.ParseDate(v)
	if !ok {
		r.error(domain.FindingInvalidDate, f, deductInvalidDate,
			"Date of birth %q is not a valid date", v)
		return nil
	}

	if age := ageAt(dob, e.now()); age < 0 || age > maxAge {
		r.warn(domain.FindingImplausibleAge, f, deductImplausibleAge,
			"Date of birth implies an implausible age of %d years", age)
	}
	return &dob
}

func (e *Engine) checkNames(r *report, fs domain.FieldSet) {
	for _, f := range []domain.Field{domain.FieldFirstName, domain.FieldLastName} {
		v, ok := fs.Get(f)
		if !ok {
			continue
		}
		if !nameCharset.MatchString(v) {
			r.warn(domain.FindingInvalidNameCharset, f, deductNameCharset,
				"%s contains unexpected characters", f)
		}
	}
}

func (e *Engine) checkGender(r *report, fs domain.FieldSet) {
	v, ok := fs.Get(domain.FieldGender)
	if !ok {
		return
	}
	if !normalizer.IsGenderToken(v) {
		r.warn(domain.FindingUnrecognizedValue, domain.FieldGender, deductGender,
			"Gender value %q is not recognized", v)
	}
}

// checkCrossField compares the stated date of birth and gender with what the
// identity number encodes. It needs all three fields.
func (e *Engine) checkCrossField(r *report, fs domain.FieldSet, d *jmbg.Decoded, dob *time.Time) {
	gender, hasGender := fs.Get(domain.FieldGender)
	if d == nil || !fs.Has(domain.FieldDateOfBirth) || !hasGender {
		return
	}

	if dob != nil && d.DateValid && dob.Format(normalizer.ISODate) != d.BirthDateISO() {
		r.error(domain.FindingCrossFieldMismatch, domain.FieldDateOfBirth, deductCrossField,
			"Date of birth %s does not match the identity number (%s)",
			dob.Format(normalizer.ISODate), d.BirthDateISO())
	}

	if normalizer.IsGenderToken(gender) && normalizer.Gender(gender) != d.Sex {
		r.error(domain.FindingCrossFieldMismatch, domain.FieldGender, deductCrossField,
			"Gender %s does not match the identity number (%s)", normalizer.Gender(gender), d.Sex)
	}
}

// Completeness is the weighted share of populated fields, 0 to 100
func Completeness(fs domain.FieldSet) int {
	total := 0
	for f, w := range CompletenessWeights {
		if fs.Has(f) {
			total += w
		}
	}
	return total
}

// ageAt returns full years between dob and now
func ageAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
