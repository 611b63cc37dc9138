package validation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/validation"
)

var fixedNow = time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)

func newEngine() *validation.Engine {
	return validation.NewEngine(validation.WithClock(func() time.Time { return fixedNow }))
}

func fieldSet(values map[domain.Field]string) domain.FieldSet {
	var fs domain.FieldSet
	for f, v := range values {
		fs.Set(f, v)
	}
	return fs
}

func completeFields() map[domain.Field]string {
	return map[domain.Field]string{
		domain.FieldFirstName:         "Marko",
		domain.FieldLastName:          "Petrović",
		domain.FieldDateOfBirth:       "1985-03-15",
		domain.FieldGender:            domain.GenderMale,
		domain.FieldNationalIDNumber:  "1503985170016",
		domain.FieldAddress:           "Bulevar oslobođenja 12, Novi Sad",
		domain.FieldRegion:            "Sarajevo",
		domain.FieldInsuranceProvider: "RFZO",
	}
}

func with(values map[domain.Field]string, f domain.Field, v string) map[domain.Field]string {
	out := make(map[domain.Field]string, len(values))
	for k, val := range values {
		out[k] = val
	}
	if v == "" {
		delete(out, f)
	} else {
		out[f] = v
	}
	return out
}

func TestValidate_CompleteRecord(t *testing.T) {
	r := newEngine().Validate(fieldSet(completeFields()))

	assert.True(t, r.IsValid)
	assert.False(t, r.HasWarnings)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, 100, r.QualityScore)
	assert.Equal(t, 100, r.Completeness)
}

func TestValidate_EmptyFieldSet(t *testing.T) {
	r := newEngine().Validate(domain.FieldSet{})

	assert.False(t, r.IsValid)
	assert.Len(t, r.Errors, 3)
	assert.True(t, r.HasFinding(domain.FindingMissingRequiredField))
	assert.True(t, r.HasFinding(domain.FindingLowCompleteness))
	assert.Equal(t, 0, r.Completeness)
	assert.Equal(t, 20, r.QualityScore)
}

func TestValidate_BareNumberFields(t *testing.T) {
	fs := fieldSet(map[domain.Field]string{
		domain.FieldNationalIDNumber: "1503985175023",
		domain.FieldDateOfBirth:      "1985-03-15",
		domain.FieldGender:           domain.GenderFemale,
		domain.FieldRegion:           "Sarajevo",
	})

	r := newEngine().Validate(fs)

	assert.False(t, r.IsValid)
	assert.True(t, r.HasWarnings)
	assert.True(t, r.HasFinding(domain.FindingLowCompleteness))
	assert.True(t, r.HasFinding(domain.FindingChecksumMismatch))
	// fields derived from the number agree with it
	assert.False(t, r.HasFinding(domain.FindingCrossFieldMismatch))
	assert.Equal(t, 55, r.Completeness)
	// 100 - 2*20 required - 15 checksum
	assert.Equal(t, 45, r.QualityScore)
}

func TestValidate_ChecksumMismatchIsInvalid(t *testing.T) {
	r := newEngine().Validate(fieldSet(with(completeFields(), domain.FieldNationalIDNumber, "1503985170013")))

	assert.False(t, r.IsValid)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0], "checksum")
	assert.Equal(t, 85, r.QualityScore)
}

func TestValidate_CrossFieldMismatch(t *testing.T) {
	tests := []struct {
		name  string
		field domain.Field
		value string
	}{
		{"date of birth", domain.FieldDateOfBirth, "1985-03-16"},
		{"gender", domain.FieldGender, domain.GenderFemale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine().Validate(fieldSet(with(completeFields(), tt.field, tt.value)))

			assert.False(t, r.IsValid)
			require.True(t, r.HasFinding(domain.FindingCrossFieldMismatch))
			require.Len(t, r.Errors, 1)
			assert.Equal(t, 90, r.QualityScore)

			var field domain.Field
			for _, f := range r.Findings {
				if f.Kind == domain.FindingCrossFieldMismatch {
					field = f.Field
				}
			}
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestValidate_CrossFieldMessagesAreDistinct(t *testing.T) {
	values := with(completeFields(), domain.FieldDateOfBirth, "1985-03-16")
	values = with(values, domain.FieldGender, domain.GenderFemale)

	r := newEngine().Validate(fieldSet(values))

	require.Len(t, r.Errors, 2)
	assert.NotEqual(t, r.Errors[0], r.Errors[1])
	assert.Equal(t, 80, r.QualityScore)
}

func TestValidate_CrossFieldNeedsAllThreeFields(t *testing.T) {
	values := with(completeFields(), domain.FieldGender, "")
	values = with(values, domain.FieldDateOfBirth, "1985-03-16")

	r := newEngine().Validate(fieldSet(values))

	assert.False(t, r.HasFinding(domain.FindingCrossFieldMismatch))
}

func TestValidate_IdentityNumberFindings(t *testing.T) {
	tests := []struct {
		number    string
		kind      domain.FindingKind
		severity  domain.Severity
		deduction int
	}{
		{"12345", domain.FindingIDTooShort, domain.SeverityWarning, 5},
		{"12345678901", domain.FindingIDUnverifiable, domain.SeverityWarning, 0},
		{"12345678901234", domain.FindingIDUnverifiable, domain.SeverityWarning, 0},
		{"1503985170013", domain.FindingChecksumMismatch, domain.SeverityError, 15},
		{"3213990710001", domain.FindingDateOutOfRange, domain.SeverityError, 15},
		{"0101990600016", domain.FindingUnknownRegion, domain.SeverityWarning, 0},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			fs := fieldSet(map[domain.Field]string{
				domain.FieldFirstName:        "Marko",
				domain.FieldLastName:         "Petrović",
				domain.FieldNationalIDNumber: tt.number,
			})

			r := newEngine().Validate(fs)

			var found *domain.Finding
			for i := range r.Findings {
				if r.Findings[i].Kind == tt.kind {
					found = &r.Findings[i]
				}
			}
			require.NotNil(t, found, "expected %s finding", tt.kind)
			assert.Equal(t, tt.severity, found.Severity)
			assert.Equal(t, tt.deduction, found.Deduction)
			assert.Equal(t, domain.FieldNationalIDNumber, found.Field)
		})
	}
}

func TestValidate_UnverifiableNumberKeepsFullScore(t *testing.T) {
	fs := fieldSet(map[domain.Field]string{
		domain.FieldFirstName:        "Marko",
		domain.FieldLastName:         "Petrović",
		domain.FieldDateOfBirth:      "1985-03-15",
		domain.FieldGender:           domain.GenderMale,
		domain.FieldNationalIDNumber: "150398517001",
		domain.FieldAddress:          "Knez Mihailova 12",
		domain.FieldRegion:           "Beograd",
	})

	r := newEngine().Validate(fs)

	assert.True(t, r.IsValid)
	assert.True(t, r.HasWarnings)
	assert.True(t, r.HasFinding(domain.FindingIDUnverifiable))
	assert.Equal(t, 100, r.QualityScore)
}

func TestValidate_DateOfBirth(t *testing.T) {
	tests := []struct {
		dob  string
		kind domain.FindingKind
	}{
		{"31.02.1985", domain.FindingInvalidDate},
		{"sometime in 1985", domain.FindingInvalidDate},
		{"1850-01-01", domain.FindingImplausibleAge},
		{"2030-01-01", domain.FindingImplausibleAge},
	}

	for _, tt := range tests {
		t.Run(tt.dob, func(t *testing.T) {
			fs := fieldSet(map[domain.Field]string{
				domain.FieldFirstName:   "Marko",
				domain.FieldLastName:    "Petrović",
				domain.FieldDateOfBirth: tt.dob,
			})

			r := newEngine().Validate(fs)
			assert.True(t, r.HasFinding(tt.kind))
		})
	}
}

func TestValidate_AgeUsesInjectedClock(t *testing.T) {
	fs := fieldSet(map[domain.Field]string{domain.FieldDateOfBirth: "1906-01-02"})

	// turns 120 on 2026-01-02
	r := newEngine().Validate(fs)
	assert.False(t, r.HasFinding(domain.FindingImplausibleAge))

	later := validation.NewEngine(validation.WithClock(func() time.Time {
		return time.Date(2027, time.January, 2, 0, 0, 0, 0, time.UTC)
	}))
	r = later.Validate(fs)
	assert.True(t, r.HasFinding(domain.FindingImplausibleAge))
}

func TestValidate_NameCharset(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		flagged bool
	}{
		{"latin diacritics", "Đorđević", false},
		{"cyrillic", "Петровић", false},
		{"hyphen", "Jean-Luc", false},
		{"apostrophe", "O'Brien", false},
		{"typographic apostrophe", "D’Angelo", false},
		{"digit", "Mark0", true},
		{"symbol", "Marko#", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine().Validate(fieldSet(with(completeFields(), domain.FieldLastName, tt.value)))

			assert.Equal(t, tt.flagged, r.HasFinding(domain.FindingInvalidNameCharset))
			if tt.flagged {
				assert.Equal(t, 97, r.QualityScore)
				assert.True(t, r.IsValid)
			}
		})
	}
}

func TestValidate_UnrecognizedGender(t *testing.T) {
	r := newEngine().Validate(fieldSet(with(completeFields(), domain.FieldGender, "X")))

	assert.True(t, r.HasFinding(domain.FindingUnrecognizedValue))
	assert.False(t, r.HasFinding(domain.FindingCrossFieldMismatch))
	assert.True(t, r.IsValid)
	assert.True(t, r.HasWarnings)
	assert.Equal(t, 98, r.QualityScore)
}

func TestValidate_ScoreNonIncreasingAsErrorsAreAdded(t *testing.T) {
	steps := []struct {
		field domain.Field
		value string
	}{
		{domain.FieldGender, domain.GenderFemale},
		{domain.FieldFirstName, "Mark0"},
		{domain.FieldNationalIDNumber, "1503985170013"},
		{domain.FieldDateOfBirth, "1985-03-16"},
		{domain.FieldLastName, "Petrović!"},
	}

	e := newEngine()
	values := completeFields()
	prev := e.Validate(fieldSet(values))

	for _, s := range steps {
		values = with(values, s.field, s.value)
		r := e.Validate(fieldSet(values))

		assert.Equal(t, prev.Completeness, r.Completeness)
		assert.LessOrEqual(t, r.QualityScore, prev.QualityScore, "after setting %s=%s", s.field, s.value)
		prev = r
	}
	assert.False(t, prev.IsValid)
}

func TestValidate_ScoreNonDecreasingInCompleteness(t *testing.T) {
	full := completeFields()
	order := []domain.Field{
		domain.FieldFirstName,
		domain.FieldLastName,
		domain.FieldNationalIDNumber,
		domain.FieldDateOfBirth,
		domain.FieldGender,
		domain.FieldAddress,
		domain.FieldRegion,
	}

	e := newEngine()
	values := map[domain.Field]string{}
	prev := e.Validate(fieldSet(values))

	for _, f := range order {
		values[f] = full[f]
		r := e.Validate(fieldSet(values))

		assert.GreaterOrEqual(t, r.Completeness, prev.Completeness)
		assert.GreaterOrEqual(t, r.QualityScore, prev.QualityScore, "after adding %s", f)
		prev = r
	}
	assert.Equal(t, 100, prev.QualityScore)
}

func TestValidate_ScoreBounds(t *testing.T) {
	worst := fieldSet(map[domain.Field]string{
		domain.FieldFirstName:        "1",
		domain.FieldLastName:         "2",
		domain.FieldNationalIDNumber: "3213990600000",
		domain.FieldDateOfBirth:      "not a date",
		domain.FieldGender:           "?",
	})

	r := newEngine().Validate(worst)

	assert.GreaterOrEqual(t, r.QualityScore, 0)
	assert.LessOrEqual(t, r.QualityScore, 100)
	assert.False(t, r.IsValid)
}

func TestValidate_LowCompletenessCapsScore(t *testing.T) {
	fs := fieldSet(map[domain.Field]string{
		domain.FieldFirstName: "Marko",
		domain.FieldLastName:  "Petrović",
		domain.FieldGender:    domain.GenderMale,
	})

	r := newEngine().Validate(fs)

	assert.Equal(t, 50, r.Completeness)
	assert.True(t, r.HasFinding(domain.FindingLowCompleteness))
	// 100 - 20 missing number, capped at 50 + 20
	assert.Equal(t, 70, r.QualityScore)
}

func TestCompleteness_IgnoresInsuranceProvider(t *testing.T) {
	fs := fieldSet(map[domain.Field]string{domain.FieldInsuranceProvider: "RFZO"})

	assert.Equal(t, 0, validation.Completeness(fs))
}
