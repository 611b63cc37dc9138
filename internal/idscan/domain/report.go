package domain

// FindingKind classifies a validation finding
type FindingKind string

const (
	FindingMissingRequiredField FindingKind = "missing_required_field"
	FindingChecksumMismatch     FindingKind = "checksum_mismatch"
	FindingDateOutOfRange       FindingKind = "date_out_of_range"
	FindingIDTooShort           FindingKind = "id_too_short"
	FindingIDUnverifiable       FindingKind = "id_unverifiable"
	FindingUnknownRegion        FindingKind = "unknown_region"
	FindingInvalidDate          FindingKind = "invalid_date"
	FindingImplausibleAge       FindingKind = "implausible_age"
	FindingInvalidNameCharset   FindingKind = "invalid_name_charset"
	FindingUnrecognizedValue    FindingKind = "unrecognized_value"
	FindingCrossFieldMismatch   FindingKind = "cross_field_mismatch"
	FindingLowCompleteness      FindingKind = "low_completeness"
)

// Severity of a finding
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is a single reported problem with the scanned data
type Finding struct {
	Kind      FindingKind `json:"kind"`
	Severity  Severity    `json:"severity"`
	Field     Field       `json:"field,omitempty"`
	Message   string      `json:"message"`
	Deduction int         `json:"deduction"`
}

// ValidationReport is the outcome of validating one field set
type ValidationReport struct {
	IsValid      bool      `json:"is_valid"`
	HasWarnings  bool      `json:"has_warnings"`
	Errors       []string  `json:"errors"`
	Warnings     []string  `json:"warnings"`
	Findings     []Finding `json:"findings"`
	QualityScore int       `json:"quality_score"`
	Completeness int       `json:"completeness"`
}

// HasFinding reports whether a finding of the given kind was recorded
func (r ValidationReport) HasFinding(kind FindingKind) bool {
	for _, f := range r.Findings {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// Decision is what the intake form should do with an extraction result
type Decision string

const (
	DecisionAutoPopulate       Decision = "auto_populate"
	DecisionReview             Decision = "review"
	DecisionManualVerification Decision = "manual_verification"
)

// Thresholds drive Decide
type Thresholds struct {
	AutoPopulate int
	Review       int
}

// DefaultThresholds are the scores used by the intake UI
var DefaultThresholds = Thresholds{AutoPopulate: 90, Review: 70}

// Decide maps a report to an intake decision.
// A high score with errors is still sent to review.
func Decide(r ValidationReport, t Thresholds) Decision {
	switch {
	case r.QualityScore >= t.AutoPopulate && r.IsValid:
		return DecisionAutoPopulate
	case r.QualityScore >= t.Review:
		return DecisionReview
	default:
		return DecisionManualVerification
	}
}
