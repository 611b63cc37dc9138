package domain

import (
	"errors"
	"fmt"
	"time"
)

// Channel identifies where a raw scan payload came from
type Channel string

const (
	ChannelStructuredCode Channel = "structured_code"
	ChannelFreeText       Channel = "free_text"
)

// Valid reports whether c is one of the known channels
func (c Channel) Valid() bool {
	return c == ChannelStructuredCode || c == ChannelFreeText
}

// RawScanInput is a single scan attempt as handed over by the scanner or OCR layer
type RawScanInput struct {
	Payload string  `json:"payload"`
	Channel Channel `json:"channel"`
}

// DocumentFormat is the closed set of document layouts the detector can select
type DocumentFormat string

const (
	FormatRegionalCardA      DocumentFormat = "regional_card_a"
	FormatRegionalCardB      DocumentFormat = "regional_card_b"
	FormatRegionalCardC      DocumentFormat = "regional_card_c"
	FormatEHIC               DocumentFormat = "ehic"
	FormatGenericKeyValue    DocumentFormat = "generic_key_value"
	FormatGenericJSON        DocumentFormat = "generic_json"
	FormatBareIdentityNumber DocumentFormat = "bare_identity_number"
	FormatFreeText           DocumentFormat = "free_text"
	FormatUnrecognized       DocumentFormat = "unrecognized"
)

var (
	// ErrNoDataExtracted is returned when no parser matched and no field was found
	ErrNoDataExtracted = errors.New("no data extracted from scan")
)

// NoDataError reports which format was selected for a scan that produced no fields
type NoDataError struct {
	Format DocumentFormat
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("%s (format %s)", ErrNoDataExtracted, e.Format)
}

// Unwrap makes errors.Is(err, ErrNoDataExtracted) hold
func (e *NoDataError) Unwrap() error {
	return ErrNoDataExtracted
}

// ExtractionResult is the single output of the extraction pipeline
type ExtractionResult struct {
	Format DocumentFormat   `json:"format"`
	Fields FieldSet         `json:"fields"`
	Report ValidationReport `json:"report"`
}

// JobStatus represents the processing state of a scan job
type JobStatus string

const (
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// ScanJob is what the service keeps around so the review screen can fetch a result again
type ScanJob struct {
	JobID   string    `json:"job_id"`
	Status  JobStatus `json:"status"`
	Channel Channel   `json:"channel"`
	// Format is the detected layout, also set when nothing could be extracted
	Format DocumentFormat `json:"format"`
	// TenantID owns the job; other tenants never see it
	TenantID  string            `json:"-"`
	Result    *ExtractionResult `json:"result,omitempty"`
	Decision  Decision          `json:"decision,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
