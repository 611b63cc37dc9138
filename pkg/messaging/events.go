package messaging

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event types
const (
	// Scan intake from scanner stations that publish instead of calling HTTP
	EventScanRequested = "idscan.scan.requested"

	// Extraction outcomes
	EventExtractionCompleted = "idscan.extraction.completed"
	EventExtractionFailed    = "idscan.extraction.failed"
)

// Exchange names
const (
	ExchangeIDScanEvents = "idscan.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ScanRequestedEvent carries a raw scan from a scanner station.
// Tenant fields are required because there is no gateway in front of the queue.
type ScanRequestedEvent struct {
	Payload      string `json:"payload"`
	Channel      string `json:"channel"`
	RequestedBy  string `json:"requested_by"`
	TenantID     string `json:"tenant_id"`
	TenantSlug   string `json:"tenant_slug,omitempty"`
	TenantSchema string `json:"tenant_schema"`
}

// ExtractionCompletedEvent is published after a scan was extracted and validated.
// It never carries field values, only which fields were found.
type ExtractionCompletedEvent struct {
	JobID           string   `json:"job_id"`
	Format          string   `json:"format"`
	Channel         string   `json:"channel"`
	FieldsExtracted []string `json:"fields_extracted"`
	QualityScore    int      `json:"quality_score"`
	IsValid         bool     `json:"is_valid"`
	Decision        string   `json:"decision"`
	ErrorCount      int      `json:"error_count"`
	WarningCount    int      `json:"warning_count"`
	PerformedBy     string   `json:"performed_by,omitempty"`
	TenantID        string   `json:"tenant_id,omitempty"`
}

// ExtractionFailedEvent is published when nothing could be extracted from a scan
type ExtractionFailedEvent struct {
	JobID       string `json:"job_id"`
	Format      string `json:"format"`
	Channel     string `json:"channel"`
	Reason      string `json:"reason"`
	PerformedBy string `json:"performed_by,omitempty"`
	TenantID    string `json:"tenant_id,omitempty"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.NewString()
}
