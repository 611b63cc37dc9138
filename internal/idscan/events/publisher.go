package events

import (
	"context"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/pkg/logger"
	"github.com/medflow/medflow-idscan/pkg/messaging"
	"github.com/medflow/medflow-idscan/pkg/tenant"
)

// EventPublisher is the part of messaging.Publisher the scan events need
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// ScanEventPublisher publishes extraction outcome events.
// Events carry job metadata and field names only, never field values.
type ScanEventPublisher struct {
	publisher EventPublisher
	logger    *logger.Logger
}

// NewScanEventPublisher declares the idscan exchange and creates a publisher on it
func NewScanEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*ScanEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeIDScanEvents, "idscan-service", log)
	if err != nil {
		return nil, err
	}
	return NewScanEventPublisherWith(publisher, log), nil
}

// NewScanEventPublisherWith wraps an existing publisher
func NewScanEventPublisherWith(publisher EventPublisher, log *logger.Logger) *ScanEventPublisher {
	return &ScanEventPublisher{
		publisher: publisher,
		logger:    log.WithComponent("scan-events"),
	}
}

// PublishExtractionCompleted publishes the outcome of a successful extraction
func (p *ScanEventPublisher) PublishExtractionCompleted(ctx context.Context, job *domain.ScanJob, performedBy string) {
	if job.Result == nil {
		return
	}
	tenantID, _ := tenant.TenantID(ctx)
	res := job.Result

	fields := make([]string, 0, len(res.Fields.Populated()))
	for _, f := range res.Fields.Populated() {
		fields = append(fields, string(f))
	}

	data := messaging.ExtractionCompletedEvent{
		JobID:           job.JobID,
		Format:          string(res.Format),
		Channel:         string(job.Channel),
		FieldsExtracted: fields,
		QualityScore:    res.Report.QualityScore,
		IsValid:         res.Report.IsValid,
		Decision:        string(job.Decision),
		ErrorCount:      len(res.Report.Errors),
		WarningCount:    len(res.Report.Warnings),
		PerformedBy:     performedBy,
		TenantID:        tenantID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventExtractionCompleted, data); err != nil {
		p.logger.Error().Err(err).Str("job_id", job.JobID).Msg("failed to publish extraction completed event")
	}
}

// PublishExtractionFailed publishes that nothing could be extracted from a scan
func (p *ScanEventPublisher) PublishExtractionFailed(ctx context.Context, job *domain.ScanJob, performedBy string) {
	tenantID, _ := tenant.TenantID(ctx)

	data := messaging.ExtractionFailedEvent{
		JobID:       job.JobID,
		Format:      string(job.Format),
		Channel:     string(job.Channel),
		Reason:      job.Error,
		PerformedBy: performedBy,
		TenantID:    tenantID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventExtractionFailed, data); err != nil {
		p.logger.Error().Err(err).Str("job_id", job.JobID).Msg("failed to publish extraction failed event")
	}
}
