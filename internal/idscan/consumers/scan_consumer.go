package consumers

import (
	"context"
	"errors"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/pkg/logger"
	"github.com/medflow/medflow-idscan/pkg/messaging"
	"github.com/medflow/medflow-idscan/pkg/tenant"
)

// ScanRequestQueue is the durable queue scanner stations publish to
const ScanRequestQueue = "idscan-service.scan-requests"

// Scanner is the part of the service the consumer drives
type Scanner interface {
	Extract(ctx context.Context, input domain.RawScanInput, userID string) (*domain.ScanJob, error)
}

// ScanRequestConsumer runs scans published by scanner stations that do not call HTTP
type ScanRequestConsumer struct {
	consumer *messaging.Consumer
	scanner  Scanner
	logger   *logger.Logger
}

// NewScanRequestConsumer creates a consumer bound to idscan.scan.requested
func NewScanRequestConsumer(rmq *messaging.RabbitMQ, scanner Scanner, log *logger.Logger) (*ScanRequestConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, ScanRequestQueue, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeIDScanEvents, messaging.EventScanRequested); err != nil {
		return nil, err
	}

	c := NewScanRequestHandler(scanner, log)
	c.consumer = consumer
	consumer.RegisterHandler(messaging.EventScanRequested, c.HandleScanRequested)

	return c, nil
}

// NewScanRequestHandler creates the handler without a broker connection
func NewScanRequestHandler(scanner Scanner, log *logger.Logger) *ScanRequestConsumer {
	return &ScanRequestConsumer{
		scanner: scanner,
		logger:  log.WithComponent("scan-consumer"),
	}
}

// Start starts consuming messages
func (c *ScanRequestConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// HandleScanRequested extracts one queued scan under the tenant named in the event.
// Only undecodable events are returned as errors; a retry cannot fix a bad scan.
func (c *ScanRequestConsumer) HandleScanRequested(ctx context.Context, event *messaging.Event) error {
	var data messaging.ScanRequestedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	log := c.logger.WithCorrelationID(event.CorrelationID)

	if data.TenantID == "" {
		log.Warn().Str("event_id", event.ID).Msg("dropping scan request without tenant")
		return nil
	}
	ctx = tenant.WithTenantContext(ctx, data.TenantID, data.TenantSlug, data.TenantSchema)

	job, err := c.scanner.Extract(ctx, domain.RawScanInput{
		Payload: data.Payload,
		Channel: domain.Channel(data.Channel),
	}, data.RequestedBy)

	switch {
	case errors.Is(err, domain.ErrNoDataExtracted):
		log.Info().Str("job_id", job.JobID).Msg("queued scan yielded no data")
	case err != nil:
		log.Warn().Err(err).Str("event_id", event.ID).Msg("rejected queued scan")
	default:
		log.Info().
			Str("job_id", job.JobID).
			Str("decision", string(job.Decision)).
			Msg("queued scan extracted")
	}
	return nil
}
