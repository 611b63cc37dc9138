package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/jmbg"
	"github.com/medflow/medflow-idscan/internal/idscan/pipeline"
	"github.com/medflow/medflow-idscan/internal/idscan/repository"
	"github.com/medflow/medflow-idscan/internal/idscan/storage"
	"github.com/medflow/medflow-idscan/pkg/logger"
	"github.com/medflow/medflow-idscan/pkg/tenant"
)

var (
	ErrInvalidChannel  = errors.New("unknown scan channel")
	ErrEmptyPayload    = errors.New("scan payload is empty")
	ErrPayloadTooLarge = errors.New("scan payload too large")
	ErrJobNotFound     = errors.New("scan job not found")
)

// AuditStore persists one audit row per scan
type AuditStore interface {
	Record(ctx context.Context, entry *repository.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]repository.AuditEntry, error)
}

// ScanEvents publishes extraction outcomes
type ScanEvents interface {
	PublishExtractionCompleted(ctx context.Context, job *domain.ScanJob, performedBy string)
	PublishExtractionFailed(ctx context.Context, job *domain.ScanJob, performedBy string)
}

// Service orchestrates a scan: extract → decide → store job → audit → publish
type Service struct {
	pipeline   *pipeline.Pipeline
	jobs       *storage.JobStore
	audit      AuditStore
	events     ScanEvents
	thresholds domain.Thresholds
	maxPayload int
	now        func() time.Time
	log        *logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithAudit enables audit rows for every scan
func WithAudit(a AuditStore) Option {
	return func(s *Service) { s.audit = a }
}

// WithEvents enables extraction events
func WithEvents(e ScanEvents) Option {
	return func(s *Service) { s.events = e }
}

// WithThresholds overrides the decision thresholds
func WithThresholds(t domain.Thresholds) Option {
	return func(s *Service) { s.thresholds = t }
}

// WithMaxPayload limits the payload size in bytes; zero disables the check
func WithMaxPayload(n int) Option {
	return func(s *Service) { s.maxPayload = n }
}

// WithClock replaces time.Now for job timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new identity scan service
func NewService(p *pipeline.Pipeline, jobs *storage.JobStore, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		pipeline:   p,
		jobs:       jobs,
		thresholds: domain.DefaultThresholds,
		now:        time.Now,
		log:        log.WithComponent("idscan-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract runs one scan synchronously and keeps the job for later retrieval.
// When nothing could be extracted the failed job is stored and returned together
// with an error wrapping domain.ErrNoDataExtracted.
func (s *Service) Extract(ctx context.Context, input domain.RawScanInput, userID string) (*domain.ScanJob, error) {
	if !input.Channel.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannel, input.Channel)
	}
	if input.Payload == "" {
		return nil, ErrEmptyPayload
	}
	if s.maxPayload > 0 && len(input.Payload) > s.maxPayload {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(input.Payload), s.maxPayload)
	}

	// empty outside a tenant request, e.g. in the CLI
	tenantID, _ := tenant.TenantID(ctx)

	job := &domain.ScanJob{
		JobID:     storage.GenerateJobID(),
		Channel:   input.Channel,
		TenantID:  tenantID,
		CreatedAt: s.now().UTC(),
	}
	log := s.log.WithJobID(job.JobID)

	result, err := s.pipeline.Extract(input)
	if err != nil {
		job.Status = domain.StatusFailed
		job.Format = domain.FormatUnrecognized
		var noData *domain.NoDataError
		if errors.As(err, &noData) {
			job.Format = noData.Format
		}
		job.Error = err.Error()
		s.jobs.Store(job)

		log.Warn().Str("channel", string(input.Channel)).Str("format", string(job.Format)).Int("payload_bytes", len(input.Payload)).Msg("no identity data extracted")
		s.recordAudit(ctx, job, userID)
		if s.events != nil {
			s.events.PublishExtractionFailed(ctx, job, userID)
		}
		return job, err
	}

	job.Status = domain.StatusCompleted
	job.Format = result.Format
	job.Result = result
	job.Decision = domain.Decide(result.Report, s.thresholds)
	s.jobs.Store(job)

	log.Info().
		Str("format", string(result.Format)).
		Int("fields_extracted", len(result.Fields.Populated())).
		Int("quality_score", result.Report.QualityScore).
		Int("errors", len(result.Report.Errors)).
		Int("warnings", len(result.Report.Warnings)).
		Str("decision", string(job.Decision)).
		Msg("scan extracted")

	s.recordAudit(ctx, job, userID)
	if s.events != nil {
		s.events.PublishExtractionCompleted(ctx, job, userID)
	}
	return job, nil
}

// recordAudit never fails the scan; the caller already has the result
func (s *Service) recordAudit(ctx context.Context, job *domain.ScanJob, userID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, repository.NewAuditEntry(job, userID)); err != nil {
		s.log.Error().Err(err).Str("job_id", job.JobID).Msg("failed to write scan audit entry")
	}
}

// GetJob retrieves a scan job of the caller's tenant. A job owned by
// another tenant is reported as not found.
func (s *Service) GetJob(ctx context.Context, jobID string) (*domain.ScanJob, error) {
	job := s.jobs.Get(jobID)
	if job == nil {
		return nil, ErrJobNotFound
	}
	tenantID, _ := tenant.TenantID(ctx)
	if job.TenantID != tenantID {
		s.log.Warn().Str("job_id", jobID).Msg("scan job requested by another tenant")
		return nil, ErrJobNotFound
	}
	return job, nil
}

// DecodeNationalID decodes a single identity number. Separators are ignored.
func (s *Service) DecodeNationalID(number string) (*jmbg.Decoded, error) {
	return jmbg.Decode(domain.SanitizeIDNumber(number))
}

// RecentAudit lists the newest audit entries of the caller's tenant.
// Returns an empty list when auditing is disabled.
func (s *Service) RecentAudit(ctx context.Context, limit int) ([]repository.AuditEntry, error) {
	if s.audit == nil {
		return []repository.AuditEntry{}, nil
	}
	return s.audit.ListRecent(ctx, limit)
}
