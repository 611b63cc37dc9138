package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/pkg/database"
	"github.com/medflow/medflow-idscan/pkg/tenant"
)

// AuditEntry is one row of identity_scan_audit.
// It records that a scan happened and how it scored, never what it contained.
type AuditEntry struct {
	ID              string    `db:"id" json:"id"`
	JobID           string    `db:"job_id" json:"job_id"`
	Format          string    `db:"format" json:"format"`
	Channel         string    `db:"channel" json:"channel"`
	FieldsExtracted []string  `db:"fields_extracted" json:"fields_extracted"`
	QualityScore    int       `db:"quality_score" json:"quality_score"`
	IsValid         bool      `db:"is_valid" json:"is_valid"`
	Decision        string    `db:"decision" json:"decision"`
	ErrorCount      int       `db:"error_count" json:"error_count"`
	WarningCount    int       `db:"warning_count" json:"warning_count"`
	PerformedBy     *string   `db:"performed_by" json:"performed_by,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// NewAuditEntry summarizes a finished scan job
func NewAuditEntry(job *domain.ScanJob, performedBy string) *AuditEntry {
	entry := &AuditEntry{
		JobID:           job.JobID,
		Format:          string(job.Format),
		Channel:         string(job.Channel),
		FieldsExtracted: []string{},
		Decision:        string(job.Decision),
		CreatedAt:       job.CreatedAt,
	}
	if entry.Format == "" {
		entry.Format = string(domain.FormatUnrecognized)
	}
	if performedBy != "" {
		entry.PerformedBy = &performedBy
	}
	if res := job.Result; res != nil {
		entry.Format = string(res.Format)
		for _, f := range res.Fields.Populated() {
			entry.FieldsExtracted = append(entry.FieldsExtracted, string(f))
		}
		entry.QualityScore = res.Report.QualityScore
		entry.IsValid = res.Report.IsValid
		entry.ErrorCount = len(res.Report.Errors)
		entry.WarningCount = len(res.Report.Warnings)
	}
	return entry
}

// AuditRepository persists scan audit entries.
//
// Table (per service schema, RLS on tenant_id):
//
//	identity_scan_audit(id uuid pk, tenant_id uuid, job_id text unique, format text,
//	    channel text, fields_extracted text[], quality_score int, is_valid bool,
//	    decision text, error_count int, warning_count int, performed_by uuid null,
//	    created_at timestamptz)
type AuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

const insertAuditQuery = `
	INSERT INTO identity_scan_audit (
		id, tenant_id, job_id, format, channel, fields_extracted,
		quality_score, is_valid, decision, error_count, warning_count,
		performed_by, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// Record inserts an audit entry
// TENANT-ISOLATED: written inside WithTenantRLS
func (r *AuditRepository) Record(ctx context.Context, entry *AuditEntry) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, insertAuditQuery,
			entry.ID, tenantID, entry.JobID, entry.Format, entry.Channel,
			pq.Array(entry.FieldsExtracted),
			entry.QualityScore, entry.IsValid, entry.Decision,
			entry.ErrorCount, entry.WarningCount,
			entry.PerformedBy, entry.CreatedAt,
		)
		return err
	})
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

const listAuditQuery = `
	SELECT id, job_id, format, channel, fields_extracted, quality_score, is_valid,
	       decision, error_count, warning_count, performed_by, created_at
	FROM identity_scan_audit
	ORDER BY created_at DESC
	LIMIT $1`

// ListRecent returns the newest audit entries of the tenant
// TENANT-ISOLATED: RLS filters rows by tenant
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]AuditEntry, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	entries := []AuditEntry{}
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, listAuditQuery, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e AuditEntry
			if err := rows.Scan(
				&e.ID, &e.JobID, &e.Format, &e.Channel, pq.Array(&e.FieldsExtracted),
				&e.QualityScore, &e.IsValid, &e.Decision, &e.ErrorCount, &e.WarningCount,
				&e.PerformedBy, &e.CreatedAt,
			); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
