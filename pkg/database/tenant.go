package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// WithTenantRLS runs fn inside a transaction scoped to one tenant.
//
// Usage in repositories:
//
//	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
//	    _, err := r.db.Exec(ctx, "INSERT INTO identity_scan_audit ...", args...)
//	    return err
//	})
//
// The transaction sets "SET LOCAL search_path" from the configured search path
// and "SET LOCAL app.current_tenant", which the RLS policies of the audit table
// compare against tenant_id. Both settings end with the transaction.
func (db *DB) WithTenantRLS(ctx context.Context, tenantID string, fn func(context.Context) error) error {
	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		searchPath := db.searchPath
		if searchPath == "" {
			searchPath = "public"
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL search_path TO %s", searchPath)); err != nil {
			return fmt.Errorf("failed to set search_path to %s: %w", searchPath, err)
		}

		// SET LOCAL takes no placeholders; tenantID is checked to be a UUID
		if _, err := uuid.Parse(tenantID); err != nil {
			return fmt.Errorf("invalid tenant id %q: %w", tenantID, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL app.current_tenant = '%s'", tenantID)); err != nil {
			return fmt.Errorf("failed to set app.current_tenant to %s: %w", tenantID, err)
		}

		txCtx := context.WithValue(ctx, txKey{}, tx)

		return fn(txCtx)
	})
}

// getTx extracts transaction from context if present
func (db *DB) getTx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}

// Exec runs a statement in the tenant transaction carried by ctx, or directly when there is none
func (db *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if tx := db.getTx(ctx); tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return db.ExecContext(ctx, query, args...)
}

// Query runs a query in the tenant transaction carried by ctx, or directly when there is none
func (db *DB) Query(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	if tx := db.getTx(ctx); tx != nil {
		return tx.QueryxContext(ctx, query, args...)
	}
	return db.QueryxContext(ctx, query, args...)
}
