package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/medflow/medflow-idscan/pkg/config"
	"github.com/medflow/medflow-idscan/pkg/logger"
)

// DB is the audit database. Every tenant-scoped statement runs inside
// WithTenantRLS, which pins search_path and the tenant for one transaction.
type DB struct {
	*sqlx.DB
	logger     *logger.Logger
	searchPath string
}

// New connects and pings within connectTimeout
func New(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s on %s: %w", cfg.Database, cfg.Host, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info().
		Str("database", cfg.Database).
		Str("search_path", cfg.SearchPath).
		Msg("connected to database")

	return Wrap(db, cfg.SearchPath, log), nil
}

const connectTimeout = 10 * time.Second

// Wrap builds a DB around an existing connection, e.g. one backed by sqlmock
func Wrap(db *sqlx.DB, searchPath string, log *logger.Logger) *DB {
	return &DB{
		DB:         db,
		logger:     log,
		searchPath: searchPath,
	}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Health pings with a short timeout and reports pool usage
func (db *DB) Health(ctx context.Context) map[string]string {
	stats := db.Stats()
	status := map[string]string{
		"status":     "up",
		"open_conns": strconv.Itoa(stats.OpenConnections),
		"in_use":     strconv.Itoa(stats.InUse),
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
	}

	return status
}

// Transaction executes a function within a transaction
func (db *DB) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
