package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/medflow/medflow-idscan/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505), only the job id is unique
	case "23505":
		return errors.BadRequest("an audit entry for this scan job already exists")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps the audit table CHECK constraints to field messages
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "quality_score_range"):
		return errors.Validation(map[string]string{
			"quality_score": "must be between 0 and 100",
		})

	case strings.Contains(constraint, "format_valid"):
		return errors.Validation(map[string]string{
			"format": "must be a known document format",
		})

	case strings.Contains(constraint, "channel_valid"):
		return errors.Validation(map[string]string{
			"channel": "must be one of: structured_code, free_text",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}
