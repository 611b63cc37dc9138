package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrInternal        = errors.New("internal server error")
	ErrValidation      = errors.New("validation error")
	ErrUnprocessable   = errors.New("unprocessable entity")
	ErrTooManyRequests = errors.New("too many requests")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NoDataExtracted is returned when a scan yielded no identity field at all.
// The client should ask for a rescan or another scan method.
func NoDataExtracted(format string) *AppError {
	return &AppError{
		Err:        ErrUnprocessable,
		Code:       "NO_DATA_EXTRACTED",
		Message:    "no identity data could be extracted from the scan",
		StatusCode: http.StatusUnprocessableEntity,
		Details:    map[string]string{"format": format},
	}
}

// InvalidIdentityNumber is returned when a number to decode is not 13 digits
func InvalidIdentityNumber(message string) *AppError {
	return &AppError{
		Err:        ErrUnprocessable,
		Code:       "INVALID_IDENTITY_NUMBER",
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func TooManyRequests() *AppError {
	return &AppError{
		Err:        ErrTooManyRequests,
		Code:       "RATE_LIMITED",
		Message:    "too many requests, slow down",
		StatusCode: http.StatusTooManyRequests,
	}
}

func PayloadTooLarge(limit int) *AppError {
	return &AppError{
		Err:        ErrPayloadTooLarge,
		Code:       "PAYLOAD_TOO_LARGE",
		Message:    fmt.Sprintf("scan payload exceeds %d bytes", limit),
		StatusCode: http.StatusRequestEntityTooLarge,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
