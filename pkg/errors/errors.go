// Package errors defines the structured error types used across the posture
// ingestion service. Every error carries a stable code from pkg/constants, an
// HTTP status, and enough detail for the caller or operator to act.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/stategrc/posturehub/pkg/constants"
)

// AppError is the structured application error returned by every layer.
type AppError struct {
	Code        constants.ErrorCode
	Status      int
	Message     string
	Description string
	Details     map[string]string
	cause       error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *AppError) Unwrap() error {
	return e.cause
}

// HTTPStatus returns the HTTP status code mapped to this error.
func (e *AppError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// Retryable reports whether the caller may safely retry the request.
func (e *AppError) Retryable() bool {
	return e.Code == constants.ErrCodeStorageUnavailable
}

// WithCause attaches an underlying error, returning a copy.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithDetail attaches a key/value detail, returning a copy.
func (e *AppError) WithDetail(key, value string) *AppError {
	clone := *e
	clone.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		clone.Details[k] = v
	}
	clone.Details[key] = value
	return &clone
}

func newError(code constants.ErrorCode, status int, message string) *AppError {
	return &AppError{Code: code, Status: status, Message: message}
}

// ErrAccessDenied creates an access_denied error for an unknown tenant or
// credential. The reason code is recorded in the details map.
func ErrAccessDenied(reason string) *AppError {
	return newError(constants.ErrCodeAccessDenied, http.StatusForbidden,
		"request rejected by access policy").WithDetail("reason", reason)
}

// ErrValidationFailed creates a validation_failed error naming the first
// offending field and the violated rule.
func ErrValidationFailed(field, rule string) *AppError {
	return newError(constants.ErrCodeValidationFailed, http.StatusBadRequest,
		fmt.Sprintf("field %q violates constraint %q", field, rule)).
		WithDetail("field", field).
		WithDetail("rule", rule)
}

// ErrWriteConflict creates a write_conflict error for a duplicate
// (tenant, timestamp) snapshot. Distinct from validation failure so callers
// can tell "already recorded, do not resend" from "resend corrected".
func ErrWriteConflict(tenantID, timestamp string) *AppError {
	return newError(constants.ErrCodeWriteConflict, http.StatusConflict,
		"snapshot already recorded for this tenant and timestamp").
		WithDetail("tenant_id", tenantID).
		WithDetail("timestamp", timestamp)
}

// ErrStorageUnavailable creates a retryable storage_unavailable error.
func ErrStorageUnavailable(op string) *AppError {
	return newError(constants.ErrCodeStorageUnavailable, http.StatusServiceUnavailable,
		fmt.Sprintf("storage backend unavailable during %s", op)).
		WithDetail("operation", op)
}

// ErrAggregationFailed creates an aggregation_failed error. Not retried
// automatically; the next scheduled run recomputes from current state.
func ErrAggregationFailed(reason string) *AppError {
	return newError(constants.ErrCodeAggregationFailed, http.StatusInternalServerError,
		fmt.Sprintf("aggregate rollup failed: %s", reason))
}

// ErrRunInProgress creates a run_in_progress error for an overlapping
// aggregate trigger. Overlapping triggers are rejected, never queued.
func ErrRunInProgress() *AppError {
	return newError(constants.ErrCodeRunInProgress, http.StatusConflict,
		"an aggregate run is already in progress")
}

// ErrNotFound creates a not_found error for a missing resource.
func ErrNotFound(resource string) *AppError {
	return newError(constants.ErrCodeNotFound, http.StatusNotFound,
		fmt.Sprintf("%s not found", resource)).WithDetail("resource", resource)
}

// ErrInternal creates a generic internal error.
func ErrInternal(message string) *AppError {
	return newError(constants.ErrCodeInternal, http.StatusInternalServerError, message)
}

// AsAppError extracts an *AppError from an error chain, wrapping unknown
// errors as internal so handlers always have a code and status to emit.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal("internal server error").WithCause(err)
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code constants.ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
