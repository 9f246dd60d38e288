// Package constants defines shared enumerations and keys for the posture
// ingestion service.
package constants

// LogLevel represents the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
)

// ContextKey is the type used for request-scoped context values.
type ContextKey string

const (
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyTenantID  ContextKey = "tenant_id"
	ContextKeyTraceID   ContextKey = "trace_id"
)

// ErrorCode identifies a stable error category surfaced to callers.
type ErrorCode string

const (
	ErrCodeAccessDenied       ErrorCode = "access_denied"
	ErrCodeValidationFailed   ErrorCode = "validation_failed"
	ErrCodeWriteConflict      ErrorCode = "write_conflict"
	ErrCodeStorageUnavailable ErrorCode = "storage_unavailable"
	ErrCodeAggregationFailed  ErrorCode = "aggregation_failed"
	ErrCodeNotFound           ErrorCode = "not_found"
	ErrCodeRunInProgress      ErrorCode = "run_in_progress"
	ErrCodeInternal           ErrorCode = "internal_error"
)

// AuditEventType classifies entries in the access-decision audit log.
type AuditEventType string

const (
	AuditEventIngestAccepted AuditEventType = "posture.ingest.accepted"
	AuditEventIngestRejected AuditEventType = "posture.ingest.rejected"
)

// Access-decision reason codes recorded alongside audit events.
const (
	ReasonAccepted             = "accepted"
	ReasonTenantMissing        = "tenant_id_missing"
	ReasonTenantNotAllowed     = "tenant_not_in_allow_list"
	ReasonCredentialMissing    = "client_credential_missing"
	ReasonCredentialMalformed  = "client_credential_malformed"
	ReasonCredentialNotAllowed = "credential_not_in_allow_list"
)

// Transport headers consumed by the access guard before the body is parsed.
const (
	HeaderTenantID   = "X-Tenant-ID"
	HeaderClientCert = "X-Client-Cert"
	HeaderRequestID  = "X-Request-ID"
)

// Defaults for scheduling and context building.
const (
	DefaultAggregateHourUTC  = 6
	DefaultContextTenantCap  = 20
	DefaultStorageTimeoutSec = 10
)
