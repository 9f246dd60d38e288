// Package dto defines the request and response shapes of the HTTP interface.
package dto

import (
	"time"

	"github.com/stategrc/posturehub/pkg/errors"
)

// IngestAcceptedResponse acknowledges a stored snapshot. ComplianceScore
// echoes the submitted raw score; the derived percentage rides along.
type IngestAcceptedResponse struct {
	TenantID           string    `json:"tenant_id"`
	AgencyID           string    `json:"agency_id"`
	SnapshotAt         time.Time `json:"timestamp"`
	ComplianceScore    float64   `json:"compliance_score"`
	ComplianceScorePct float64   `json:"compliance_score_pct"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the stable code, a human-readable message, and optional
// structured details such as the offending field and violated rule.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// NewErrorResponse maps an application error to the wire envelope.
func NewErrorResponse(err *errors.AppError) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    string(err.Code),
			Message: err.Message,
			Details: err.Details,
		},
	}
}
