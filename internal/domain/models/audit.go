package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stategrc/posturehub/pkg/constants"
)

// AccessDecision is one append-only audit record of an access-guard
// decision. Every ingestion request produces exactly one, accepted or not.
type AccessDecision struct {
	EventID     uuid.UUID                `json:"event_id" gorm:"type:uuid;primaryKey"`
	EventType   constants.AuditEventType `json:"event_type" gorm:"size:64"`
	TenantID    string                   `json:"tenant_id" gorm:"size:36;index"`
	Fingerprint string                   `json:"fingerprint,omitempty" gorm:"size:40"`
	Allowed     bool                     `json:"allowed"`
	Reason      string                   `json:"reason" gorm:"size:64"`
	RequestID   string                   `json:"request_id,omitempty" gorm:"size:64"`
	RemoteAddr  string                   `json:"remote_addr,omitempty" gorm:"size:64"`
	OccurredAt  time.Time                `json:"occurred_at" gorm:"index"`
}

// TableName overrides the table name used by GORM.
func (AccessDecision) TableName() string {
	return "access_audit_log"
}

// NewAccessDecision creates an audit record for a guard decision.
func NewAccessDecision(tenantID, fingerprint, reason string, allowed bool) *AccessDecision {
	eventType := constants.AuditEventIngestRejected
	if allowed {
		eventType = constants.AuditEventIngestAccepted
	}
	return &AccessDecision{
		EventID:     uuid.New(),
		EventType:   eventType,
		TenantID:    tenantID,
		Fingerprint: fingerprint,
		Allowed:     allowed,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	}
}

// WithRequestInfo attaches transport-level request metadata.
func (d *AccessDecision) WithRequestInfo(requestID, remoteAddr string) *AccessDecision {
	d.RequestID = requestID
	d.RemoteAddr = remoteAddr
	return d
}
