package service

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/pkg/constants"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

// AccessGuard enforces the tenant allow-list and optional client-credential
// binding. It operates on transport-level identifiers only and therefore
// runs before any request body is parsed. Every decision, accepted or
// rejected, is recorded to the audit sink.
type AccessGuard struct {
	policies *PolicyStore
	audit    AuditSink
	logger   logger.Logger
}

// GuardRequest carries the transport-level identifiers of one ingestion
// request.
type GuardRequest struct {
	TenantID string
	// ClientCertB64 is the forwarded client certificate as base64 DER, as
	// placed on the request by the TLS-terminating front end. Empty when no
	// certificate was presented.
	ClientCertB64 string
	RequestID     string
	RemoteAddr    string
}

// NewAccessGuard creates an access guard bound to a policy store and audit
// sink.
func NewAccessGuard(policies *PolicyStore, audit AuditSink, log logger.Logger) *AccessGuard {
	return &AccessGuard{
		policies: policies,
		audit:    audit,
		logger:   log.WithComponent("access_guard"),
	}
}

// Authorize returns nil when the request may proceed, or an AccessDenied
// error naming the rejection reason. The audit record is written in both
// cases; an audit write failure is logged but does not block the decision.
func (g *AccessGuard) Authorize(ctx context.Context, req GuardRequest) error {
	policy := g.policies.Current()

	tenantID := strings.TrimSpace(req.TenantID)
	if tenantID == "" {
		return g.reject(ctx, req, "", constants.ReasonTenantMissing)
	}
	if !policy.TenantAllowed(tenantID) {
		return g.reject(ctx, req, "", constants.ReasonTenantNotAllowed)
	}

	var fingerprint string
	if policy.CredentialCheckEnabled() {
		if req.ClientCertB64 == "" {
			return g.reject(ctx, req, "", constants.ReasonCredentialMissing)
		}
		var err error
		fingerprint, err = CertFingerprint(req.ClientCertB64)
		if err != nil {
			return g.reject(ctx, req, "", constants.ReasonCredentialMalformed)
		}
		if !policy.FingerprintAllowed(fingerprint) {
			return g.reject(ctx, req, fingerprint, constants.ReasonCredentialNotAllowed)
		}
	}

	g.record(ctx, models.NewAccessDecision(tenantID, fingerprint, constants.ReasonAccepted, true).
		WithRequestInfo(req.RequestID, req.RemoteAddr))
	return nil
}

func (g *AccessGuard) reject(ctx context.Context, req GuardRequest, fingerprint, reason string) error {
	g.record(ctx, models.NewAccessDecision(req.TenantID, fingerprint, reason, false).
		WithRequestInfo(req.RequestID, req.RemoteAddr))
	g.logger.Warn(ctx, "Ingestion request rejected",
		logger.String("tenant_id", req.TenantID),
		logger.String("reason", reason),
	)
	return errors.ErrAccessDenied(reason)
}

func (g *AccessGuard) record(ctx context.Context, decision *models.AccessDecision) {
	if err := g.audit.Record(ctx, decision); err != nil {
		g.logger.Error(ctx, "Failed to record access decision", err,
			logger.String("tenant_id", decision.TenantID),
			logger.String("reason", decision.Reason),
		)
	}
}

// CertFingerprint computes the uppercase SHA-1 hex fingerprint of a
// base64-DER encoded client certificate, matching the thumbprint format the
// collector registers.
func CertFingerprint(certB64 string) (string, error) {
	der, err := base64.StdEncoding.DecodeString(certB64)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(der)
	return strings.ToUpper(hex.EncodeToString(sum[:])), nil
}
