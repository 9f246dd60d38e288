package service

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/pkg/constants"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

type recordingSink struct {
	mu        sync.Mutex
	decisions []*models.AccessDecision
}

func (s *recordingSink) Record(_ context.Context, d *models.AccessDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, d)
	return nil
}

func (s *recordingSink) last(t *testing.T) *models.AccessDecision {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.decisions)
	return s.decisions[len(s.decisions)-1]
}

func newGuard(tenants, fingerprints []string) (*AccessGuard, *recordingSink) {
	sink := &recordingSink{}
	store := NewPolicyStore(models.NewAccessPolicy(tenants, fingerprints))
	return NewAccessGuard(store, sink, logger.NewNoopLogger()), sink
}

func testCert(t *testing.T) (certB64, fingerprint string) {
	t.Helper()
	der := []byte("not a real certificate, but the guard only hashes bytes")
	certB64 = base64.StdEncoding.EncodeToString(der)
	fingerprint, err := CertFingerprint(certB64)
	require.NoError(t, err)
	return certB64, fingerprint
}

func TestAccessGuard_UnknownTenantRejectedForEveryCredentialState(t *testing.T) {
	certB64, fingerprint := testCert(t)
	guard, sink := newGuard([]string{testTenantID}, []string{fingerprint})

	for name, cert := range map[string]string{
		"no credential":        "",
		"valid credential":     certB64,
		"malformed credential": "%%%not-base64%%%",
	} {
		t.Run(name, func(t *testing.T) {
			err := guard.Authorize(context.Background(), GuardRequest{
				TenantID:      "99999999-9999-9999-9999-999999999999",
				ClientCertB64: cert,
			})
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, constants.ErrCodeAccessDenied))
			assert.Equal(t, constants.ReasonTenantNotAllowed, sink.last(t).Reason)
			assert.False(t, sink.last(t).Allowed)
		})
	}
}

func TestAccessGuard_MissingTenantRejected(t *testing.T) {
	guard, sink := newGuard([]string{testTenantID}, nil)

	err := guard.Authorize(context.Background(), GuardRequest{TenantID: "  "})
	require.Error(t, err)
	assert.Equal(t, constants.ReasonTenantMissing, sink.last(t).Reason)
}

func TestAccessGuard_TenantOnlyPolicyAdmitsWithoutCredential(t *testing.T) {
	guard, sink := newGuard([]string{testTenantID}, nil)

	err := guard.Authorize(context.Background(), GuardRequest{TenantID: testTenantID})
	require.NoError(t, err)

	decision := sink.last(t)
	assert.True(t, decision.Allowed)
	assert.Equal(t, constants.ReasonAccepted, decision.Reason)
	assert.Equal(t, constants.AuditEventIngestAccepted, decision.EventType)
}

func TestAccessGuard_CredentialBinding(t *testing.T) {
	certB64, fingerprint := testCert(t)

	t.Run("approved fingerprint admitted", func(t *testing.T) {
		guard, sink := newGuard([]string{testTenantID}, []string{fingerprint})
		err := guard.Authorize(context.Background(), GuardRequest{
			TenantID:      testTenantID,
			ClientCertB64: certB64,
		})
		require.NoError(t, err)
		assert.Equal(t, fingerprint, sink.last(t).Fingerprint)
	})

	t.Run("missing credential rejected when check enabled", func(t *testing.T) {
		guard, sink := newGuard([]string{testTenantID}, []string{fingerprint})
		err := guard.Authorize(context.Background(), GuardRequest{TenantID: testTenantID})
		require.Error(t, err)
		assert.Equal(t, constants.ReasonCredentialMissing, sink.last(t).Reason)
	})

	t.Run("malformed credential rejected", func(t *testing.T) {
		guard, sink := newGuard([]string{testTenantID}, []string{fingerprint})
		err := guard.Authorize(context.Background(), GuardRequest{
			TenantID:      testTenantID,
			ClientCertB64: "%%%not-base64%%%",
		})
		require.Error(t, err)
		assert.Equal(t, constants.ReasonCredentialMalformed, sink.last(t).Reason)
	})

	t.Run("unapproved fingerprint rejected", func(t *testing.T) {
		guard, sink := newGuard([]string{testTenantID}, []string{"AAAA0000AAAA0000AAAA0000AAAA0000AAAA0000"})
		err := guard.Authorize(context.Background(), GuardRequest{
			TenantID:      testTenantID,
			ClientCertB64: certB64,
		})
		require.Error(t, err)
		assert.Equal(t, constants.ReasonCredentialNotAllowed, sink.last(t).Reason)
	})
}

func TestAccessGuard_EveryDecisionAudited(t *testing.T) {
	guard, sink := newGuard([]string{testTenantID}, nil)

	_ = guard.Authorize(context.Background(), GuardRequest{TenantID: testTenantID})
	_ = guard.Authorize(context.Background(), GuardRequest{TenantID: "unknown"})
	_ = guard.Authorize(context.Background(), GuardRequest{TenantID: ""})

	assert.Len(t, sink.decisions, 3)
}

func TestAccessGuard_PolicySwapTakesEffect(t *testing.T) {
	sink := &recordingSink{}
	store := NewPolicyStore(models.NewAccessPolicy(nil, nil))
	guard := NewAccessGuard(store, sink, logger.NewNoopLogger())

	err := guard.Authorize(context.Background(), GuardRequest{TenantID: testTenantID})
	require.Error(t, err)

	store.Swap(models.NewAccessPolicy([]string{testTenantID}, nil))
	err = guard.Authorize(context.Background(), GuardRequest{TenantID: testTenantID})
	assert.NoError(t, err)
}

func TestCertFingerprint_Canonical(t *testing.T) {
	_, fingerprint := testCert(t)
	assert.Len(t, fingerprint, 40)
	for _, r := range fingerprint {
		assert.Contains(t, "0123456789ABCDEF", string(r))
	}
}
