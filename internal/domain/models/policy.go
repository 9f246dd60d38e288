package models

import "strings"

// AccessPolicy is the immutable allow-list of tenant identifiers and,
// optionally, approved client-credential fingerprints (uppercase SHA-1 hex).
// It is constructed whole and swapped atomically on reload; nothing mutates
// an existing policy in place.
type AccessPolicy struct {
	tenants      map[string]struct{}
	fingerprints map[string]struct{}
}

// NewAccessPolicy builds a policy from raw configuration lists. Tenant IDs
// are trimmed; fingerprints are trimmed and uppercased so comparisons are
// canonical.
func NewAccessPolicy(tenants, fingerprints []string) *AccessPolicy {
	p := &AccessPolicy{
		tenants:      make(map[string]struct{}, len(tenants)),
		fingerprints: make(map[string]struct{}, len(fingerprints)),
	}
	for _, t := range tenants {
		if t = strings.TrimSpace(t); t != "" {
			p.tenants[t] = struct{}{}
		}
	}
	for _, f := range fingerprints {
		if f = strings.ToUpper(strings.TrimSpace(f)); f != "" {
			p.fingerprints[f] = struct{}{}
		}
	}
	return p
}

// TenantAllowed reports whether the tenant identifier is in the allow-list.
func (p *AccessPolicy) TenantAllowed(tenantID string) bool {
	_, ok := p.tenants[tenantID]
	return ok
}

// CredentialCheckEnabled reports whether a credential check is configured.
// With no approved fingerprints, requests are admitted on tenant identity
// alone.
func (p *AccessPolicy) CredentialCheckEnabled() bool {
	return len(p.fingerprints) > 0
}

// FingerprintAllowed reports whether the presented fingerprint is approved.
func (p *AccessPolicy) FingerprintAllowed(fingerprint string) bool {
	_, ok := p.fingerprints[strings.ToUpper(fingerprint)]
	return ok
}

// TenantCount returns the size of the tenant allow-list.
func (p *AccessPolicy) TenantCount() int {
	return len(p.tenants)
}
