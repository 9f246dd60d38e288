package service

import (
	"sync/atomic"

	"github.com/stategrc/posturehub/internal/domain/models"
)

// PolicyStore holds the current access policy behind an atomic pointer.
// Readers always see a complete policy; hot reload swaps the whole object,
// never mutates it.
type PolicyStore struct {
	current atomic.Pointer[models.AccessPolicy]
}

// NewPolicyStore creates a store seeded with an initial policy.
func NewPolicyStore(initial *models.AccessPolicy) *PolicyStore {
	s := &PolicyStore{}
	s.current.Store(initial)
	return s
}

// Current returns the policy in effect.
func (s *PolicyStore) Current() *models.AccessPolicy {
	return s.current.Load()
}

// Swap installs a new policy atomically.
func (s *PolicyStore) Swap(policy *models.AccessPolicy) {
	if policy != nil {
		s.current.Store(policy)
	}
}
