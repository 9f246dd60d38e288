package repository

import (
	"context"

	"github.com/stategrc/posturehub/internal/domain/models"
)

// LabelMapRepository is the append-only per-tenant label normalization map.
type LabelMapRepository interface {
	// Find returns the recorded tier for (tenant, raw name), or a NotFound
	// error when the pair has never been seen.
	Find(ctx context.Context, tenantID, rawName string) (*models.LabelMapping, error)

	// Record persists a mapping with first-writer-wins semantics: if a
	// concurrent writer already recorded the pair, the stored mapping is
	// returned instead of the attempted one and no error is raised. The
	// returned mapping is always the authoritative one.
	Record(ctx context.Context, mapping *models.LabelMapping) (*models.LabelMapping, error)

	// FindAllForTenant returns every recorded mapping for a tenant.
	FindAllForTenant(ctx context.Context, tenantID string) ([]*models.LabelMapping, error)
}
