// Package repository defines the persistence interfaces of the domain layer.
package repository

import (
	"context"
	"time"

	"github.com/stategrc/posturehub/internal/domain/models"
)

// SnapshotRepository is the durable, append-oriented store of posture
// snapshots, keyed by (tenant, timestamp).
type SnapshotRepository interface {
	// Put writes a new immutable snapshot together with its flattened
	// assessment summaries in one transaction. A snapshot already stored for
	// the same (tenant, timestamp) pair fails with a WriteConflict error and
	// is left untouched; timestamps are producer-supplied, so a collision
	// indicates a retried or duplicate request.
	Put(ctx context.Context, snapshot *models.PostureSnapshot) error

	// Latest returns the snapshot with the greatest timestamp for a tenant,
	// or a NotFound error.
	Latest(ctx context.Context, tenantID string) (*models.PostureSnapshot, error)

	// AllLatest returns one snapshot per tenant, the latest for each,
	// ordered by tenant ID so the result is stable for a given store state.
	AllLatest(ctx context.Context) ([]*models.PostureSnapshot, error)

	// Window returns all snapshots for a tenant in the half-open range
	// [since, until), ordered by timestamp ascending.
	Window(ctx context.Context, tenantID string, since, until time.Time) ([]*models.PostureSnapshot, error)

	// AssessmentSummaries returns the summaries written with the latest
	// snapshot of each tenant, optionally filtered to a single tenant.
	AssessmentSummaries(ctx context.Context, tenantID string) ([]*models.AssessmentSummary, error)
}
