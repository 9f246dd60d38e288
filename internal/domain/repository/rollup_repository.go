package repository

import (
	"context"

	"github.com/stategrc/posturehub/internal/domain/models"
)

// RollupRepository stores aggregate rollup records, keyed by run timestamp.
type RollupRepository interface {
	// Save persists one rollup record atomically; a rollup is stored whole
	// or not at all.
	Save(ctx context.Context, rollup *models.AggregateRollup) error

	// Latest returns the most recent rollup, or a NotFound error when no
	// run has completed yet.
	Latest(ctx context.Context) (*models.AggregateRollup, error)

	// History returns the most recent rollups, newest first, capped at
	// limit. Used for trend queries.
	History(ctx context.Context, limit int) ([]*models.AggregateRollup, error)
}
