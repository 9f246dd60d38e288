package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/internal/domain/repository"
	apperrors "github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

// RollupRepoImpl implements RollupRepository on PostgreSQL.
type RollupRepoImpl struct {
	db      *gorm.DB
	timeout time.Duration
	logger  logger.Logger
}

// NewRollupRepository creates a rollup repository.
func NewRollupRepository(db *gorm.DB, timeout time.Duration, log logger.Logger) repository.RollupRepository {
	return &RollupRepoImpl{
		db:      db,
		timeout: timeout,
		logger:  log.WithComponent("rollup_repo"),
	}
}

// Save persists one rollup record. The single-row insert is atomic: a
// cancelled or failed run leaves no partial record.
func (r *RollupRepoImpl) Save(ctx context.Context, rollup *models.AggregateRollup) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(rollup).Error; err != nil {
		r.logger.Error(ctx, "Failed to persist rollup", err,
			logger.Time("run_at", rollup.RunAt),
		)
		return apperrors.ErrStorageUnavailable("rollup save").WithCause(err)
	}

	r.logger.Info(ctx, "Rollup persisted",
		logger.String("run_id", rollup.RunID.String()),
		logger.Time("run_at", rollup.RunAt),
		logger.Int64("tenant_count", rollup.TenantCount),
	)
	return nil
}

// Latest returns the most recent rollup.
func (r *RollupRepoImpl) Latest(ctx context.Context) (*models.AggregateRollup, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rollup models.AggregateRollup
	err := r.db.WithContext(ctx).Order("run_at DESC").First(&rollup).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound("aggregate rollup")
		}
		return nil, apperrors.ErrStorageUnavailable("rollup latest").WithCause(err)
	}
	return &rollup, nil
}

// History returns the most recent rollups, newest first.
func (r *RollupRepoImpl) History(ctx context.Context, limit int) ([]*models.AggregateRollup, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 30
	}
	var rollups []*models.AggregateRollup
	err := r.db.WithContext(ctx).Order("run_at DESC").Limit(limit).Find(&rollups).Error
	if err != nil {
		return nil, apperrors.ErrStorageUnavailable("rollup history").WithCause(err)
	}
	return rollups, nil
}
