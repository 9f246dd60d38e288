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

// LabelMapRepoImpl implements the append-only label normalization map on
// PostgreSQL. The (tenant_id, raw_name) unique index gives first-writer-wins
// semantics under concurrent recording.
type LabelMapRepoImpl struct {
	db      *gorm.DB
	timeout time.Duration
	logger  logger.Logger
}

// NewLabelMapRepository creates a label map repository.
func NewLabelMapRepository(db *gorm.DB, timeout time.Duration, log logger.Logger) repository.LabelMapRepository {
	return &LabelMapRepoImpl{
		db:      db,
		timeout: timeout,
		logger:  log.WithComponent("label_map_repo"),
	}
}

// Find returns the recorded mapping for (tenant, raw name).
func (r *LabelMapRepoImpl) Find(ctx context.Context, tenantID, rawName string) (*models.LabelMapping, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var mapping models.LabelMapping
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND raw_name = ?", tenantID, rawName).
		First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound("label mapping")
		}
		return nil, apperrors.ErrStorageUnavailable("label map find").WithCause(err)
	}
	return &mapping, nil
}

// Record persists a mapping. When a concurrent writer got there first, the
// stored mapping is read back and returned; the attempted tier is discarded.
func (r *LabelMapRepoImpl) Record(ctx context.Context, mapping *models.LabelMapping) (*models.LabelMapping, error) {
	writeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(writeCtx).Create(mapping).Error
	if err == nil {
		return mapping, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.Find(ctx, mapping.TenantID, mapping.RawName)
	}
	return nil, apperrors.ErrStorageUnavailable("label map record").WithCause(err)
}

// FindAllForTenant returns every recorded mapping for a tenant.
func (r *LabelMapRepoImpl) FindAllForTenant(ctx context.Context, tenantID string) ([]*models.LabelMapping, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var mappings []*models.LabelMapping
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("raw_name ASC").
		Find(&mappings).Error
	if err != nil {
		return nil, apperrors.ErrStorageUnavailable("label map list").WithCause(err)
	}
	return mappings, nil
}
