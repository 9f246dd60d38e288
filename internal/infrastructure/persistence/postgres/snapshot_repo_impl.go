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

// SnapshotRepoImpl implements SnapshotRepository on PostgreSQL. The
// (tenant_id, snapshot_at) unique index makes the duplicate check atomic
// under concurrent writers.
type SnapshotRepoImpl struct {
	db      *gorm.DB
	timeout time.Duration
	logger  logger.Logger
}

// NewSnapshotRepository creates a snapshot repository. Every call carries
// the configured bounded timeout.
func NewSnapshotRepository(db *gorm.DB, timeout time.Duration, log logger.Logger) repository.SnapshotRepository {
	return &SnapshotRepoImpl{
		db:      db,
		timeout: timeout,
		logger:  log.WithComponent("snapshot_repo"),
	}
}

// Put writes the snapshot and its assessment summaries in one transaction;
// either everything is stored or nothing is.
func (r *SnapshotRepoImpl) Put(ctx context.Context, snapshot *models.PostureSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(snapshot).Error; err != nil {
			return err
		}
		summaries := summariesFor(snapshot)
		if len(summaries) == 0 {
			return nil
		}
		return tx.Create(&summaries).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.logger.Warn(ctx, "Duplicate snapshot rejected",
				logger.String("tenant_id", snapshot.TenantID),
				logger.Time("snapshot_at", snapshot.SnapshotAt),
			)
			return apperrors.ErrWriteConflict(snapshot.TenantID, snapshot.SnapshotAt.Format(time.RFC3339))
		}
		r.logger.Error(ctx, "Failed to store snapshot", err,
			logger.String("tenant_id", snapshot.TenantID),
		)
		return apperrors.ErrStorageUnavailable("snapshot put").WithCause(err)
	}

	r.logger.Info(ctx, "Snapshot stored",
		logger.String("tenant_id", snapshot.TenantID),
		logger.String("agency_id", snapshot.AgencyID),
		logger.Time("snapshot_at", snapshot.SnapshotAt),
	)
	return nil
}

// Latest returns the most recent snapshot for a tenant.
func (r *SnapshotRepoImpl) Latest(ctx context.Context, tenantID string) (*models.PostureSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var snapshot models.PostureSnapshot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("snapshot_at DESC").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound("snapshot").WithDetail("tenant_id", tenantID)
		}
		return nil, apperrors.ErrStorageUnavailable("snapshot latest").WithCause(err)
	}
	return &snapshot, nil
}

// AllLatest returns the latest snapshot per tenant, ordered by tenant ID so
// the result is stable for a given store state.
func (r *SnapshotRepoImpl) AllLatest(ctx context.Context) ([]*models.PostureSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var snapshots []*models.PostureSnapshot
	err := r.db.WithContext(ctx).
		Joins(`JOIN (SELECT tenant_id, MAX(snapshot_at) AS max_at
		       FROM posture_snapshots GROUP BY tenant_id) latest
		       ON posture_snapshots.tenant_id = latest.tenant_id
		       AND posture_snapshots.snapshot_at = latest.max_at`).
		Order("posture_snapshots.tenant_id ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, apperrors.ErrStorageUnavailable("snapshot all-latest").WithCause(err)
	}
	return snapshots, nil
}

// Window returns a tenant's snapshots in the half-open range [since, until).
func (r *SnapshotRepoImpl) Window(ctx context.Context, tenantID string, since, until time.Time) ([]*models.PostureSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var snapshots []*models.PostureSnapshot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND snapshot_at >= ? AND snapshot_at < ?", tenantID, since, until).
		Order("snapshot_at ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, apperrors.ErrStorageUnavailable("snapshot window").WithCause(err)
	}
	return snapshots, nil
}

// AssessmentSummaries returns the summaries belonging to each tenant's
// latest snapshot, optionally filtered to one tenant.
func (r *SnapshotRepoImpl) AssessmentSummaries(ctx context.Context, tenantID string) ([]*models.AssessmentSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := r.db.WithContext(ctx).
		Joins(`JOIN (SELECT tenant_id, MAX(snapshot_at) AS max_at
		       FROM assessment_summaries GROUP BY tenant_id) latest
		       ON assessment_summaries.tenant_id = latest.tenant_id
		       AND assessment_summaries.snapshot_at = latest.max_at`).
		Order("assessment_summaries.tenant_id ASC, assessment_summaries.assessment_id ASC")
	if tenantID != "" {
		query = query.Where("assessment_summaries.tenant_id = ?", tenantID)
	}

	var summaries []*models.AssessmentSummary
	if err := query.Find(&summaries).Error; err != nil {
		return nil, apperrors.ErrStorageUnavailable("assessment summaries").WithCause(err)
	}
	return summaries, nil
}

func summariesFor(snapshot *models.PostureSnapshot) []*models.AssessmentSummary {
	summaries := make([]*models.AssessmentSummary, 0, len(snapshot.Assessments))
	for _, a := range snapshot.Assessments {
		summaries = append(summaries, &models.AssessmentSummary{
			TenantID:        snapshot.TenantID,
			AgencyID:        snapshot.AgencyID,
			AssessmentID:    a.AssessmentID,
			Regulation:      a.Regulation,
			DisplayName:     a.DisplayName,
			ComplianceScore: a.ComplianceScore,
			PassedControls:  a.PassedControls,
			FailedControls:  a.FailedControls,
			TotalControls:   a.TotalControls,
			PassRatePct:     a.PassRate(),
			SnapshotAt:      snapshot.SnapshotAt,
		})
	}
	return summaries
}
