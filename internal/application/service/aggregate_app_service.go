package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/internal/domain/repository"
	"github.com/stategrc/posturehub/internal/infrastructure/monitoring"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

// AggregateAppService computes cross-tenant rollups. Every statistic is a
// pure function of the latest snapshot per tenant at run time; a failed or
// cancelled run writes nothing and the next run recomputes from scratch.
// Overlapping runs are rejected, never queued.
type AggregateAppService struct {
	snapshots repository.SnapshotRepository
	rollups   repository.RollupRepository
	metrics   *monitoring.Metrics
	logger    logger.Logger

	running sync.Mutex
}

// NewAggregateAppService creates the aggregation use case.
func NewAggregateAppService(
	snapshots repository.SnapshotRepository,
	rollups repository.RollupRepository,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *AggregateAppService {
	return &AggregateAppService{
		snapshots: snapshots,
		rollups:   rollups,
		metrics:   metrics,
		logger:    log.WithComponent("aggregate_service"),
	}
}

// RunOnce performs one aggregation run as of the given instant. An empty
// tenant set is skipped without producing a record; a nil rollup with nil
// error signals the skip.
func (s *AggregateAppService) RunOnce(ctx context.Context, asOf time.Time) (*models.AggregateRollup, error) {
	if !s.running.TryLock() {
		return nil, errors.ErrRunInProgress()
	}
	defer s.running.Unlock()

	start := time.Now()

	latest, err := s.snapshots.AllLatest(ctx)
	if err != nil {
		s.metrics.RecordAggregateRun("failed", time.Since(start), 0)
		return nil, errors.ErrAggregationFailed("reading latest snapshots").WithCause(err)
	}
	if len(latest) == 0 {
		s.logger.Info(ctx, "No snapshots present, skipping aggregate run",
			logger.Time("as_of", asOf),
		)
		s.metrics.RecordAggregateRun("skipped", time.Since(start), 0)
		return nil, nil
	}

	rollup := computeRollup(latest, asOf)

	// A cancelled run must leave no record behind; check before the write.
	if err := ctx.Err(); err != nil {
		s.metrics.RecordAggregateRun("cancelled", time.Since(start), 0)
		return nil, errors.ErrAggregationFailed("run cancelled").WithCause(err)
	}

	if err := s.rollups.Save(ctx, rollup); err != nil {
		s.metrics.RecordAggregateRun("failed", time.Since(start), 0)
		return nil, errors.ErrAggregationFailed("persisting rollup").WithCause(err)
	}

	s.metrics.RecordAggregateRun("success", time.Since(start), rollup.TenantCount)
	s.logger.Info(ctx, "Aggregate run completed",
		logger.String("run_id", rollup.RunID.String()),
		logger.Int64("tenant_count", rollup.TenantCount),
		logger.Float64("mean_compliance_score", rollup.MeanComplianceScore),
		logger.Duration("elapsed", time.Since(start)),
	)
	return rollup, nil
}

// computeRollup derives every rollup statistic from the latest snapshot per
// tenant. Means and the median are over included tenants; counts are sums.
func computeRollup(latest []*models.PostureSnapshot, asOf time.Time) *models.AggregateRollup {
	rollup := &models.AggregateRollup{
		RunID:       uuid.New(),
		RunAt:       asOf.UTC(),
		TenantCount: int64(len(latest)),
	}

	scores := make([]float64, 0, len(latest))
	var scoreSum, labelCovSum, retentionCovSum float64
	lowestScore := latest[0].ComplianceScorePct
	lowestAgency := latest[0].AgencyID

	for _, snap := range latest {
		score := snap.ComplianceScorePct
		scores = append(scores, score)
		scoreSum += score
		labelCovSum += snap.LabelCoveragePct
		retentionCovSum += snap.RetentionCoveragePct

		if score < lowestScore {
			lowestScore = score
			lowestAgency = snap.AgencyID
		}

		rollup.TotalDlpIncidents30d += snap.DlpIncidents30d
		rollup.TotalDlpIncidents60d += snap.DlpIncidents60d
		rollup.TotalDlpIncidents90d += snap.DlpIncidents90d
		rollup.TotalExternalSharing += snap.ExternalSharingCount
		rollup.TotalInsiderRiskHigh += snap.InsiderRiskHigh
		rollup.TotalInsiderRiskMedium += snap.InsiderRiskMedium
		rollup.TotalInsiderRiskLow += snap.InsiderRiskLow
		rollup.TotalInsiderRiskTotal += snap.InsiderRiskTotal
	}

	n := float64(len(latest))
	sort.Float64s(scores)

	rollup.MeanComplianceScore = round2(scoreSum / n)
	rollup.MedianComplianceScore = round2(median(scores))
	rollup.MinComplianceScore = scores[0]
	rollup.MaxComplianceScore = scores[len(scores)-1]
	rollup.LowestComplianceAgency = lowestAgency
	rollup.MeanLabelCoveragePct = round2(labelCovSum / n)
	rollup.MeanRetentionCoveragePct = round2(retentionCovSum / n)
	return rollup
}

// median expects a sorted slice.
func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
