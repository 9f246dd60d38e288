package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/internal/infrastructure/monitoring"
	"github.com/stategrc/posturehub/pkg/errors"
)

// One registration per test binary; promauto metrics live in the default
// registry.
var testMetrics = monitoring.NewMetrics()

// fakeSnapshotRepo is an in-memory SnapshotRepository keyed by
// (tenant, timestamp).
type fakeSnapshotRepo struct {
	mu        sync.Mutex
	snapshots map[string][]*models.PostureSnapshot
	putErr    error
	puts      int
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{snapshots: make(map[string][]*models.PostureSnapshot)}
}

func (r *fakeSnapshotRepo) Put(_ context.Context, snapshot *models.PostureSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.puts++
	if r.putErr != nil {
		return r.putErr
	}
	for _, existing := range r.snapshots[snapshot.TenantID] {
		if existing.SnapshotAt.Equal(snapshot.SnapshotAt) {
			return errors.ErrWriteConflict(snapshot.TenantID, snapshot.SnapshotAt.Format(time.RFC3339))
		}
	}
	r.snapshots[snapshot.TenantID] = append(r.snapshots[snapshot.TenantID], snapshot)
	return nil
}

func (r *fakeSnapshotRepo) Latest(_ context.Context, tenantID string) (*models.PostureSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	history := r.snapshots[tenantID]
	if len(history) == 0 {
		return nil, errors.ErrNotFound("snapshot")
	}
	latest := history[0]
	for _, s := range history[1:] {
		if s.SnapshotAt.After(latest.SnapshotAt) {
			latest = s
		}
	}
	return latest, nil
}

func (r *fakeSnapshotRepo) AllLatest(ctx context.Context) ([]*models.PostureSnapshot, error) {
	r.mu.Lock()
	tenants := make([]string, 0, len(r.snapshots))
	for tenantID := range r.snapshots {
		tenants = append(tenants, tenantID)
	}
	r.mu.Unlock()

	sort.Strings(tenants)
	out := make([]*models.PostureSnapshot, 0, len(tenants))
	for _, tenantID := range tenants {
		latest, err := r.Latest(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		out = append(out, latest)
	}
	return out, nil
}

func (r *fakeSnapshotRepo) Window(_ context.Context, tenantID string, since, until time.Time) ([]*models.PostureSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PostureSnapshot
	for _, s := range r.snapshots[tenantID] {
		if !s.SnapshotAt.Before(since) && s.SnapshotAt.Before(until) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SnapshotAt.Before(out[j].SnapshotAt) })
	return out, nil
}

func (r *fakeSnapshotRepo) AssessmentSummaries(ctx context.Context, tenantID string) ([]*models.AssessmentSummary, error) {
	latest, err := r.AllLatest(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.AssessmentSummary
	for _, snap := range latest {
		if tenantID != "" && snap.TenantID != tenantID {
			continue
		}
		for i := range snap.Assessments {
			a := &snap.Assessments[i]
			out = append(out, &models.AssessmentSummary{
				TenantID:        snap.TenantID,
				AgencyID:        snap.AgencyID,
				AssessmentID:    a.AssessmentID,
				Regulation:      a.Regulation,
				ComplianceScore: a.ComplianceScore,
				PassRatePct:     a.PassRate(),
				SnapshotAt:      snap.SnapshotAt,
			})
		}
	}
	return out, nil
}

// fakeRollupRepo is an in-memory RollupRepository.
type fakeRollupRepo struct {
	mu      sync.Mutex
	rollups []*models.AggregateRollup
	saveErr error
	// saveHook runs inside Save, before the record is appended.
	saveHook func()
}

func (r *fakeRollupRepo) Save(_ context.Context, rollup *models.AggregateRollup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveHook != nil {
		r.saveHook()
	}
	if r.saveErr != nil {
		return r.saveErr
	}
	r.rollups = append(r.rollups, rollup)
	return nil
}

func (r *fakeRollupRepo) Latest(_ context.Context) (*models.AggregateRollup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rollups) == 0 {
		return nil, errors.ErrNotFound("aggregate rollup")
	}
	latest := r.rollups[0]
	for _, rec := range r.rollups[1:] {
		if rec.RunAt.After(latest.RunAt) {
			latest = rec
		}
	}
	return latest, nil
}

func (r *fakeRollupRepo) History(_ context.Context, limit int) ([]*models.AggregateRollup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]*models.AggregateRollup{}, r.rollups...)
	sort.Slice(out, func(i, j int) bool { return out[i].RunAt.After(out[j].RunAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func postureSnapshot(tenantID, agencyID string, at time.Time, scorePct float64) *models.PostureSnapshot {
	return &models.PostureSnapshot{
		TenantID:             tenantID,
		AgencyID:             agencyID,
		SnapshotAt:           at.UTC(),
		LabelCoveragePct:     80,
		RetentionCoveragePct: 60,
		DlpIncidents30d:      2,
		DlpIncidents60d:      4,
		DlpIncidents90d:      6,
		ExternalSharingCount: 10,
		InsiderRiskHigh:      1,
		InsiderRiskMedium:    2,
		InsiderRiskLow:       3,
		InsiderRiskTotal:     6,
		ComplianceScorePct:   scorePct,
		LabelTaxonomy: models.LabelTaxonomy{
			{LabelID: "lbl-1", LabelName: "Confidential", NormalizedTier: models.TierConfidential},
			{LabelID: "lbl-2", LabelName: "Public", NormalizedTier: models.TierPublic},
		},
		Assessments: models.AssessmentList{
			{
				AssessmentID:    "asmt-1",
				Regulation:      "NIST 800-53",
				DisplayName:     "Moderate Baseline",
				ComplianceScore: scorePct,
				PassedControls:  80,
				FailedControls:  20,
				TotalControls:   100,
			},
		},
		CollectorVersion: "2.4.1",
	}
}
