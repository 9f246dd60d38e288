package service

import (
	"context"
	"sort"
	"time"

	"github.com/stategrc/posturehub/internal/application/dto"
	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/internal/domain/repository"
	"github.com/stategrc/posturehub/pkg/logger"
)

// ContextAppService assembles the bounded context document served to the
// summarization consumer: the latest rollup plus per-tenant posture
// summaries. Tenants are ordered worst-compliance-first and capped so the
// document size is bounded regardless of population. Tenant-submitted free
// text (label descriptions and the like) never enters the document.
type ContextAppService struct {
	snapshots repository.SnapshotRepository
	rollups   repository.RollupRepository
	tenantCap int
	logger    logger.Logger
}

// NewContextAppService creates the context builder.
func NewContextAppService(
	snapshots repository.SnapshotRepository,
	rollups repository.RollupRepository,
	tenantCap int,
	log logger.Logger,
) *ContextAppService {
	if tenantCap <= 0 {
		tenantCap = 20
	}
	return &ContextAppService{
		snapshots: snapshots,
		rollups:   rollups,
		tenantCap: tenantCap,
		logger:    log.WithComponent("context_service"),
	}
}

// Build assembles the document, optionally filtered to one tenant. A missing
// rollup propagates as NotFound: no rollup means no document.
func (s *ContextAppService) Build(ctx context.Context, tenantID string) (*dto.ContextDocument, error) {
	rollup, err := s.rollups.Latest(ctx)
	if err != nil {
		return nil, err
	}

	var latest []*models.PostureSnapshot
	if tenantID != "" {
		snap, err := s.snapshots.Latest(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		latest = []*models.PostureSnapshot{snap}
	} else {
		latest, err = s.snapshots.AllLatest(ctx)
		if err != nil {
			return nil, err
		}
	}

	// Worst compliance first so a capped document keeps the tenants that
	// most need attention. Tenant ID breaks ties for a stable order.
	sort.SliceStable(latest, func(i, j int) bool {
		if latest[i].ComplianceScorePct != latest[j].ComplianceScorePct {
			return latest[i].ComplianceScorePct < latest[j].ComplianceScorePct
		}
		return latest[i].TenantID < latest[j].TenantID
	})
	if len(latest) > s.tenantCap {
		latest = latest[:s.tenantCap]
	}

	tenants := make([]dto.TenantPosture, 0, len(latest))
	for _, snap := range latest {
		tenants = append(tenants, tenantPosture(snap))
	}

	s.logger.Debug(ctx, "Context document assembled",
		logger.Int("tenant_count", len(tenants)),
		logger.Time("rollup_run_at", rollup.RunAt),
	)

	return &dto.ContextDocument{
		GeneratedAt: time.Now().UTC(),
		Rollup:      dto.NewRollupStats(rollup),
		Tenants:     tenants,
	}, nil
}

func tenantPosture(snap *models.PostureSnapshot) dto.TenantPosture {
	tiers := make(map[string]int, 5)
	for _, entry := range snap.LabelTaxonomy {
		tiers[string(entry.NormalizedTier)]++
	}

	assessments := make([]dto.AssessmentView, 0, len(snap.Assessments))
	for i := range snap.Assessments {
		a := &snap.Assessments[i]
		assessments = append(assessments, dto.AssessmentView{
			Regulation:      a.Regulation,
			DisplayName:     a.DisplayName,
			ComplianceScore: a.ComplianceScore,
			PassRatePct:     a.PassRate(),
		})
	}

	return dto.TenantPosture{
		TenantID:                snap.TenantID,
		AgencyID:                snap.AgencyID,
		SnapshotAt:              snap.SnapshotAt,
		ComplianceScorePct:      snap.ComplianceScorePct,
		LabelCoveragePct:        snap.LabelCoveragePct,
		UnlabeledSensitiveCount: snap.UnlabeledSensitiveCount,
		RetentionCoveragePct:    snap.RetentionCoveragePct,
		DlpIncidents30d:         snap.DlpIncidents30d,
		DlpIncidents90d:         snap.DlpIncidents90d,
		ExternalSharingCount:    snap.ExternalSharingCount,
		InsiderRiskHigh:         snap.InsiderRiskHigh,
		InsiderRiskTotal:        snap.InsiderRiskTotal,
		TierDistribution:        tiers,
		Assessments:             assessments,
		CollectorVersion:        snap.CollectorVersion,
	}
}
