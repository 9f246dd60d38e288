// Package service implements the application-layer use cases: snapshot
// ingestion, scheduled aggregation, and context document assembly.
package service

import (
	"context"
	"time"

	"github.com/stategrc/posturehub/internal/application/dto"
	"github.com/stategrc/posturehub/internal/domain/repository"
	"github.com/stategrc/posturehub/internal/domain/service"
	"github.com/stategrc/posturehub/internal/infrastructure/monitoring"
	"github.com/stategrc/posturehub/pkg/constants"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

// IngestAppService runs the validate → normalize → store pipeline for one
// ingestion request. Access control has already happened at the transport
// layer; by the time Ingest runs the caller is an approved tenant.
type IngestAppService struct {
	validator  *service.SnapshotValidator
	normalizer *service.LabelNormalizer
	snapshots  repository.SnapshotRepository
	metrics    *monitoring.Metrics
	logger     logger.Logger
}

// NewIngestAppService creates the ingestion use case.
func NewIngestAppService(
	validator *service.SnapshotValidator,
	normalizer *service.LabelNormalizer,
	snapshots repository.SnapshotRepository,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *IngestAppService {
	return &IngestAppService{
		validator:  validator,
		normalizer: normalizer,
		snapshots:  snapshots,
		metrics:    metrics,
		logger:     log.WithComponent("ingest_service"),
	}
}

// Ingest validates the payload, normalizes its label taxonomy, and stores the
// snapshot. The snapshot is rejected whole on the first validation failure;
// nothing is persisted on any error path.
func (s *IngestAppService) Ingest(ctx context.Context, payload []byte) (*dto.IngestAcceptedResponse, error) {
	start := time.Now()

	snapshot, err := s.validator.Validate(ctx, payload)
	if err != nil {
		if appErr := errors.AsAppError(err); appErr.Details["field"] != "" {
			s.metrics.RecordValidationFailure(appErr.Details["field"])
		}
		s.metrics.RecordIngest("", "validation_failed", time.Since(start))
		return nil, err
	}

	normalized, err := s.normalizer.NormalizeTaxonomy(ctx, snapshot.TenantID, snapshot.LabelTaxonomy)
	if err != nil {
		s.metrics.RecordIngest(snapshot.TenantID, "normalization_failed", time.Since(start))
		return nil, err
	}
	snapshot.LabelTaxonomy = normalized

	if err := s.snapshots.Put(ctx, snapshot); err != nil {
		result := "storage_failed"
		if errors.IsCode(err, constants.ErrCodeWriteConflict) {
			result = "conflict"
		}
		s.metrics.RecordIngest(snapshot.TenantID, result, time.Since(start))
		return nil, err
	}

	s.metrics.RecordIngest(snapshot.TenantID, "accepted", time.Since(start))
	s.logger.Info(ctx, "Snapshot ingested",
		logger.String("tenant_id", snapshot.TenantID),
		logger.String("agency_id", snapshot.AgencyID),
		logger.Float64("compliance_score_pct", snapshot.ComplianceScorePct),
		logger.Duration("elapsed", time.Since(start)),
	)

	return &dto.IngestAcceptedResponse{
		TenantID:           snapshot.TenantID,
		AgencyID:           snapshot.AgencyID,
		SnapshotAt:         snapshot.SnapshotAt,
		ComplianceScore:    snapshot.ComplianceScoreCurrent,
		ComplianceScorePct: snapshot.ComplianceScorePct,
	}, nil
}
