package dto

import (
	"time"

	"github.com/stategrc/posturehub/internal/domain/models"
)

// RollupRunResponse summarizes a completed aggregation run.
type RollupRunResponse struct {
	RunID               string    `json:"run_id"`
	RunAt               time.Time `json:"run_at"`
	TenantCount         int64     `json:"tenant_count"`
	MeanComplianceScore float64   `json:"mean_compliance_score"`
}

// NewRollupRunResponse maps a rollup record to the trigger response.
func NewRollupRunResponse(rollup *models.AggregateRollup) RollupRunResponse {
	return RollupRunResponse{
		RunID:               rollup.RunID.String(),
		RunAt:               rollup.RunAt,
		TenantCount:         rollup.TenantCount,
		MeanComplianceScore: rollup.MeanComplianceScore,
	}
}
