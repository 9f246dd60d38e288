package models

import (
	"time"

	"github.com/google/uuid"
)

// AggregateRollup is one cross-tenant rollup record produced by a single
// aggregate run. Every statistic is a pure function of the latest snapshot
// per tenant as of RunAt; nothing depends on rollup history. Records are
// never mutated and are retained for trend queries.
// AggregateRollup 表示一次聚合计算产生的跨租户汇总记录，只写不改。
type AggregateRollup struct {
	ID    uint      `json:"-" gorm:"primaryKey"`
	RunID uuid.UUID `json:"run_id" gorm:"type:uuid;uniqueIndex"`

	// RunAt is the instant the rollup was computed for; the record key.
	RunAt time.Time `json:"run_at" gorm:"uniqueIndex"`

	// TenantCount is the number of tenants included, recorded so consumers
	// can judge rollup reliability when the population is small.
	TenantCount int64 `json:"tenant_count"`

	MeanComplianceScore   float64 `json:"mean_compliance_score"`
	MedianComplianceScore float64 `json:"median_compliance_score"`
	MinComplianceScore    float64 `json:"min_compliance_score"`
	MaxComplianceScore    float64 `json:"max_compliance_score"`

	// LowestComplianceAgency names the agency with the lowest score in the
	// included set; label/agency names are the only textual fields retained.
	LowestComplianceAgency string `json:"lowest_compliance_agency" gorm:"size:64"`

	MeanLabelCoveragePct     float64 `json:"mean_label_coverage_pct"`
	MeanRetentionCoveragePct float64 `json:"mean_retention_coverage_pct"`

	TotalDlpIncidents30d int64 `json:"total_dlp_incidents_30d"`
	TotalDlpIncidents60d int64 `json:"total_dlp_incidents_60d"`
	TotalDlpIncidents90d int64 `json:"total_dlp_incidents_90d"`

	TotalExternalSharing int64 `json:"total_external_sharing"`

	TotalInsiderRiskHigh   int64 `json:"total_insider_risk_high"`
	TotalInsiderRiskMedium int64 `json:"total_insider_risk_medium"`
	TotalInsiderRiskLow    int64 `json:"total_insider_risk_low"`
	TotalInsiderRiskTotal  int64 `json:"total_insider_risk_total"`

	CreatedAt time.Time `json:"-"`
}

// TableName overrides the table name used by GORM.
func (AggregateRollup) TableName() string {
	return "aggregate_rollups"
}
