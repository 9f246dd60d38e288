package dto

import (
	"time"

	"github.com/stategrc/posturehub/internal/domain/models"
)

// ContextDocument is the bounded numeric/textual document served to the
// summarization consumer. Agency names, label names, and regulation names are
// the only textual content; tenant-submitted free text never appears.
type ContextDocument struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Rollup      RollupStats     `json:"rollup"`
	Tenants     []TenantPosture `json:"tenants"`
}

// RollupStats is the cross-tenant portion of the document.
type RollupStats struct {
	RunAt                    time.Time `json:"run_at"`
	TenantCount              int64     `json:"tenant_count"`
	MeanComplianceScore      float64   `json:"mean_compliance_score"`
	MedianComplianceScore    float64   `json:"median_compliance_score"`
	MinComplianceScore       float64   `json:"min_compliance_score"`
	MaxComplianceScore       float64   `json:"max_compliance_score"`
	LowestComplianceAgency   string    `json:"lowest_compliance_agency"`
	MeanLabelCoveragePct     float64   `json:"mean_label_coverage_pct"`
	MeanRetentionCoveragePct float64   `json:"mean_retention_coverage_pct"`
	TotalDlpIncidents30d     int64     `json:"total_dlp_incidents_30d"`
	TotalDlpIncidents60d     int64     `json:"total_dlp_incidents_60d"`
	TotalDlpIncidents90d     int64     `json:"total_dlp_incidents_90d"`
	TotalExternalSharing     int64     `json:"total_external_sharing"`
	TotalInsiderRiskHigh     int64     `json:"total_insider_risk_high"`
	TotalInsiderRiskMedium   int64     `json:"total_insider_risk_medium"`
	TotalInsiderRiskLow      int64     `json:"total_insider_risk_low"`
}

// TenantPosture is one tenant's latest posture within the document.
type TenantPosture struct {
	TenantID                string           `json:"tenant_id"`
	AgencyID                string           `json:"agency_id"`
	SnapshotAt              time.Time        `json:"snapshot_at"`
	ComplianceScorePct      float64          `json:"compliance_score_pct"`
	LabelCoveragePct        float64          `json:"label_coverage_pct"`
	UnlabeledSensitiveCount int64            `json:"unlabeled_sensitive_count"`
	RetentionCoveragePct    float64          `json:"retention_coverage_pct"`
	DlpIncidents30d         int64            `json:"dlp_incidents_30d"`
	DlpIncidents90d         int64            `json:"dlp_incidents_90d"`
	ExternalSharingCount    int64            `json:"external_sharing_count"`
	InsiderRiskHigh         int64            `json:"insider_risk_high"`
	InsiderRiskTotal        int64            `json:"insider_risk_total"`
	TierDistribution        map[string]int   `json:"tier_distribution"`
	Assessments             []AssessmentView `json:"assessments,omitempty"`
	CollectorVersion        string           `json:"collector_version,omitempty"`
}

// AssessmentView is one assessment row within a tenant's posture.
type AssessmentView struct {
	Regulation      string  `json:"regulation"`
	DisplayName     string  `json:"display_name"`
	ComplianceScore float64 `json:"compliance_score"`
	PassRatePct     float64 `json:"pass_rate_pct"`
}

// NewRollupStats maps a rollup record to the document shape.
func NewRollupStats(rollup *models.AggregateRollup) RollupStats {
	return RollupStats{
		RunAt:                    rollup.RunAt,
		TenantCount:              rollup.TenantCount,
		MeanComplianceScore:      rollup.MeanComplianceScore,
		MedianComplianceScore:    rollup.MedianComplianceScore,
		MinComplianceScore:       rollup.MinComplianceScore,
		MaxComplianceScore:       rollup.MaxComplianceScore,
		LowestComplianceAgency:   rollup.LowestComplianceAgency,
		MeanLabelCoveragePct:     rollup.MeanLabelCoveragePct,
		MeanRetentionCoveragePct: rollup.MeanRetentionCoveragePct,
		TotalDlpIncidents30d:     rollup.TotalDlpIncidents30d,
		TotalDlpIncidents60d:     rollup.TotalDlpIncidents60d,
		TotalDlpIncidents90d:     rollup.TotalDlpIncidents90d,
		TotalExternalSharing:     rollup.TotalExternalSharing,
		TotalInsiderRiskHigh:     rollup.TotalInsiderRiskHigh,
		TotalInsiderRiskMedium:   rollup.TotalInsiderRiskMedium,
		TotalInsiderRiskLow:      rollup.TotalInsiderRiskLow,
	}
}
