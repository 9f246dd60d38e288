// Package models defines the domain models for the posture ingestion service.
// This file contains the PostureSnapshot model: one validated compliance
// posture record for one tenant at one instant.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PostureSnapshot is one ingestion event for one tenant at one instant.
// Snapshots are immutable once stored; a later snapshot for the same tenant
// supersedes but never overwrites an earlier one. "Latest" is a query, not a
// field.
// PostureSnapshot 表示一个租户在某一时刻的一条合规态势记录。
// 快照一经写入不可变更；同一租户的后续快照只追加、不覆盖。
type PostureSnapshot struct {
	ID uint `json:"-" gorm:"primaryKey"`

	// TenantID is the opaque, stable tenant identifier (36-char GUID form).
	TenantID string `json:"tenant_id" gorm:"size:36;uniqueIndex:idx_tenant_snapshot_at;index"`

	// AgencyID is the human-readable agency identifier, non-unique across time.
	AgencyID string `json:"agency_id" gorm:"size:64;index"`

	// SnapshotAt is the producer-supplied UTC instant of the snapshot.
	SnapshotAt time.Time `json:"timestamp" gorm:"uniqueIndex:idx_tenant_snapshot_at"`

	LabelCoveragePct        float64 `json:"label_coverage_pct"`
	UnlabeledSensitiveCount int64   `json:"unlabeled_sensitive_count"`

	DlpIncidents30d int64 `json:"dlp_incidents_30d"`
	DlpIncidents60d int64 `json:"dlp_incidents_60d"`
	DlpIncidents90d int64 `json:"dlp_incidents_90d"`

	ExternalSharingCount int64 `json:"external_sharing_count"`

	RetentionPolicyCount int64   `json:"retention_policy_count"`
	RetentionCoveragePct float64 `json:"retention_coverage_pct"`

	InsiderRiskHigh   int64 `json:"insider_risk_high"`
	InsiderRiskMedium int64 `json:"insider_risk_medium"`
	InsiderRiskLow    int64 `json:"insider_risk_low"`
	InsiderRiskTotal  int64 `json:"insider_risk_total"`

	// LabelTaxonomy is the ordered tenant label taxonomy as submitted,
	// annotated with normalized tiers during ingestion.
	LabelTaxonomy LabelTaxonomy `json:"label_taxonomy" gorm:"type:text"`

	ComplianceScoreCurrent float64 `json:"compliance_score_current"`
	ComplianceScoreMax     float64 `json:"compliance_score_max"`

	// ComplianceScorePct is derived from current/max at ingestion time.
	ComplianceScorePct float64 `json:"compliance_score_pct"`

	Assessments AssessmentList `json:"assessments" gorm:"type:text"`

	ImprovementActionsImplemented int64 `json:"improvement_actions_implemented"`
	ImprovementActionsPlanned     int64 `json:"improvement_actions_planned"`
	ImprovementActionsNotStarted  int64 `json:"improvement_actions_not_started"`

	CollectorVersion string `json:"collector_version" gorm:"size:32"`

	CreatedAt time.Time `json:"-"`
}

// TableName overrides the table name used by GORM.
func (PostureSnapshot) TableName() string {
	return "posture_snapshots"
}

// DeriveScorePct computes and sets the compliance score percentage.
// A zero max score yields zero rather than a division error.
func (s *PostureSnapshot) DeriveScorePct() {
	if s.ComplianceScoreMax > 0 {
		s.ComplianceScorePct = round2(s.ComplianceScoreCurrent / s.ComplianceScoreMax * 100)
		return
	}
	s.ComplianceScorePct = 0
}

// DlpWindowsMonotonic reports whether the 90d >= 60d >= 30d soft invariant
// holds. Violations are logged during validation, never rejected.
func (s *PostureSnapshot) DlpWindowsMonotonic() bool {
	return s.DlpIncidents90d >= s.DlpIncidents60d && s.DlpIncidents60d >= s.DlpIncidents30d
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// LabelTaxonomyEntry is one sensitivity label in a tenant's taxonomy.
// LabelTaxonomyEntry 表示租户标签体系中的一个敏感度标签。
type LabelTaxonomyEntry struct {
	LabelID       string `json:"label_id"`
	LabelName     string `json:"label_name"`
	ParentLabelID string `json:"parent_label_id,omitempty"`
	Description   string `json:"description,omitempty"`

	// NormalizedTier is assigned by the label normalizer during ingestion.
	NormalizedTier Tier `json:"normalized_tier,omitempty"`
}

// LabelTaxonomy is stored as a JSON column.
type LabelTaxonomy []LabelTaxonomyEntry

// Value implements driver.Valuer.
func (t LabelTaxonomy) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	return string(b), err
}

// Scan implements sql.Scanner.
func (t *LabelTaxonomy) Scan(src interface{}) error {
	return scanJSON(src, t)
}

// Assessment is one compliance assessment record submitted with a snapshot.
type Assessment struct {
	AssessmentID    string  `json:"assessment_id"`
	Regulation      string  `json:"regulation"`
	DisplayName     string  `json:"display_name"`
	ComplianceScore float64 `json:"compliance_score"`
	PassedControls  int64   `json:"passed_controls"`
	FailedControls  int64   `json:"failed_controls"`
	TotalControls   int64   `json:"total_controls"`
}

// PassRate returns the passed/total control ratio as a percentage.
func (a *Assessment) PassRate() float64 {
	if a.TotalControls <= 0 {
		return 0
	}
	return round2(float64(a.PassedControls) / float64(a.TotalControls) * 100)
}

// AssessmentList is stored as a JSON column.
type AssessmentList []Assessment

// Value implements driver.Valuer.
func (l AssessmentList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// Scan implements sql.Scanner.
func (l *AssessmentList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// AssessmentSummary is the flattened per-(tenant, assessment) row written
// alongside each snapshot and read by the context builder.
type AssessmentSummary struct {
	ID              uint      `json:"-" gorm:"primaryKey"`
	TenantID        string    `json:"tenant_id" gorm:"size:36;index"`
	AgencyID        string    `json:"agency_id" gorm:"size:64"`
	AssessmentID    string    `json:"assessment_id" gorm:"size:64"`
	Regulation      string    `json:"regulation" gorm:"size:128"`
	DisplayName     string    `json:"display_name" gorm:"size:128"`
	ComplianceScore float64   `json:"compliance_score"`
	PassedControls  int64     `json:"passed_controls"`
	FailedControls  int64     `json:"failed_controls"`
	TotalControls   int64     `json:"total_controls"`
	PassRatePct     float64   `json:"pass_rate_pct"`
	SnapshotAt      time.Time `json:"snapshot_at" gorm:"index"`
	CreatedAt       time.Time `json:"-"`
}

// TableName overrides the table name used by GORM.
func (AssessmentSummary) TableName() string {
	return "assessment_summaries"
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}
