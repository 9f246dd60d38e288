package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

// Validation rule names reported to callers.
const (
	RuleRequired = "required"
	RuleType     = "type"
	RuleRange    = "range"
	RulePattern  = "pattern"
)

var tenantIDPattern = regexp.MustCompile(`^[0-9a-fA-F-]{36}$`)

// SnapshotValidator checks an inbound payload against the posture snapshot
// contract. Validation is total and side-effect-free: it either produces a
// typed snapshot or a ValidationFailed error naming the first offending
// field and the violated rule. Unknown fields are ignored for forward
// compatibility.
type SnapshotValidator struct {
	logger logger.Logger
}

// NewSnapshotValidator creates a validator.
func NewSnapshotValidator(log logger.Logger) *SnapshotValidator {
	return &SnapshotValidator{logger: log.WithComponent("snapshot_validator")}
}

// rawSnapshot mirrors the wire shape with pointer fields so missing and
// zero-valued fields are distinguishable.
type rawSnapshot struct {
	TenantID                *string          `json:"tenant_id"`
	AgencyID                *string          `json:"agency_id"`
	Timestamp               *string          `json:"timestamp"`
	LabelCoveragePct        *float64         `json:"label_coverage_pct"`
	UnlabeledSensitiveCount *int64           `json:"unlabeled_sensitive_count"`
	DlpIncidents30d         *int64           `json:"dlp_incidents_30d"`
	DlpIncidents60d         *int64           `json:"dlp_incidents_60d"`
	DlpIncidents90d         *int64           `json:"dlp_incidents_90d"`
	ExternalSharingCount    *int64           `json:"external_sharing_count"`
	RetentionPolicyCount    *int64           `json:"retention_policy_count"`
	RetentionCoveragePct    *float64         `json:"retention_coverage_pct"`
	InsiderRiskHigh         *int64           `json:"insider_risk_high"`
	InsiderRiskMedium       *int64           `json:"insider_risk_medium"`
	InsiderRiskLow          *int64           `json:"insider_risk_low"`
	InsiderRiskTotal        *int64           `json:"insider_risk_total"`
	LabelTaxonomy           *[]rawLabel      `json:"label_taxonomy"`
	ComplianceScoreCurrent  *float64         `json:"compliance_score_current"`
	ComplianceScoreMax      *float64         `json:"compliance_score_max"`
	Assessments             *[]rawAssessment `json:"assessments"`
	ActionsImplemented      *int64           `json:"improvement_actions_implemented"`
	ActionsPlanned          *int64           `json:"improvement_actions_planned"`
	ActionsNotStarted       *int64           `json:"improvement_actions_not_started"`
	CollectorVersion        *string          `json:"collector_version"`
}

type rawLabel struct {
	LabelID       *string `json:"label_id"`
	LabelName     *string `json:"label_name"`
	ParentLabelID string  `json:"parent_label_id"`
	Description   string  `json:"description"`
}

type rawAssessment struct {
	AssessmentID    *string  `json:"assessment_id"`
	Regulation      *string  `json:"regulation"`
	DisplayName     string   `json:"display_name"`
	ComplianceScore *float64 `json:"compliance_score"`
	PassedControls  *int64   `json:"passed_controls"`
	FailedControls  *int64   `json:"failed_controls"`
	TotalControls   *int64   `json:"total_controls"`
}

// Validate decodes and validates a raw JSON payload into a typed snapshot.
func (v *SnapshotValidator) Validate(ctx context.Context, data []byte) (*models.PostureSnapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok && typeErr.Field != "" {
			return nil, errors.ErrValidationFailed(typeErr.Field, RuleType).WithCause(err)
		}
		return nil, errors.ErrValidationFailed("body", RuleType).WithCause(err)
	}

	// Field checks run in the declared wire order so the reported failure is
	// always the first offending field.
	checks := []struct {
		field string
		check func() error
	}{
		{"tenant_id", func() error { return requireTenantID(raw.TenantID) }},
		{"agency_id", func() error { return requireBoundedString(raw.AgencyID, 1, 64) }},
		{"timestamp", func() error { return requireTimestamp(raw.Timestamp) }},
		{"label_coverage_pct", func() error { return requirePct(raw.LabelCoveragePct) }},
		{"unlabeled_sensitive_count", func() error { return requireCount(raw.UnlabeledSensitiveCount) }},
		{"dlp_incidents_30d", func() error { return requireCount(raw.DlpIncidents30d) }},
		{"dlp_incidents_60d", func() error { return requireCount(raw.DlpIncidents60d) }},
		{"dlp_incidents_90d", func() error { return requireCount(raw.DlpIncidents90d) }},
		{"external_sharing_count", func() error { return requireCount(raw.ExternalSharingCount) }},
		{"retention_policy_count", func() error { return requireCount(raw.RetentionPolicyCount) }},
		{"retention_coverage_pct", func() error { return requirePct(raw.RetentionCoveragePct) }},
		{"insider_risk_high", func() error { return requireCount(raw.InsiderRiskHigh) }},
		{"insider_risk_medium", func() error { return requireCount(raw.InsiderRiskMedium) }},
		{"insider_risk_low", func() error { return requireCount(raw.InsiderRiskLow) }},
		{"insider_risk_total", func() error { return requireInsiderTotal(&raw) }},
		{"label_taxonomy", func() error { return requireTaxonomy(raw.LabelTaxonomy) }},
		{"compliance_score_current", func() error { return requireScore(raw.ComplianceScoreCurrent) }},
		{"compliance_score_max", func() error { return requireScore(raw.ComplianceScoreMax) }},
		{"assessments", func() error { return requireAssessments(raw.Assessments) }},
		{"improvement_actions_implemented", func() error { return requireCount(raw.ActionsImplemented) }},
		{"improvement_actions_planned", func() error { return requireCount(raw.ActionsPlanned) }},
		{"improvement_actions_not_started", func() error { return requireCount(raw.ActionsNotStarted) }},
		{"collector_version", func() error { return requireBoundedString(raw.CollectorVersion, 1, 32) }},
	}
	for _, c := range checks {
		if err := c.check(); err != nil {
			if fieldErr, ok := err.(*fieldError); ok {
				return nil, errors.ErrValidationFailed(fieldErr.qualify(c.field), fieldErr.rule)
			}
			return nil, errors.ErrValidationFailed(c.field, RuleType).WithCause(err)
		}
	}

	snapshot := raw.toModel()
	snapshot.DeriveScorePct()

	// Soft invariant: longer DLP windows should dominate shorter ones.
	// Advisory only; accepted and logged, never rejected.
	if !snapshot.DlpWindowsMonotonic() {
		v.logger.Warn(ctx, "DLP incident windows are not monotonic",
			logger.String("tenant_id", snapshot.TenantID),
			logger.Int64("dlp_incidents_30d", snapshot.DlpIncidents30d),
			logger.Int64("dlp_incidents_60d", snapshot.DlpIncidents60d),
			logger.Int64("dlp_incidents_90d", snapshot.DlpIncidents90d),
		)
	}

	return snapshot, nil
}

func (raw *rawSnapshot) toModel() *models.PostureSnapshot {
	ts, _ := time.Parse(time.RFC3339, *raw.Timestamp)

	taxonomy := make(models.LabelTaxonomy, 0, len(*raw.LabelTaxonomy))
	for _, l := range *raw.LabelTaxonomy {
		taxonomy = append(taxonomy, models.LabelTaxonomyEntry{
			LabelID:       *l.LabelID,
			LabelName:     *l.LabelName,
			ParentLabelID: l.ParentLabelID,
			Description:   l.Description,
		})
	}

	assessments := make(models.AssessmentList, 0, len(*raw.Assessments))
	for _, a := range *raw.Assessments {
		assessments = append(assessments, models.Assessment{
			AssessmentID:    *a.AssessmentID,
			Regulation:      *a.Regulation,
			DisplayName:     a.DisplayName,
			ComplianceScore: *a.ComplianceScore,
			PassedControls:  *a.PassedControls,
			FailedControls:  *a.FailedControls,
			TotalControls:   *a.TotalControls,
		})
	}

	return &models.PostureSnapshot{
		TenantID:                      *raw.TenantID,
		AgencyID:                      *raw.AgencyID,
		SnapshotAt:                    ts.UTC(),
		LabelCoveragePct:              *raw.LabelCoveragePct,
		UnlabeledSensitiveCount:       *raw.UnlabeledSensitiveCount,
		DlpIncidents30d:               *raw.DlpIncidents30d,
		DlpIncidents60d:               *raw.DlpIncidents60d,
		DlpIncidents90d:               *raw.DlpIncidents90d,
		ExternalSharingCount:          *raw.ExternalSharingCount,
		RetentionPolicyCount:          *raw.RetentionPolicyCount,
		RetentionCoveragePct:          *raw.RetentionCoveragePct,
		InsiderRiskHigh:               *raw.InsiderRiskHigh,
		InsiderRiskMedium:             *raw.InsiderRiskMedium,
		InsiderRiskLow:                *raw.InsiderRiskLow,
		InsiderRiskTotal:              *raw.InsiderRiskTotal,
		LabelTaxonomy:                 taxonomy,
		ComplianceScoreCurrent:        *raw.ComplianceScoreCurrent,
		ComplianceScoreMax:            *raw.ComplianceScoreMax,
		Assessments:                   assessments,
		ImprovementActionsImplemented: *raw.ActionsImplemented,
		ImprovementActionsPlanned:     *raw.ActionsPlanned,
		ImprovementActionsNotStarted:  *raw.ActionsNotStarted,
		CollectorVersion:              *raw.CollectorVersion,
	}
}

// fieldError carries a rule violation, optionally qualified with a nested
// entry path (e.g. "assessments[2].passed_controls").
type fieldError struct {
	rule string
	path string
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("violates %s", e.rule)
}

func (e *fieldError) qualify(field string) string {
	if e.path == "" {
		return field
	}
	return field + e.path
}

func violation(rule string) *fieldError {
	return &fieldError{rule: rule}
}

func nestedViolation(rule, path string) *fieldError {
	return &fieldError{rule: rule, path: path}
}

func requireTenantID(v *string) error {
	if v == nil {
		return violation(RuleRequired)
	}
	if !tenantIDPattern.MatchString(*v) {
		return violation(RulePattern)
	}
	return nil
}

func requireBoundedString(v *string, minLen, maxLen int) error {
	if v == nil {
		return violation(RuleRequired)
	}
	if len(*v) < minLen || len(*v) > maxLen {
		return violation(RuleRange)
	}
	return nil
}

func requireTimestamp(v *string) error {
	if v == nil {
		return violation(RuleRequired)
	}
	if _, err := time.Parse(time.RFC3339, *v); err != nil {
		return violation(RulePattern)
	}
	return nil
}

func requireCount(v *int64) error {
	if v == nil {
		return violation(RuleRequired)
	}
	if *v < 0 {
		return violation(RuleRange)
	}
	return nil
}

func requirePct(v *float64) error {
	if v == nil {
		return violation(RuleRequired)
	}
	if *v < 0 || *v > 100 {
		return violation(RuleRange)
	}
	return nil
}

func requireScore(v *float64) error {
	if v == nil {
		return violation(RuleRequired)
	}
	if *v < 0 {
		return violation(RuleRange)
	}
	return nil
}

// requireInsiderTotal enforces the hard invariant that the total equals the
// sum of its severity buckets.
func requireInsiderTotal(raw *rawSnapshot) error {
	if err := requireCount(raw.InsiderRiskTotal); err != nil {
		return err
	}
	if raw.InsiderRiskHigh == nil || raw.InsiderRiskMedium == nil || raw.InsiderRiskLow == nil {
		return nil // the missing bucket is reported by its own check
	}
	if *raw.InsiderRiskTotal != *raw.InsiderRiskHigh+*raw.InsiderRiskMedium+*raw.InsiderRiskLow {
		return violation(RuleRange)
	}
	return nil
}

// requireTaxonomy validates each taxonomy entry independently; one bad
// entry fails the whole request so stored snapshots stay internally
// complete.
func requireTaxonomy(entries *[]rawLabel) error {
	if entries == nil {
		return violation(RuleRequired)
	}
	for i, l := range *entries {
		if l.LabelID == nil || *l.LabelID == "" {
			return nestedViolation(RuleRequired, fmt.Sprintf("[%d].label_id", i))
		}
		if l.LabelName == nil {
			return nestedViolation(RuleRequired, fmt.Sprintf("[%d].label_name", i))
		}
	}
	return nil
}

func requireAssessments(entries *[]rawAssessment) error {
	if entries == nil {
		return violation(RuleRequired)
	}
	for i, a := range *entries {
		if a.AssessmentID == nil || *a.AssessmentID == "" {
			return nestedViolation(RuleRequired, fmt.Sprintf("[%d].assessment_id", i))
		}
		if a.Regulation == nil {
			return nestedViolation(RuleRequired, fmt.Sprintf("[%d].regulation", i))
		}
		if a.ComplianceScore == nil {
			return nestedViolation(RuleRequired, fmt.Sprintf("[%d].compliance_score", i))
		}
		if *a.ComplianceScore < 0 {
			return nestedViolation(RuleRange, fmt.Sprintf("[%d].compliance_score", i))
		}
		for _, c := range []struct {
			name  string
			value *int64
		}{
			{"passed_controls", a.PassedControls},
			{"failed_controls", a.FailedControls},
			{"total_controls", a.TotalControls},
		} {
			if c.value == nil {
				return nestedViolation(RuleRequired, fmt.Sprintf("[%d].%s", i, c.name))
			}
			if *c.value < 0 {
				return nestedViolation(RuleRange, fmt.Sprintf("[%d].%s", i, c.name))
			}
		}
	}
	return nil
}
