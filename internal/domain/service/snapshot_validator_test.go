package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stategrc/posturehub/pkg/constants"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

const testTenantID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"tenant_id":                 testTenantID,
		"agency_id":                 "dept-of-records",
		"timestamp":                 "2026-08-01T06:00:00Z",
		"label_coverage_pct":        81.5,
		"unlabeled_sensitive_count": 120,
		"dlp_incidents_30d":         3,
		"dlp_incidents_60d":         7,
		"dlp_incidents_90d":         12,
		"external_sharing_count":    45,
		"retention_policy_count":    9,
		"retention_coverage_pct":    64.0,
		"insider_risk_high":         1,
		"insider_risk_medium":       4,
		"insider_risk_low":          10,
		"insider_risk_total":        15,
		"label_taxonomy": []map[string]interface{}{
			{"label_id": "lbl-1", "label_name": "Confidential - PII"},
			{"label_id": "lbl-2", "label_name": "Public", "description": "anyone"},
		},
		"compliance_score_current": 540.0,
		"compliance_score_max":     750.0,
		"assessments": []map[string]interface{}{
			{
				"assessment_id":    "asmt-1",
				"regulation":       "NIST 800-53",
				"display_name":     "Moderate Baseline",
				"compliance_score": 71.0,
				"passed_controls":  140,
				"failed_controls":  60,
				"total_controls":   200,
			},
		},
		"improvement_actions_implemented": 12,
		"improvement_actions_planned":     5,
		"improvement_actions_not_started": 3,
		"collector_version":               "2.4.1",
	}
}

func marshal(t *testing.T, payload map[string]interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return data
}

func assertViolation(t *testing.T, err error, field, rule string) {
	t.Helper()
	require.Error(t, err)
	appErr := errors.AsAppError(err)
	assert.Equal(t, constants.ErrCodeValidationFailed, appErr.Code)
	assert.Equal(t, field, appErr.Details["field"])
	assert.Equal(t, rule, appErr.Details["rule"])
}

func TestSnapshotValidator_ValidPayload(t *testing.T) {
	v := NewSnapshotValidator(logger.NewNoopLogger())

	snapshot, err := v.Validate(context.Background(), marshal(t, validPayload()))
	require.NoError(t, err)

	assert.Equal(t, testTenantID, snapshot.TenantID)
	assert.Equal(t, "dept-of-records", snapshot.AgencyID)
	assert.Equal(t, int64(15), snapshot.InsiderRiskTotal)
	assert.Len(t, snapshot.LabelTaxonomy, 2)
	assert.Len(t, snapshot.Assessments, 1)
	assert.Equal(t, "2.4.1", snapshot.CollectorVersion)
	// 540/750 = 72%
	assert.InDelta(t, 72.0, snapshot.ComplianceScorePct, 0.001)
}

func TestSnapshotValidator_FirstOffendingFieldWins(t *testing.T) {
	v := NewSnapshotValidator(logger.NewNoopLogger())

	payload := validPayload()
	delete(payload, "agency_id")
	delete(payload, "dlp_incidents_30d")

	_, err := v.Validate(context.Background(), marshal(t, payload))
	assertViolation(t, err, "agency_id", RuleRequired)
}

func TestSnapshotValidator_FieldRules(t *testing.T) {
	v := NewSnapshotValidator(logger.NewNoopLogger())

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		field  string
		rule   string
	}{
		{
			name:   "missing tenant_id",
			mutate: func(p map[string]interface{}) { delete(p, "tenant_id") },
			field:  "tenant_id",
			rule:   RuleRequired,
		},
		{
			name:   "malformed tenant_id",
			mutate: func(p map[string]interface{}) { p["tenant_id"] = "not-a-guid" },
			field:  "tenant_id",
			rule:   RulePattern,
		},
		{
			name:   "unparseable timestamp",
			mutate: func(p map[string]interface{}) { p["timestamp"] = "yesterday" },
			field:  "timestamp",
			rule:   RulePattern,
		},
		{
			name:   "coverage over 100",
			mutate: func(p map[string]interface{}) { p["label_coverage_pct"] = 104.2 },
			field:  "label_coverage_pct",
			rule:   RuleRange,
		},
		{
			name:   "negative count",
			mutate: func(p map[string]interface{}) { p["external_sharing_count"] = -1 },
			field:  "external_sharing_count",
			rule:   RuleRange,
		},
		{
			name:   "insider total not the sum of buckets",
			mutate: func(p map[string]interface{}) { p["insider_risk_total"] = 99 },
			field:  "insider_risk_total",
			rule:   RuleRange,
		},
		{
			name:   "collector_version too long",
			mutate: func(p map[string]interface{}) { p["collector_version"] = "0123456789012345678901234567890123456789" },
			field:  "collector_version",
			rule:   RuleRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validPayload()
			tt.mutate(payload)
			_, err := v.Validate(context.Background(), marshal(t, payload))
			assertViolation(t, err, tt.field, tt.rule)
		})
	}
}

func TestSnapshotValidator_NestedEntryPath(t *testing.T) {
	v := NewSnapshotValidator(logger.NewNoopLogger())

	payload := validPayload()
	payload["assessments"] = []map[string]interface{}{
		{
			"assessment_id":    "asmt-1",
			"regulation":       "NIST 800-53",
			"compliance_score": 71.0,
			"passed_controls":  140,
			"failed_controls":  60,
			"total_controls":   200,
		},
		{
			"assessment_id":    "asmt-2",
			"regulation":       "CJIS",
			"compliance_score": 55.0,
			"failed_controls":  10,
			"total_controls":   40,
		},
	}

	_, err := v.Validate(context.Background(), marshal(t, payload))
	assertViolation(t, err, "assessments[1].passed_controls", RuleRequired)
}

func TestSnapshotValidator_WrongTypeReportsField(t *testing.T) {
	v := NewSnapshotValidator(logger.NewNoopLogger())

	payload := validPayload()
	payload["label_coverage_pct"] = "eighty"

	_, err := v.Validate(context.Background(), marshal(t, payload))
	assertViolation(t, err, "label_coverage_pct", RuleType)
}

func TestSnapshotValidator_UnknownFieldsIgnored(t *testing.T) {
	v := NewSnapshotValidator(logger.NewNoopLogger())

	payload := validPayload()
	payload["future_metric"] = 42

	_, err := v.Validate(context.Background(), marshal(t, payload))
	assert.NoError(t, err)
}

func TestSnapshotValidator_NonMonotonicDlpAccepted(t *testing.T) {
	v := NewSnapshotValidator(logger.NewNoopLogger())

	payload := validPayload()
	payload["dlp_incidents_30d"] = 20
	payload["dlp_incidents_90d"] = 5

	snapshot, err := v.Validate(context.Background(), marshal(t, payload))
	require.NoError(t, err)
	assert.False(t, snapshot.DlpWindowsMonotonic())
}

func TestSnapshotValidator_ZeroMaxScore(t *testing.T) {
	v := NewSnapshotValidator(logger.NewNoopLogger())

	payload := validPayload()
	payload["compliance_score_current"] = 0.0
	payload["compliance_score_max"] = 0.0

	snapshot, err := v.Validate(context.Background(), marshal(t, payload))
	require.NoError(t, err)
	assert.Zero(t, snapshot.ComplianceScorePct)
}
