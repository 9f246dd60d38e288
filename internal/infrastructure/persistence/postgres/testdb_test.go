package postgres

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stategrc/posturehub/internal/domain/models"
)

var testDBSeq atomic.Int64

// testDB opens an in-memory SQLite database with the same GORM options as
// production, so unique-constraint translation behaves identically. Each call
// gets its own named database; cache=shared only spans the connection pool.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testSnapshot(tenantID, agencyID string, at time.Time, scorePct float64) *models.PostureSnapshot {
	return &models.PostureSnapshot{
		TenantID:               tenantID,
		AgencyID:               agencyID,
		SnapshotAt:             at.UTC(),
		LabelCoveragePct:       80,
		DlpIncidents30d:        1,
		DlpIncidents60d:        2,
		DlpIncidents90d:        3,
		ExternalSharingCount:   5,
		RetentionCoveragePct:   60,
		InsiderRiskHigh:        1,
		InsiderRiskMedium:      2,
		InsiderRiskLow:         3,
		InsiderRiskTotal:       6,
		ComplianceScoreCurrent: scorePct,
		ComplianceScoreMax:     100,
		ComplianceScorePct:     scorePct,
		LabelTaxonomy: models.LabelTaxonomy{
			{LabelID: "lbl-1", LabelName: "Confidential", NormalizedTier: models.TierConfidential},
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
