//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stategrc/posturehub/internal/domain/models"
	postgres_infra "github.com/stategrc/posturehub/internal/infrastructure/persistence/postgres"
	"github.com/stategrc/posturehub/pkg/constants"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

func TestSnapshotRepositoryAgainstPostgres(t *testing.T) {
	if os.Getenv("SKIP_DOCKER_TESTS") == "true" {
		t.Skip("Skipping Docker-dependent tests")
	}

	ctx := context.Background()

	pgContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("posturehub_test"),
		postgres.WithUsername("posturehub"),
		postgres.WithPassword("posturehub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(connStr), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, postgres_infra.Migrate(db))

	log := logger.NewNoopLogger()
	snapshots := postgres_infra.NewSnapshotRepository(db, 5*time.Second, log)
	labels := postgres_infra.NewLabelMapRepository(db, 5*time.Second, log)

	tenantID := "3fa85f64-5717-4562-b3fc-2c963f66afa6"
	at := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)

	snapshot := &models.PostureSnapshot{
		TenantID:             tenantID,
		AgencyID:             "agency-a",
		SnapshotAt:           at,
		LabelCoveragePct:     81.5,
		DlpIncidents30d:      3,
		DlpIncidents60d:      7,
		DlpIncidents90d:      12,
		ExternalSharingCount: 45,
		InsiderRiskHigh:      1,
		InsiderRiskMedium:    4,
		InsiderRiskLow:       10,
		InsiderRiskTotal:     15,
		ComplianceScorePct:   72,
		LabelTaxonomy: models.LabelTaxonomy{
			{LabelID: "lbl-1", LabelName: "Confidential - PII", NormalizedTier: models.TierConfidential},
		},
		Assessments: models.AssessmentList{
			{
				AssessmentID:    "asmt-1",
				Regulation:      "NIST 800-53",
				DisplayName:     "Moderate Baseline",
				ComplianceScore: 71,
				PassedControls:  140,
				FailedControls:  60,
				TotalControls:   200,
			},
		},
		CollectorVersion: "2.4.1",
	}
	require.NoError(t, snapshots.Put(ctx, snapshot))

	// JSONB columns survive the round trip.
	latest, err := snapshots.Latest(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, latest.LabelTaxonomy, 1)
	assert.Equal(t, models.TierConfidential, latest.LabelTaxonomy[0].NormalizedTier)
	require.Len(t, latest.Assessments, 1)
	assert.Equal(t, int64(140), latest.Assessments[0].PassedControls)

	// The real unique index turns a duplicate into a conflict.
	err = snapshots.Put(ctx, snapshot)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeWriteConflict))

	// First writer wins on label mappings under the real constraint.
	first, err := labels.Record(ctx, &models.LabelMapping{
		TenantID: tenantID, RawName: "hipaa data", Tier: models.TierRestricted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TierRestricted, first.Tier)

	second, err := labels.Record(ctx, &models.LabelMapping{
		TenantID: tenantID, RawName: "hipaa data", Tier: models.TierInternal,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TierRestricted, second.Tier)
}
