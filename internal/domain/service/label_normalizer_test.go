package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

// fakeLabelMapRepo is an in-memory LabelMapRepository with first-writer-wins
// semantics, mirroring the database unique index.
type fakeLabelMapRepo struct {
	mu       sync.Mutex
	mappings map[string]*models.LabelMapping
	finds    int
	records  int
}

func newFakeLabelMapRepo() *fakeLabelMapRepo {
	return &fakeLabelMapRepo{mappings: make(map[string]*models.LabelMapping)}
}

func (r *fakeLabelMapRepo) key(tenantID, rawName string) string {
	return tenantID + "\x00" + rawName
}

func (r *fakeLabelMapRepo) Find(_ context.Context, tenantID, rawName string) (*models.LabelMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	if m, ok := r.mappings[r.key(tenantID, rawName)]; ok {
		return m, nil
	}
	return nil, errors.ErrNotFound("label mapping")
}

func (r *fakeLabelMapRepo) Record(_ context.Context, mapping *models.LabelMapping) (*models.LabelMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records++
	key := r.key(mapping.TenantID, mapping.RawName)
	if existing, ok := r.mappings[key]; ok {
		return existing, nil
	}
	r.mappings[key] = mapping
	return mapping, nil
}

func (r *fakeLabelMapRepo) FindAllForTenant(_ context.Context, tenantID string) ([]*models.LabelMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.LabelMapping
	for _, m := range r.mappings {
		if m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestClassifyLabel(t *testing.T) {
	tests := []struct {
		rawName string
		want    models.Tier
	}{
		{"Confidential - PII", models.TierConfidential},
		{"HIGHLY CONFIDENTIAL", models.TierRestricted},
		{"CJIS Data", models.TierRestricted},
		{"Public", models.TierPublic},
		{"Internal Use", models.TierInternal},
		{"General", models.TierInternal},
		{"zz-custom-1", models.TierUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.rawName, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyLabel(tt.rawName))
		})
	}
}

func TestClassifyLabel_RestrictedBeatsConfidential(t *testing.T) {
	// "highly confidential" contains "confidential" too; the higher rule
	// must win because rules apply in priority order.
	assert.Equal(t, models.TierRestricted, classifyLabel("Highly Confidential Records"))
}

func TestLabelNormalizer_RecordsFirstEncounter(t *testing.T) {
	repo := newFakeLabelMapRepo()
	n := NewLabelNormalizer(repo, nil, time.Minute, logger.NewNoopLogger())

	tier, err := n.Normalize(context.Background(), testTenantID, "Confidential - PII")
	require.NoError(t, err)
	assert.Equal(t, models.TierConfidential, tier)
	assert.Equal(t, 1, repo.records)

	stored, err := repo.Find(context.Background(), testTenantID, "Confidential - PII")
	require.NoError(t, err)
	assert.Equal(t, models.TierConfidential, stored.Tier)
}

func TestLabelNormalizer_RecordedMappingWinsOverRules(t *testing.T) {
	repo := newFakeLabelMapRepo()
	_, err := repo.Record(context.Background(), &models.LabelMapping{
		TenantID: testTenantID,
		RawName:  "Public",
		Tier:     models.TierRestricted, // deliberately contradicts the rules
	})
	require.NoError(t, err)

	n := NewLabelNormalizer(repo, nil, time.Minute, logger.NewNoopLogger())
	tier, err := n.Normalize(context.Background(), testTenantID, "Public")
	require.NoError(t, err)
	assert.Equal(t, models.TierRestricted, tier)
}

func TestLabelNormalizer_EmptyNameIsUnclassifiedWithoutPersistence(t *testing.T) {
	repo := newFakeLabelMapRepo()
	n := NewLabelNormalizer(repo, nil, time.Minute, logger.NewNoopLogger())

	tier, err := n.Normalize(context.Background(), testTenantID, "   ")
	require.NoError(t, err)
	assert.Equal(t, models.TierUnclassified, tier)
	assert.Zero(t, repo.records)
	assert.Zero(t, repo.finds)
}

func TestLabelNormalizer_TenantIsolation(t *testing.T) {
	repo := newFakeLabelMapRepo()
	n := NewLabelNormalizer(repo, nil, time.Minute, logger.NewNoopLogger())

	otherTenant := "11111111-2222-3333-4444-555555555555"
	_, err := n.Normalize(context.Background(), testTenantID, "zz-custom-1")
	require.NoError(t, err)
	_, err = n.Normalize(context.Background(), otherTenant, "zz-custom-1")
	require.NoError(t, err)

	// Same raw name, two tenants, two independent mappings.
	assert.Equal(t, 2, repo.records)
}

func TestLabelNormalizer_LocalCacheShortCircuitsRepo(t *testing.T) {
	repo := newFakeLabelMapRepo()
	n := NewLabelNormalizer(repo, nil, time.Minute, logger.NewNoopLogger())

	for i := 0; i < 5; i++ {
		tier, err := n.Normalize(context.Background(), testTenantID, "Internal Use")
		require.NoError(t, err)
		assert.Equal(t, models.TierInternal, tier)
	}

	assert.Equal(t, 1, repo.records)
	assert.Equal(t, 1, repo.finds)
}

func TestLabelNormalizer_NormalizeTaxonomy(t *testing.T) {
	repo := newFakeLabelMapRepo()
	n := NewLabelNormalizer(repo, nil, time.Minute, logger.NewNoopLogger())

	taxonomy := models.LabelTaxonomy{
		{LabelID: "lbl-1", LabelName: "Confidential - PII"},
		{LabelID: "lbl-2", LabelName: "Public"},
		{LabelID: "lbl-3", LabelName: ""},
	}

	normalized, err := n.NormalizeTaxonomy(context.Background(), testTenantID, taxonomy)
	require.NoError(t, err)
	require.Len(t, normalized, 3)
	assert.Equal(t, models.TierConfidential, normalized[0].NormalizedTier)
	assert.Equal(t, models.TierPublic, normalized[1].NormalizedTier)
	assert.Equal(t, models.TierUnclassified, normalized[2].NormalizedTier)

	// The input taxonomy order and identifiers are preserved.
	assert.Equal(t, "lbl-1", normalized[0].LabelID)
	assert.Equal(t, "lbl-3", normalized[2].LabelID)
}
