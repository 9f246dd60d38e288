package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/internal/domain/repository"
	"github.com/stategrc/posturehub/pkg/constants"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

// TierCache is the shared (cross-process) cache of recorded label tiers,
// backed by Redis in production. It provides read-after-write consistency
// per tenant.
type TierCache interface {
	GetTier(ctx context.Context, tenantID, rawName string) (models.Tier, bool, error)
	SetTier(ctx context.Context, tenantID, rawName string, tier models.Tier) error
}

// tierRule is one ordered keyword rule; the first matching rule wins.
type tierRule struct {
	tier     models.Tier
	keywords []string
}

// Keyword rules in priority order: Restricted > Confidential > Internal >
// Public. Names matching nothing map to Unclassified.
var tierRules = []tierRule{
	{models.TierRestricted, []string{
		"restrict", "highly confidential", "secret", "top secret",
		"classified", "cui", "cjis", "ferpa", "hipaa", "itar",
		"criminal justice", "law enforcement",
	}},
	{models.TierConfidential, []string{
		"confidential", "sensitive", "moderate", "pii", "phi", "fouo",
		"for official use only", "controlled", "protected",
	}},
	{models.TierInternal, []string{
		"internal", "general", "organizational", "default", "low",
		"employee", "staff",
	}},
	{models.TierPublic, []string{
		"public", "unrestricted", "open", "external", "published",
	}},
}

// classifyLabel applies the ordered keyword rules to a raw label name.
func classifyLabel(rawName string) models.Tier {
	name := strings.ToLower(rawName)
	for _, rule := range tierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.tier
			}
		}
	}
	return models.TierUnclassified
}

// LabelNormalizer maps tenant-specific label names to normalized tiers.
// A recorded mapping always wins over the rule set, so normalization is
// idempotent even when the rules change later. First encounters of the same
// (tenant, raw name) by concurrent requests are collapsed via singleflight;
// the repository enforces first-writer-wins.
type LabelNormalizer struct {
	repo   repository.LabelMapRepository
	shared TierCache
	local  *gocache.Cache
	flight singleflight.Group
	logger logger.Logger
}

// NewLabelNormalizer creates a normalizer with an in-process L1 cache of the
// given TTL in front of the shared cache and repository.
func NewLabelNormalizer(repo repository.LabelMapRepository, shared TierCache, localTTL time.Duration, log logger.Logger) *LabelNormalizer {
	return &LabelNormalizer{
		repo:   repo,
		shared: shared,
		local:  gocache.New(localTTL, 2*localTTL),
		logger: log.WithComponent("label_normalizer"),
	}
}

// Normalize returns the tier for a (tenant, raw label name) pair, recording
// the mapping on first encounter. An empty raw name maps to Unclassified
// without a keyword match and without persistence.
func (n *LabelNormalizer) Normalize(ctx context.Context, tenantID, rawName string) (models.Tier, error) {
	if strings.TrimSpace(rawName) == "" {
		return models.TierUnclassified, nil
	}

	key := cacheKey(tenantID, rawName)
	if cached, ok := n.local.Get(key); ok {
		return cached.(models.Tier), nil
	}

	result, err, _ := n.flight.Do(key, func() (interface{}, error) {
		return n.resolve(ctx, tenantID, rawName)
	})
	if err != nil {
		return "", err
	}

	tier := result.(models.Tier)
	n.local.SetDefault(key, tier)
	return tier, nil
}

// NormalizeTaxonomy annotates every entry of a submitted taxonomy with its
// normalized tier.
func (n *LabelNormalizer) NormalizeTaxonomy(ctx context.Context, tenantID string, taxonomy models.LabelTaxonomy) (models.LabelTaxonomy, error) {
	normalized := make(models.LabelTaxonomy, len(taxonomy))
	for i, entry := range taxonomy {
		tier, err := n.Normalize(ctx, tenantID, entry.LabelName)
		if err != nil {
			return nil, err
		}
		entry.NormalizedTier = tier
		normalized[i] = entry
	}
	return normalized, nil
}

func (n *LabelNormalizer) resolve(ctx context.Context, tenantID, rawName string) (models.Tier, error) {
	// Shared cache first; a miss or cache outage falls through to the store.
	if n.shared != nil {
		if tier, ok, err := n.shared.GetTier(ctx, tenantID, rawName); err == nil && ok {
			return tier, nil
		} else if err != nil {
			n.logger.Warn(ctx, "Tier cache read failed, falling back to store",
				logger.String("tenant_id", tenantID),
				logger.Any("error", err.Error()),
			)
		}
	}

	if existing, err := n.repo.Find(ctx, tenantID, rawName); err == nil {
		n.fillShared(ctx, tenantID, rawName, existing.Tier)
		return existing.Tier, nil
	} else if !errors.IsCode(err, constants.ErrCodeNotFound) {
		return "", err
	}

	// First encounter: evaluate rules, then record. A concurrent winner's
	// mapping is returned by Record and takes precedence.
	tier := classifyLabel(rawName)
	recorded, err := n.repo.Record(ctx, &models.LabelMapping{
		TenantID: tenantID,
		RawName:  rawName,
		Tier:     tier,
	})
	if err != nil {
		return "", err
	}
	if recorded.Tier != tier {
		n.logger.Debug(ctx, "Concurrent writer recorded mapping first",
			logger.String("tenant_id", tenantID),
			logger.String("raw_name", rawName),
			logger.String("tier", string(recorded.Tier)),
		)
	}

	n.logger.Info(ctx, "Label mapping recorded",
		logger.String("tenant_id", tenantID),
		logger.String("raw_name", rawName),
		logger.String("tier", string(recorded.Tier)),
	)
	n.fillShared(ctx, tenantID, rawName, recorded.Tier)
	return recorded.Tier, nil
}

func (n *LabelNormalizer) fillShared(ctx context.Context, tenantID, rawName string, tier models.Tier) {
	if n.shared == nil {
		return
	}
	if err := n.shared.SetTier(ctx, tenantID, rawName, tier); err != nil {
		n.logger.Warn(ctx, "Tier cache write failed",
			logger.String("tenant_id", tenantID),
			logger.Any("error", err.Error()),
		)
	}
}

func cacheKey(tenantID, rawName string) string {
	return fmt.Sprintf("%s\x00%s", tenantID, rawName)
}
