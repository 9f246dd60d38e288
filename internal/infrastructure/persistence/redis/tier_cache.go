package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/internal/domain/service"
	"github.com/stategrc/posturehub/pkg/logger"
)

var _ service.TierCache = (*TierCache)(nil)

// TierCache is the Redis-backed shared cache of recorded label tiers. Entries
// expire so a stale cache never outlives the authoritative normalization map
// for long.
type TierCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger logger.Logger
}

// NewTierCache creates a tier cache with the given entry TTL.
func NewTierCache(conn *Connection, ttl time.Duration, log logger.Logger) *TierCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &TierCache{
		client: conn.Client(),
		ttl:    ttl,
		logger: log.WithComponent("tier_cache"),
	}
}

// GetTier returns the cached tier for (tenant, raw name), with ok=false on a
// cache miss.
func (c *TierCache) GetTier(ctx context.Context, tenantID, rawName string) (models.Tier, bool, error) {
	val, err := c.client.Get(ctx, tierKey(tenantID, rawName)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, err
	}
	tier := models.Tier(val)
	if !tier.Valid() {
		// Unknown value in cache; treat as a miss so the store decides.
		return "", false, nil
	}
	return tier, true, nil
}

// SetTier records the tier for (tenant, raw name).
func (c *TierCache) SetTier(ctx context.Context, tenantID, rawName string, tier models.Tier) error {
	return c.client.Set(ctx, tierKey(tenantID, rawName), string(tier), c.ttl).Err()
}

func tierKey(tenantID, rawName string) string {
	return fmt.Sprintf("label:tier:%s:%s", tenantID, rawName)
}
