package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stategrc/posturehub/internal/infrastructure/persistence/postgres"
	"github.com/stategrc/posturehub/internal/infrastructure/persistence/redis"
	"github.com/stategrc/posturehub/pkg/logger"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db     *postgres.HealthPool
	cache  *redis.Connection
	logger logger.Logger
}

// NewHealthHandler creates the health handler. The cache connection may be
// nil when Redis is not configured.
func NewHealthHandler(db *postgres.HealthPool, cache *redis.Connection, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		cache:  cache,
		logger: log.WithComponent("health_handler"),
	}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Ready handles GET /health/ready. The service is ready when its backing
// stores answer pings.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = "unavailable"
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["redis"] = "unavailable"
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ready": healthy, "checks": checks})
}
