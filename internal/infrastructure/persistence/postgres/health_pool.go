package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stategrc/posturehub/internal/config"
	"github.com/stategrc/posturehub/pkg/logger"
)

// HealthPool is a small pgx connection pool used by the readiness probe to
// check database availability independently of the ORM connection.
type HealthPool struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// NewHealthPool creates the readiness-check pool and performs an initial
// ping.
func NewHealthPool(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*HealthPool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = 2
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	hp := &HealthPool{pool: pool, logger: log.WithComponent("health_pool")}
	if err := hp.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return hp, nil
}

// Ping verifies database connectivity with a bounded timeout.
func (hp *HealthPool) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := hp.pool.Ping(pingCtx); err != nil {
		hp.logger.Error(ctx, "Database ping failed", err)
		return err
	}
	latency := time.Since(start)
	if latency > 100*time.Millisecond {
		hp.logger.Warn(ctx, "High database latency",
			logger.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return nil
}

// Close shuts down the pool.
func (hp *HealthPool) Close() {
	hp.pool.Close()
}
