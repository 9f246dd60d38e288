// Package redis provides the Redis connection and the shared tier cache
// backing label normalization across service instances.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stategrc/posturehub/internal/config"
	"github.com/stategrc/posturehub/pkg/logger"
)

// Connection manages the Redis client lifecycle.
type Connection struct {
	client redis.UniversalClient
	logger logger.Logger
}

// NewConnection establishes the Redis connection and validates connectivity
// with an initial ping.
func NewConnection(ctx context.Context, cfg *config.RedisConfig, log logger.Logger) (*Connection, error) {
	addrs := cfg.Addresses
	if len(addrs) == 0 {
		addrs = []string{"localhost:6379"}
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addrs,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	conn := &Connection{client: client, logger: log.WithComponent("redis")}
	conn.logger.Info(ctx, "Redis connection established",
		logger.Any("addrs", addrs),
		logger.Int("db", cfg.DB),
	)
	return conn, nil
}

// Client returns the underlying Redis client.
func (c *Connection) Client() redis.UniversalClient {
	return c.client
}

// Ping checks Redis connectivity with a bounded timeout.
func (c *Connection) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.client.Ping(pingCtx).Err(); err != nil {
		c.logger.Error(ctx, "Redis ping failed", err)
		return err
	}
	return nil
}

// Close shuts down the client.
func (c *Connection) Close() error {
	return c.client.Close()
}
