// Package redis provides the production Cache adapter over a Redis
// server. The pipeline never depends on it directly: a single client is
// constructed by the process entry point and injected everywhere a
// stage needs its cache, so there is exactly one connection pool per
// process and no hidden global.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quarrylabs/quarry/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.Cache = (*Cache)(nil)

// Config holds Redis connection settings.
type Config struct {
	// Addr is the host:port of the Redis server (default localhost:6379).
	Addr string

	// Password is optional.
	Password string

	// DB selects the logical database (default 0).
	DB int
}

// Cache is a Redis-backed key-value cache with server-side TTL expiry.
type Cache struct {
	client *redis.Client
}

// New creates a Redis cache client. The connection is verified with a
// ping so a misconfigured address fails at startup, not mid-query.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return &Cache{client: client}, nil
}

// Get returns the value for key and whether it was present.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key with no expiry.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// SetEx stores value under key with a server-side TTL.
func (c *Cache) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.SetEx(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: setex %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
