// Package redis provides a short-TTL read-cache in front of the balance and
// fee oracle. A cache miss or an unreachable Redis falls through to RPC; the
// cache is never authoritative for funds checks.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Cache wraps Redis operations for oracle reads.
type Cache struct {
	rdb *redis.Client
}

// NewCache creates a new Redis cache client.
func NewCache(cfg Config) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Key helpers
func balanceKey(network, address string) string {
	return fmt.Sprintf("oracle:balance:%s:%s", network, address)
}

func feeKey(network string) string {
	return fmt.Sprintf("oracle:fees:%s", network)
}

// GetBalance returns a cached balance (wei, decimal string).
func (c *Cache) GetBalance(ctx context.Context, network, address string) (string, error) {
	return c.get(ctx, balanceKey(network, address))
}

// SetBalance caches a balance with the given TTL.
func (c *Cache) SetBalance(ctx context.Context, network, address, wei string, ttl time.Duration) error {
	return c.rdb.Set(ctx, balanceKey(network, address), wei, ttl).Err()
}

// GetFees returns a cached fee-estimate payload.
func (c *Cache) GetFees(ctx context.Context, network string) (string, error) {
	return c.get(ctx, feeKey(network))
}

// SetFees caches a fee-estimate payload with the given TTL.
func (c *Cache) SetFees(ctx context.Context, network, payload string, ttl time.Duration) error {
	return c.rdb.Set(ctx, feeKey(network), payload, ttl).Err()
}

func (c *Cache) get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

// Health pings the connection.
func (c *Cache) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
