// Package cache stores exact sequence terms outside the process so that
// repeated requests for large indices are served without recomputation.
package cache

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agbru/phicalc/internal/sequence"
)

// KeyPrefix namespaces every key written by RedisCache.
const KeyPrefix = "phicalc:term"

// Cache is a store of exact terms keyed by (kind, index). Exact values do not
// depend on the strategy that produced them, so the strategy is not part of
// the key. Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached term and true, or nil and false on a miss.
	Get(ctx context.Context, kind sequence.Kind, n uint64) (*big.Int, bool, error)
	// Set stores an exact term.
	Set(ctx context.Context, kind sequence.Kind, n uint64, v *big.Int) error
	// Close releases the underlying connection.
	Close() error
}

// Key returns the redis key of term n of kind, e.g. "phicalc:term:lucas:42".
func Key(kind sequence.Kind, n uint64) string {
	return fmt.Sprintf("%s:%s:%d", KeyPrefix, kind, n)
}

// RedisCache is a Cache backed by redis. Terms are stored as base-10 strings
// with a TTL; a zero TTL keeps them until evicted by redis.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache creates a cache for the server described by opts. No
// connection is made until the first command; use Ping to check it.
func NewRedisCache(opts *redis.Options, ttl time.Duration) (*RedisCache, error) {
	if opts == nil || opts.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("cache ttl must be non-negative, got %s", ttl)
	}
	return &RedisCache{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

// Ping verifies redis connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, kind sequence.Kind, n uint64) (*big.Int, bool, error) {
	s, err := c.rdb.Get(ctx, Key(kind, n)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read term from redis: %w", err)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, false, fmt.Errorf("corrupt cache entry %s", Key(kind, n))
	}
	return v, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, kind sequence.Kind, n uint64, v *big.Int) error {
	if v == nil {
		return fmt.Errorf("cannot cache a nil term")
	}
	if err := c.rdb.Set(ctx, Key(kind, n), v.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write term to redis: %w", err)
	}
	return nil
}

// Close implements Cache.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// NoopCache never stores anything. It is used when no redis address is
// configured.
type NoopCache struct{}

// Get always misses.
func (NoopCache) Get(context.Context, sequence.Kind, uint64) (*big.Int, bool, error) {
	return nil, false, nil
}

// Set discards the value.
func (NoopCache) Set(context.Context, sequence.Kind, uint64, *big.Int) error { return nil }

// Close does nothing.
func (NoopCache) Close() error { return nil }

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = NoopCache{}
)
