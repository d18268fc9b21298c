package geo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache memoizes resolved countries. An absent country is cached as found
// with ok false.
type Cache interface {
	Get(ctx context.Context, location string) (country string, ok, found bool, err error)
	Set(ctx context.Context, location, country string, ok bool) error
}

type entry struct {
	country string
	ok      bool
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry)}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, location string) (string, bool, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, found := c.entries[location]
	return e.country, e.ok, found, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, location, country string, ok bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[location] = entry{country: country, ok: ok}
	return nil
}

// Len returns the number of cached locations.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisKeyPrefix namespaces resolver entries in Redis.
const RedisKeyPrefix = "geo:country:"

// DefaultRedisTTL is how long a resolution stays cached in Redis.
const DefaultRedisTTL = 30 * 24 * time.Hour

// RedisCache stores resolutions in Redis so they survive across runs.
// An absent country is stored as the empty string.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps client. A ttl of zero uses DefaultRedisTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func redisKey(location string) string {
	return RedisKeyPrefix + location
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, location string) (string, bool, bool, error) {
	v, err := c.client.Get(ctx, redisKey(location)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, false, nil
	}
	if err != nil {
		return "", false, false, fmt.Errorf("redis get %q: %w", location, err)
	}
	return v, v != "", true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, location, country string, ok bool) error {
	if !ok {
		country = ""
	}
	if err := c.client.Set(ctx, redisKey(location), country, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", location, err)
	}
	return nil
}
