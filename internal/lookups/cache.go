package lookups

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the summary cache in front of the lookup repository. Values are
// JSON-encoded summaries keyed by "project:<id>" / "category:<id>".
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// RedisCache backs the lookup cache with redis. Cache errors are treated as
// misses; the repository remains the source of truth.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a redis-backed lookup cache.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.client.Set(ctx, c.prefix+key, value, ttl)
}

type localEntry struct {
	value     []byte
	expiresAt time.Time
}

// LocalCache is the in-process fallback used when redis is not configured.
type LocalCache struct {
	mu      sync.RWMutex
	entries map[string]localEntry
}

// NewLocalCache creates an empty in-process cache.
func NewLocalCache() *LocalCache {
	return &LocalCache{entries: make(map[string]localEntry)}
}

func (c *LocalCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *LocalCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = localEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}
