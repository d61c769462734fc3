package status

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by a Cache when the key is absent or expired
var ErrCacheMiss = errors.New("status cache miss")

// Cache stores status names with a per-entry time to live
type Cache interface {
	Get(ctx context.Context, code int) (string, error)
	Set(ctx context.Context, code int, name string, ttl time.Duration) error
}

type memoryEntry struct {
	name      string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache. Expired entries are dropped lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[int]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[int]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, code int) (string, error) {
	c.mu.RLock()
	entry, ok := c.entries[code]
	c.mu.RUnlock()

	if !ok {
		return "", ErrCacheMiss
	}

	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		// another writer may have refreshed it meanwhile
		if current, ok := c.entries[code]; ok && !c.now().Before(current.expiresAt) {
			delete(c.entries, code)
		}
		c.mu.Unlock()
		return "", ErrCacheMiss
	}

	return entry.name, nil
}

func (c *MemoryCache) Set(_ context.Context, code int, name string, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[code] = memoryEntry{name: name, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

const redisKeyPrefix = "product-api:status"

// RedisCache keeps status names in redis so every instance shares them
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Cache backed by the given redis client
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: redisKeyPrefix}
}

func (c *RedisCache) key(code int) string {
	return fmt.Sprintf("%s:%d", c.prefix, code)
}

func (c *RedisCache) Get(ctx context.Context, code int) (string, error) {
	name, err := c.client.Get(ctx, c.key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to read status from redis: %w", err)
	}
	return name, nil
}

func (c *RedisCache) Set(ctx context.Context, code int, name string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(code), name, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write status to redis: %w", err)
	}
	return nil
}
