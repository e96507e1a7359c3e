package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "leadenrichment:"

// Cache stores provider hits. Implementations swallow their own failures:
// a broken cache only costs a provider call.
type Cache interface {
	Get(ctx context.Context, key string) (Profile, bool)
	Set(ctx context.Context, key string, profile Profile)
}

type cacheEntry struct {
	profile   Profile
	expiresAt time.Time
}

// defaultMemoryCacheEntries bounds MemoryCache between sweeps.
const defaultMemoryCacheEntries = 10000

// MemoryCache is a process-local Cache with per-entry expiry. Expired entries
// are swept by Set at most once per TTL, or whenever the cache is full.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	lastSweep  time.Time
	now        func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: defaultMemoryCacheEntries,
		lastSweep:  time.Now(),
		now:        time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Profile, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Profile{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return Profile{}, false
	}
	return entry.profile, true
}

func (c *MemoryCache) Set(_ context.Context, key string, profile Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	_, exists := c.entries[key]
	full := !exists && len(c.entries) >= c.maxEntries
	if full || now.Sub(c.lastSweep) >= c.ttl {
		c.sweepLocked(now)
	}
	if !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = cacheEntry{profile: profile, expiresAt: now.Add(c.ttl)}
}

func (c *MemoryCache) sweepLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.lastSweep = now
}

func (c *MemoryCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

// RedisCache shares provider hits between API and worker processes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Profile, bool) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		return Profile{}, false
	}
	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return Profile{}, false
	}
	return profile, true
}

func (c *RedisCache) Set(ctx context.Context, key string, profile Profile) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cacheKeyPrefix+key, raw, c.ttl).Err()
}
