// Package cache implements the best-effort CachePort on top of go-redis,
// grounded in the teacher's use of *redis.Client in
// internal/application/service/web_search_state.go.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sjq0098/news-mosaic-go/internal/logger"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// RedisCache wraps a *redis.Client. Misses and errors are swallowed per
// spec.md §5 "cache misses never cause failures" — callers always fall
// through to the authoritative store.
type RedisCache struct {
	client *redis.Client
}

// New parses url (redis://...) and returns a RedisCache, or nil if url is
// empty (caching disabled).
func New(url string) (*RedisCache, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// Get implements interfaces.CachePort.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warnf(ctx, "cache get failed for %s: %v", key, err)
		}
		return "", false
	}
	return val, true
}

// Set implements interfaces.CachePort.
func (c *RedisCache) Set(ctx context.Context, key string, value string, ttlSeconds int) {
	if c == nil || c.client == nil {
		return
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Warnf(ctx, "cache set failed for %s: %v", key, err)
	}
}

// Del implements interfaces.CachePort.
func (c *RedisCache) Del(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.Warnf(ctx, "cache del failed for %s: %v", key, err)
	}
}

var _ interfaces.CachePort = (*RedisCache)(nil)
