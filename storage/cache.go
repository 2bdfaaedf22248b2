package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"kanban/domain"
)

// Cache wraps a backend with a Redis read cache. Writes go to the backend
// first and then evict the cached copy.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) Load(ctx context.Context, key string) (domain.Board, bool, error) {
	if b, ok := c.loadFromCache(ctx, key); ok {
		return b, true, nil
	}
	b, found, err := c.base.Load(ctx, key)
	if err != nil || !found {
		return b, found, err
	}
	c.store(ctx, key, b)
	return b, true, nil
}

func (c *Cache) Save(ctx context.Context, key string, b domain.Board) error {
	if err := c.base.Save(ctx, key, b); err != nil {
		return err
	}
	c.evict(ctx, key)
	return nil
}

func (c *Cache) loadFromCache(ctx context.Context, key string) (domain.Board, bool) {
	if c.redis == nil {
		return domain.Board{}, false
	}
	data, err := c.redis.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, cacheKey(key)).Err()
		}
		return domain.Board{}, false
	}
	b, err := domain.DecodeBoard(data)
	if err != nil {
		_ = c.redis.Del(ctx, cacheKey(key)).Err()
		return domain.Board{}, false
	}
	return b, true
}

func (c *Cache) store(ctx context.Context, key string, b domain.Board) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := domain.EncodeBoard(b)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, cacheKey(key), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, cacheKey(key)).Err()
}

func cacheKey(key string) string {
	return "cache:" + key
}
