package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the process-wide page cache service. Entries expire by TTL only;
// there is no write-through invalidation from content mutation, so readers
// may observe a bounded staleness window.
type Cache struct {
	client *redis.Client
}

// NewCache wraps a Redis client as a cache service.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// GetBytes returns the cached bytes for a key.
func (c *Cache) GetBytes(key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if Sugar != nil && err != redis.Nil {
			Sugar.Debugf("cache get failed key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

// SetBytes stores bytes under a key for the given TTL.
func (c *Cache) SetBytes(key string, b []byte, ttl time.Duration) {
	if c == nil || c.client == nil || ttl <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		if Sugar != nil {
			Sugar.Warnf("cache set failed key=%s err=%v", key, err)
		}
	}
}

// Clear drops every cached entry. Used by tests and operational tooling;
// request handling never calls it.
func (c *Cache) Clear() {
	if c == nil || c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		if Sugar != nil {
			Sugar.Warnf("cache clear failed: %v", err)
		}
	}
}
