package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON values under "<prefix>:cache:<key>"
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get loads a cached value into dest. Missing keys report (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

// Remember returns the cached value for key or computes, stores and returns it.
// Cache read/write failures fall through to fn; fn errors are never cached.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var cached T
	if found, err := c.Get(ctx, key, &cached); err == nil && found {
		return cached, nil
	}

	value, err := fn()
	if err != nil {
		return value, err
	}

	_ = c.Set(ctx, key, value, ttl)
	return value, nil
}

// Predefined TTLs
const (
	TTLMedium = 10 * time.Minute // 섹터/지수
	TTLLong   = 6 * time.Hour    // 당일 K선
)

// KlineKey identifies a kline series for one trading date
func KlineKey(qualified string, scale int, days int, date string) string {
	return fmt.Sprintf("kline:%s:%d:%d:%s", qualified, scale, days, date)
}
