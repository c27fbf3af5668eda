package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow admits a request if fewer than limit requests were
// recorded inside the window.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, now .. '-' .. math.random())
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

// RateLimiter implements a sliding window limit shared across processes
// (screen job, API server and CLI all hit the same upstreams)
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string // upstream identifier ("sina", "tencent")
	Limit  int
	Window time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Allow checks if a request is allowed under the rate limit.
// Returns (allowed, remaining, error).
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	now := time.Now().UnixMilli()

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now,
		now-cfg.Window.Milliseconds(),
		cfg.Limit,
		cfg.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	return result[0] == 1, int(result[1]), nil
}

// Wait blocks until a request is allowed or context is cancelled
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// Bind fixes the config so the limiter can be injected into an HTTP client
func (r *RateLimiter) Bind(cfg RateLimitConfig) *BoundLimiter {
	return &BoundLimiter{limiter: r, cfg: cfg}
}

// BoundLimiter is a RateLimiter with a fixed config
type BoundLimiter struct {
	limiter *RateLimiter
	cfg     RateLimitConfig
}

// Wait blocks until the bound upstream admits another request
func (b *BoundLimiter) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx, b.cfg)
}

// Upstream limits (보수적)
var (
	SinaRateLimit = RateLimitConfig{
		Key:    "sina",
		Limit:  10,
		Window: time.Second,
	}

	TencentRateLimit = RateLimitConfig{
		Key:    "tencent",
		Limit:  20,
		Window: time.Second,
	}
)
