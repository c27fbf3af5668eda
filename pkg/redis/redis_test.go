package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cnquant/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{
		Redis: config.RedisConfig{Enabled: false},
	})
	require.NoError(t, err)
	return client
}

func TestNew_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "cnquant")

	allowed, remaining, err := limiter.Allow(context.Background(), SinaRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, SinaRateLimit.Limit, remaining)

	assert.NoError(t, limiter.Bind(TencentRateLimit).Wait(context.Background()))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "cnquant")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []int{1, 2}, TTLMedium))

	var got []int
	found, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "k"))
}

func TestRemember_DisabledAlwaysComputes(t *testing.T) {
	cache := NewCache(disabledClient(t), "cnquant")
	calls := 0

	fn := func() ([]float64, error) {
		calls++
		return []float64{10.5, 11}, nil
	}

	for i := 0; i < 2; i++ {
		got, err := Remember(context.Background(), cache, "k", TTLMedium, fn)
		require.NoError(t, err)
		assert.Equal(t, []float64{10.5, 11}, got)
	}
	assert.Equal(t, 2, calls)
}

func TestRemember_PropagatesError(t *testing.T) {
	cache := NewCache(disabledClient(t), "cnquant")

	_, err := Remember(context.Background(), cache, "k", TTLMedium, func() (int, error) {
		return 0, errors.New("upstream down")
	})
	assert.EqualError(t, err, "upstream down")
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "kline:sh600519:240:120:2026-10-19", KlineKey("sh600519", 240, 120, "2026-10-19"))
}
