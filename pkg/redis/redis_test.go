package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescope/backend/pkg/config"
)

func TestNew_Disabled(t *testing.T) {
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	cfg := TushareRateLimit(200)

	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 200, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), cfg))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, IndicatorKey("600519"), map[string]float64{"pe_ttm": 30.2}, TTLMedium))

	var got map[string]float64
	found, err := cache.Get(ctx, IndicatorKey("600519"), &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, IndicatorKey("600519")))
}

func TestCache_GetOrSet_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	calls := 0

	type payload struct {
		Code string  `json:"code"`
		PE   float64 `json:"pe"`
	}

	var got payload
	err := cache.GetOrSet(context.Background(), "k", &got, TTLMedium, func() (interface{}, error) {
		calls++
		return payload{Code: "000001", PE: 4.8}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, payload{Code: "000001", PE: 4.8}, got)

	err = cache.GetOrSet(context.Background(), "k", &got, TTLMedium, func() (interface{}, error) {
		return nil, errors.New("source down")
	})
	assert.EqualError(t, err, "source down")
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "indicator:600036", IndicatorKey("600036"))
	assert.Equal(t, "stock:600036", StockKey("600036"))
}

func TestPubSub_Disabled(t *testing.T) {
	client := Disabled()
	assert.NoError(t, client.Publish(context.Background(), "alerts", map[string]string{"a": "b"}))

	called := false
	err := client.Subscribe(context.Background(), "alerts", func([]byte) { called = true })
	assert.NoError(t, err)
	assert.False(t, called)
}
