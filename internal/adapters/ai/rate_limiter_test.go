package ai

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ossy/internal/adapters/config"
	"ossy/internal/adapters/ratelimit"
	"ossy/internal/testsupport"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	_, client, _ := testsupport.MemoryRedis(t)
	return client
}

func frozenClock(l *RedisRateLimiter, now *time.Time) {
	l.now = func() time.Time { return *now }
}

func TestRateLimiterFactory(t *testing.T) {
	rdb := newTestRedis(t)
	cfg := config.AIRateLimitConfig{Enabled: true, GeminiRPM: 15, OpenAIRPM: 500, DeepSeekRPM: 0}

	local := NewRateLimiterFactory(cfg, rdb).Create(ProviderNameGemini, ModelGeminiFlash)
	require.IsType(t, &ratelimit.Limiter{}, local)
	assert.InDelta(t, 15, local.PerMinute(), 0.001)

	// Zero RPM disables the limiter for that provider
	assert.IsType(t, &NoOpLimiter{}, NewRateLimiterFactory(cfg, rdb).Create(ProviderNameDeepSeek, ModelDeepSeekChat))

	cfg.Distributed = true
	distributed := NewRateLimiterFactory(cfg, rdb).Create(ProviderNameOpenAI, ModelGPT4oMini)
	require.IsType(t, &RedisRateLimiter{}, distributed)
	assert.InDelta(t, 500, distributed.PerMinute(), 0.001)
	assert.Equal(t, "ossy:llm_bucket:openai:gpt-4o-mini", distributed.(*RedisRateLimiter).key)

	// Distributed without Redis falls back to the in-process bucket
	assert.IsType(t, &ratelimit.Limiter{}, NewRateLimiterFactory(cfg, nil).Create(ProviderNameOpenAI, ModelGPT4oMini))

	cfg.Enabled = false
	assert.IsType(t, &NoOpLimiter{}, NewRateLimiterFactory(cfg, rdb).Create(ProviderNameOpenAI, ModelGPT4oMini))
}

func TestNoOpLimiter(t *testing.T) {
	l := NewNoOpLimiter()
	assert.NoError(t, l.Wait(context.Background()))
	assert.True(t, l.Allow())
	assert.Equal(t, -1.0, l.PerMinute())
}

func TestRedisRateLimiter_Burst(t *testing.T) {
	rdb := newTestRedis(t)
	now := time.Unix(1_700_000_000, 0)

	// 60 req/min = 1 req/sec, burst 2
	limiter := NewRedisRateLimiter(rdb, ProviderNameOpenAI, ModelGPT4oMini, 60, 2)
	frozenClock(limiter, &now)

	assert.True(t, limiter.Allow(), "first request uses the burst")
	assert.True(t, limiter.Allow(), "second request uses the burst")
	assert.False(t, limiter.Allow(), "bucket is empty")

	tokens, err := limiter.Tokens(context.Background())
	require.NoError(t, err)
	assert.Less(t, tokens, 1.0)

	// One second later one token has been refilled
	now = now.Add(time.Second)
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	require.NoError(t, limiter.Reset(context.Background()))
	tokens, err = limiter.Tokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2.0, tokens)
}

func TestRedisRateLimiter_WaitHint(t *testing.T) {
	rdb := newTestRedis(t)
	now := time.Unix(1_700_000_000, 0)

	limiter := NewRedisRateLimiter(rdb, ProviderNameGemini, ModelGeminiFlash, 60, 1)
	frozenClock(limiter, &now)

	taken, wait, err := limiter.take(context.Background())
	require.NoError(t, err)
	assert.True(t, taken)
	assert.Zero(t, wait)

	now = now.Add(250 * time.Millisecond)
	taken, wait, err = limiter.take(context.Background())
	require.NoError(t, err)
	assert.False(t, taken)
	assert.InDelta(t, 750, wait.Milliseconds(), 1)

	ttl := rdb.PTTL(context.Background(), limiter.key).Val()
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisRateLimiter_BucketsPerProviderAndModel(t *testing.T) {
	rdb := newTestRedis(t)
	now := time.Unix(1_700_000_000, 0)

	a := NewRedisRateLimiter(rdb, ProviderNameGemini, ModelGeminiFlash, 60, 1)
	b := NewRedisRateLimiter(rdb, ProviderNameGemini, ModelGeminiFlash, 60, 1)
	otherModel := NewRedisRateLimiter(rdb, ProviderNameGemini, "gemini-2.5-pro", 60, 1)
	otherProvider := NewRedisRateLimiter(rdb, ProviderNameOpenAI, ModelGPT4oMini, 60, 1)
	for _, l := range []*RedisRateLimiter{a, b, otherModel, otherProvider} {
		frozenClock(l, &now)
	}

	assert.True(t, a.Allow())
	assert.False(t, b.Allow(), "second replica sees the drained bucket")
	assert.True(t, otherModel.Allow(), "each model has its own bucket")
	assert.True(t, otherProvider.Allow(), "each provider has its own bucket")
}

func TestRedisRateLimiter_WaitCancelled(t *testing.T) {
	rdb := newTestRedis(t)

	// 1 req/min: the second request would wait a minute
	limiter := NewRedisRateLimiter(rdb, ProviderNameGemini, ModelGeminiFlash, 1, 1)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	require.Error(t, err)

	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, ProviderNameGemini, rlErr.Provider)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
