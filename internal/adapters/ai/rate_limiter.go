package ai

import (
	"context"

	"github.com/redis/go-redis/v9"

	"ossy/internal/adapters/config"
	"ossy/internal/adapters/ratelimit"
)

// RateLimiter paces requests to one AI provider.
type RateLimiter interface {
	// Wait blocks until request can proceed or context is cancelled.
	Wait(ctx context.Context) error

	// Allow checks if request can proceed without blocking.
	Allow() bool

	// PerMinute returns the rate limit in requests per minute, -1 when unlimited.
	PerMinute() float64
}

var _ RateLimiter = (*ratelimit.Limiter)(nil)

// NoOpLimiter is a rate limiter that never blocks.
type NoOpLimiter struct{}

// NewNoOpLimiter creates a no-op rate limiter.
func NewNoOpLimiter() *NoOpLimiter {
	return &NoOpLimiter{}
}

// Wait always returns immediately without error.
func (l *NoOpLimiter) Wait(ctx context.Context) error {
	return nil
}

// Allow always returns true.
func (l *NoOpLimiter) Allow() bool {
	return true
}

// PerMinute returns -1 to indicate unlimited.
func (l *NoOpLimiter) PerMinute() float64 {
	return -1
}

// RateLimiterFactory creates rate limiters, in-process or backed by Redis.
type RateLimiterFactory struct {
	cfg    config.AIRateLimitConfig
	client *redis.Client
}

// NewRateLimiterFactory creates a factory for rate limiters.
// With a nil client, or Distributed unset, limiters are in-process token
// buckets suitable for a single replica. Otherwise the bucket lives in Redis
// and is shared by every replica.
func NewRateLimiterFactory(cfg config.AIRateLimitConfig, client *redis.Client) *RateLimiterFactory {
	return &RateLimiterFactory{cfg: cfg, client: client}
}

// Create creates a rate limiter for provider calls to model.
func (f *RateLimiterFactory) Create(provider ProviderName, model string) RateLimiter {
	rpm := f.perMinute(provider)
	if !f.cfg.Enabled || rpm <= 0 {
		return NewNoOpLimiter()
	}

	if f.cfg.Distributed && f.client != nil {
		return NewRedisRateLimiter(f.client, provider, model, float64(rpm), 0)
	}

	return ratelimit.NewLimiter("ai:"+provider.String()+":"+model, rpm)
}

func (f *RateLimiterFactory) perMinute(provider ProviderName) int {
	switch provider {
	case ProviderNameGemini:
		return f.cfg.GeminiRPM
	case ProviderNameOpenAI:
		return f.cfg.OpenAIRPM
	case ProviderNameDeepSeek:
		return f.cfg.DeepSeekRPM
	default:
		return 0
	}
}
