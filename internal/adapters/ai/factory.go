package ai

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"ossy/internal/adapters/config"
	"ossy/pkg/errors"
)

// BuildRegistry initializes a ProviderRegistry with every provider that has a key.
// redisClient is optional and only used when distributed rate limiting is enabled.
func BuildRegistry(ctx context.Context, cfg config.AIConfig, redisClient *redis.Client) (*ProviderRegistry, error) {
	registry := NewProviderRegistry()
	limiters := NewRateLimiterFactory(cfg.RateLimit, redisClient)
	defaultProvider := ProviderName(NormalizeProviderName(cfg.DefaultProvider))

	// AI_MODEL only applies to the default provider, the others keep their own defaults
	providerConfig := func(name ProviderName, key, baseURL string) ProviderConfig {
		model := DefaultModel(name)
		if name == defaultProvider && cfg.Model != "" {
			model = cfg.Model
		}
		return ProviderConfig{
			APIKey:  key,
			BaseURL: baseURL,
			Model:   model,
			Timeout: cfg.RequestTimeout,
			Limiter: limiters.Create(name, model),
		}
	}

	if cfg.GeminiKey != "" {
		provider, err := NewGeminiProvider(ctx, providerConfig(ProviderNameGemini, cfg.GeminiKey, cfg.GeminiBaseURL))
		if err != nil {
			return nil, err
		}
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
	}

	if cfg.OpenAIKey != "" {
		provider, err := NewOpenAIProvider(ProviderNameOpenAI, providerConfig(ProviderNameOpenAI, cfg.OpenAIKey, cfg.OpenAIBaseURL))
		if err != nil {
			return nil, err
		}
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
	}

	if cfg.DeepSeekKey != "" {
		provider, err := NewOpenAIProvider(ProviderNameDeepSeek, providerConfig(ProviderNameDeepSeek, cfg.DeepSeekKey, cfg.DeepSeekBaseURL))
		if err != nil {
			return nil, err
		}
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
	}

	if len(registry.Names()) == 0 {
		return nil, errors.ErrUnavailable
	}

	return registry, nil
}

// NormalizeProviderName makes provider lookup more forgiving.
func NormalizeProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
