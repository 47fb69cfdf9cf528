package ai

import (
	"net/http"
	"time"
)

// ProviderConfig carries the connection settings shared by every provider.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // Empty means the SDK default endpoint
	Model   string // Empty means DefaultModel of the provider
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests
	HTTPClient *http.Client
	Limiter    RateLimiter
}

func (c ProviderConfig) withDefaults(provider ProviderName) ProviderConfig {
	if c.Model == "" {
		c.Model = DefaultModel(provider)
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	if c.Limiter == nil {
		c.Limiter = NewNoOpLimiter()
	}
	return c
}
