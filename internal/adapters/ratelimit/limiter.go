package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"ossy/pkg/errors"
)

// Limiter paces outbound API calls with a token bucket
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter creates a new rate limiter
// requestsPerMinute: maximum number of requests allowed per minute
func NewLimiter(name string, requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1), name: name}
	}

	rps := float64(requestsPerMinute) / 60.0

	// Allow burst of 10% of per-minute limit
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}

// Wait blocks until the rate limiter allows the request
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter %s", l.name)
	}
	return nil
}

// Allow checks if a request is allowed without blocking
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Burst returns the bucket size
func (l *Limiter) Burst() int {
	return l.limiter.Burst()
}

// PerMinute returns the refill rate in requests per minute
func (l *Limiter) PerMinute() float64 {
	if l.limiter.Limit() == rate.Inf {
		return -1
	}
	return float64(l.limiter.Limit()) * 60
}

// MultiLimiter keys limiters by endpoint family
type MultiLimiter struct {
	limiters map[string]*Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*Limiter),
	}
}

// AddLimiter adds a rate limiter for a specific key
func (m *MultiLimiter) AddLimiter(key string, limiter *Limiter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[key] = limiter
}

// Get returns the limiter for key
func (m *MultiLimiter) Get(key string) (*Limiter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.limiters[key]
	return l, ok
}

// Wait waits for all specified limiters. Keys without a limiter pass through.
func (m *MultiLimiter) Wait(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		limiter, ok := m.Get(key)
		if !ok {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
