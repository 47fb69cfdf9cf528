package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter_Burst(t *testing.T) {
	assert.Equal(t, 30, NewLimiter("pairs", 300).Burst())
	assert.Equal(t, 6, NewLimiter("boosts", 60).Burst())
	assert.Equal(t, 1, NewLimiter("slow", 5).Burst())
}

func TestLimiter_AllowExhaustsBurst(t *testing.T) {
	l := NewLimiter("boosts", 60)

	for i := 0; i < 6; i++ {
		require.True(t, l.Allow(), "request %d should fit in the burst", i)
	}
	assert.False(t, l.Allow())
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	l := NewLimiter("slow", 1)
	require.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter slow")
}

func TestLimiter_Unlimited(t *testing.T) {
	l := NewLimiter("off", 0)
	for i := 0; i < 1000; i++ {
		require.True(t, l.Allow())
	}
}

func TestMultiLimiter(t *testing.T) {
	m := NewMultiLimiter()
	m.AddLimiter("pairs", NewLimiter("pairs", 300))

	_, ok := m.Get("pairs")
	assert.True(t, ok)

	// Unknown keys pass through
	assert.NoError(t, m.Wait(context.Background(), "pairs", "unknown"))
}
