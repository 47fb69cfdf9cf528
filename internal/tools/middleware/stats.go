package middleware

import (
	"context"
	"time"

	"ossy/internal/metrics"
	"ossy/internal/tools"
	"ossy/pkg/errors"
)

// StatsMiddleware records tool latency in Prometheus and leaves a breadcrumb
// in the error tracker so a later failure in the run shows the tool call.
type StatsMiddleware struct {
	tracker errors.Tracker
}

// NewStatsMiddleware constructs the middleware. tracker may be nil.
func NewStatsMiddleware(tracker errors.Tracker) *StatsMiddleware {
	return &StatsMiddleware{tracker: tracker}
}

// Wrap adds metrics and breadcrumbs around a tool.
func (m *StatsMiddleware) Wrap(t tools.Tool) tools.Tool {
	return tools.New(t.Name(), t.Description(), t.Parameters(), func(ctx context.Context, args string) (string, error) {
		start := time.Now()
		result, err := t.Call(ctx, args)
		duration := time.Since(start)

		metrics.RecordToolExecution(t.Name(), duration, err)

		if m != nil && m.tracker != nil {
			level := errors.LevelInfo
			if err != nil {
				level = errors.LevelError
			}
			m.tracker.AddBreadcrumb(ctx, "tool "+t.Name(), "tool", level, map[string]interface{}{
				"args":        args,
				"duration_ms": duration.Milliseconds(),
				"result_size": len(result),
			})
		}

		return result, err
	})
}

// Middleware decorates a tool
type Middleware interface {
	Wrap(t tools.Tool) tools.Tool
}

// Chain applies middlewares in order; the first one ends up outermost.
func Chain(t tools.Tool, mws ...Middleware) tools.Tool {
	for i := len(mws) - 1; i >= 0; i-- {
		t = mws[i].Wrap(t)
	}
	return t
}
