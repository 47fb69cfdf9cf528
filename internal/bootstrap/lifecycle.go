package bootstrap

import (
	"context"
	"sync"
	"time"

	"ossy/internal/adapters/kafka"
	redisclient "ossy/internal/adapters/redis"
	"ossy/internal/api"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
)

// Lifecycle manages graceful shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
	httpTimeout     time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 30 * time.Second,
		httpTimeout:     10 * time.Second,
	}
}

// WithHTTPTimeout sets how long in-flight requests (an agent run included) may take to drain
func (l *Lifecycle) WithHTTPTimeout(d time.Duration) *Lifecycle {
	if d > 0 {
		l.httpTimeout = d
	}
	return l
}

// Shutdown performs coordinated cleanup of all components in order:
// 1. No new requests accepted, in-flight runs drain
// 2. Goroutines finish
// 3. Producer closes after the last run published its event
// 4. Errors and logs flushed
// 5. Redis last, in-flight runs may still hold the limiter
func (l *Lifecycle) Shutdown(
	wg *sync.WaitGroup,
	httpServer *api.Server,
	kafkaProducer *kafka.Producer,
	redisClient *redisclient.Client,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	log.Info("[1/5] Stopping HTTP server...")
	if httpServer != nil {
		httpCtx, httpCancel := context.WithTimeout(shutdownCtx, l.httpTimeout)
		if err := httpServer.Shutdown(httpCtx); err != nil {
			log.Errorw("HTTP server shutdown failed", "error", err)
		}
		httpCancel()
	}

	log.Info("[2/5] Waiting for goroutines...")
	l.waitForGoroutines(wg, 5*time.Second, log)

	log.Info("[3/5] Closing Kafka producer...")
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Errorw("Kafka producer close failed", "error", err)
		} else {
			log.Info("✓ Kafka producer closed")
		}
	}

	log.Info("[4/5] Flushing error tracker...")
	l.flushErrorTracker(shutdownCtx, errorTracker, log)

	log.Info("[5/5] Closing Redis...")
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Errorw("Redis close failed", "error", err)
		} else {
			log.Info("✓ Redis connection closed")
		}
	}

	if err := logger.Sync(); err != nil {
		log.Debugw("Log sync completed with warnings", "error", err)
	}

	log.Info("✅ Graceful shutdown complete")
}

// waitForGoroutines waits for all goroutines with a timeout
func (l *Lifecycle) waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("✓ All goroutines finished")
	case <-time.After(timeout):
		log.Warnw("⚠ Some goroutines did not finish within timeout", "timeout", timeout)
	}
}

// flushErrorTracker flushes the error tracker (Sentry, etc.)
func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Errorw("Error tracker flush failed", "error", err)
	} else {
		log.Info("✓ Error tracker flushed")
	}
}
