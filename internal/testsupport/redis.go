package testsupport

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"ossy/internal/adapters/config"
)

// MemoryRedis starts an in-memory Redis for the test and returns it with a
// connected client and the matching config. Both are closed on cleanup.
func MemoryRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, config.RedisConfig) {
	t.Helper()

	mr := miniredis.RunT(t)

	host, portStr, err := net.SplitHostPort(mr.Addr())
	if err != nil {
		t.Fatalf("parse miniredis addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse miniredis port: %v", err)
	}
	cfg := config.RedisConfig{Host: host, Port: port}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client, cfg
}

// NewRedisClient connects to a real Redis for integration tests and ensures database cleanup.
func NewRedisClient(t *testing.T, cfg config.RedisConfig) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis before test: %v", err)
	}

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return client
}
