package testsupport

import (
	"fmt"
	"os"
	"testing"

	"ossy/internal/adapters/config"
)

// RedisConfigFromEnv reads the Redis settings for integration tests.
// The test is skipped when REDIS_HOST is not set.
func RedisConfigFromEnv(t *testing.T) config.RedisConfig {
	t.Helper()

	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("integration environment missing, set REDIS_HOST to run")
	}

	return config.RedisConfig{
		Host:     host,
		Port:     intValue("REDIS_PORT", 6379),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       intValue("REDIS_DB", 0),
	}
}

func intValue(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		_, err := fmt.Sscanf(val, "%d", &parsed)
		if err == nil {
			return parsed
		}
	}

	return fallback
}
