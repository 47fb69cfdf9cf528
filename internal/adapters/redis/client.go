package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"ossy/internal/adapters/config"
	"ossy/pkg/errors"
)

const connectTimeout = 5 * time.Second

// Client wraps the Redis connection that backs the distributed LLM limiter
type Client struct {
	rdb *redis.Client
}

// NewClient connects and verifies the connection with a ping
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Mark(errors.Wrapf(err, "connect redis %s", cfg.Addr()), errors.ErrUnavailable)
	}

	return &Client{rdb: rdb}, nil
}

// Client returns the underlying Redis client
func (c *Client) Client() *redis.Client {
	return c.rdb
}

// Health checks Redis connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
