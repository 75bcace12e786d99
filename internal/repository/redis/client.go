package redis

import (
	"context"
	"fmt"

	"github.com/Rrens/teamspace/internal/config"
	"github.com/redis/go-redis/v9"
)

// Client holds the connection shared by the identity cache and the rate
// limiter
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis and fails fast when the server is unreachable
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	rdb := redis.NewClient(opts)

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return &Client{rdb: rdb}, nil
}

// Ping implements the readiness probe
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
