package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// BlacklistToken marks a refresh token JTI as revoked for the given TTL.
// The key expires with the token itself, so the blacklist never outgrows
// the set of live tokens.
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("token:blacklist:%s", jti), "1", ttl).Err()
}

// IsTokenBlacklisted checks whether a refresh token JTI has been revoked
func (c *Client) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("token:blacklist:%s", jti)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// Ping verifies the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
