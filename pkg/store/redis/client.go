// Package redis owns the shared Redis connection. Both the blob store and
// the queue substrate ride on the same instance.
package redis

import (
	"context"
	"fmt"

	"pixelgate/pkg/config"

	"github.com/go-redis/redis/v8"
)

// Client Redis client wrapper
type Client struct {
	client *redis.Client
}

// NewClient creates a Redis client and verifies connectivity
func NewClient(cfg config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{client: client}, nil
}

// GetClient retrieves the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}
