package blob

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "pixelgate:blob:"

// RedisStore blob store backed by Redis byte values. Image payloads and
// processed outputs share the Redis instance with the queue substrate, so a
// single address serves the whole gateway.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration // 0 keeps blobs forever
}

// NewRedisStore creates a Redis-backed blob store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func dataKey(key string) string {
	return keyPrefix + key
}

func typeKey(key string) string {
	return keyPrefix + key + ":type"
}

// Put stores data under key
func (s *RedisStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, dataKey(key), data, s.ttl)
	pipe.Set(ctx, typeKey(key), contentType, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("blob: failed to store %s: %w", key, err)
	}
	return nil
}

// Get returns the stored bytes and content type
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	data, err := s.client.Get(ctx, dataKey(key)).Bytes()
	if err == redis.Nil {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("blob: failed to read %s: %w", key, err)
	}

	contentType, err := s.client.Get(ctx, typeKey(key)).Result()
	if err == redis.Nil {
		contentType = "application/octet-stream"
	} else if err != nil {
		return nil, "", fmt.Errorf("blob: failed to read content type for %s: %w", key, err)
	}
	return data, contentType, nil
}

// Exists reports whether key holds a value
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, dataKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("blob: failed to check %s: %w", key, err)
	}
	return n > 0, nil
}
