package router

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage adapts a go-redis client to the fiber.Storage interface so
// rate limiter counters survive restarts and are shared across instances.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage wraps an existing Redis client for use as middleware storage.
// The caller keeps ownership of the client and is responsible for closing it.
func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

// GetWithContext returns the value for the given key, or nil when the key does not exist
func (s *RedisStorage) GetWithContext(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Get returns the value for the given key, or nil when the key does not exist
func (s *RedisStorage) Get(key string) ([]byte, error) {
	return s.GetWithContext(context.Background(), key)
}

// SetWithContext stores the value under the given key with an expiration, 0 meaning no expiry
func (s *RedisStorage) SetWithContext(ctx context.Context, key string, val []byte, exp time.Duration) error {
	return s.client.Set(ctx, key, val, exp).Err()
}

// Set stores the value under the given key with an expiration, 0 meaning no expiry
func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	return s.SetWithContext(context.Background(), key, val, exp)
}

// DeleteWithContext removes the given key
func (s *RedisStorage) DeleteWithContext(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Delete removes the given key
func (s *RedisStorage) Delete(key string) error {
	return s.DeleteWithContext(context.Background(), key)
}

// ResetWithContext removes all keys in the configured Redis database
func (s *RedisStorage) ResetWithContext(ctx context.Context) error {
	return s.client.FlushDB(ctx).Err()
}

// Reset removes all keys in the configured Redis database
func (s *RedisStorage) Reset() error {
	return s.ResetWithContext(context.Background())
}

// Close is a no-op; the underlying client is shared and closed by its owner
func (s *RedisStorage) Close() error {
	return nil
}
