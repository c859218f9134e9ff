package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "trip-assistant:action:"

// RedisStore shares claims across replicas through Redis.
type RedisStore struct {
	client redis.UniversalClient
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore parses url and returns a Redis-backed store.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Claim reserves key with SETNX.
func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	k := redisKeyPrefix + key
	ok, err := s.client.SetNX(ctx, k, Pending, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to claim action key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	value, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return Pending, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read action key: %w", err)
	}
	return value, false, nil
}

// Complete records the result for key.
func (s *RedisStore) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to record action result: %w", err)
	}
	return nil
}

// Release drops the claim on key.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release action key: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
