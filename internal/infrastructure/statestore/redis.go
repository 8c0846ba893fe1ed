package statestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shopify-oauth-layer/internal/ports"
)

// RedisStore keeps state in Redis so any instance can serve the callback.
type RedisStore struct {
	db redis.UniversalClient
}

var _ ports.StateStore = (*RedisStore)(nil)

// NewRedisStore wraps an established Redis client
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{db: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.db.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ports.ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get state: %w", err)
	}
	return val, nil
}

// Set stores value with SET EX; Redis evicts it once ttl elapses.
func (s *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := s.db.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set state: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// Consume reads and removes the key with GETDEL.
func (s *RedisStore) Consume(ctx context.Context, key string) (string, error) {
	val, err := s.db.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ports.ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume state: %w", err)
	}
	return val, nil
}

// Connect parses url and pings the server, retrying until ctx expires.
func Connect(ctx context.Context, url string, attempts int, interval time.Duration) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for range attempts {
		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("redis not ready: %w", errors.Join(lastErr, ctx.Err()))
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("redis not ready: %w", lastErr)
}
