package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// RedisKVRepository stores slots as plain Redis strings under a key prefix.
type RedisKVRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisKVRepository constructs a Redis-backed store.
func NewRedisKVRepository(client *redis.Client, prefix string) *RedisKVRepository {
	return &RedisKVRepository{client: client, prefix: prefix}
}

// Get retrieves the raw value stored for key.
func (r *RedisKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if r.client == nil {
		return nil, appErrors.ErrKeyNotFound
	}

	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

// Put stores the value without expiry.
func (r *RedisKVRepository) Put(ctx context.Context, key string, value []byte) error {
	if r.client == nil {
		return fmt.Errorf("redis put %s: client not configured", key)
	}
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the key.
func (r *RedisKVRepository) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *RedisKVRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *RedisKVRepository) key(key string) string {
	return r.prefix + key
}
