package appconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by a Backend when the key holds no entry.
var ErrCacheMiss = errors.New("cache miss")

// ErrCacheUnavailable is returned when the cache backing store is
// unreachable. Per the degradation table the cache is then bypassed in favor
// of the authoritative source.
var ErrCacheUnavailable = errors.New("cache backing store unavailable")

// Backend is the cache backing store: a plain TTL'd key-value surface.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisBackend implements Backend on a Redis (ElastiCache-style) deployment,
// which may be separate from the primary datastore.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "appconfig.RedisBackend.Get"

	blob, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: key %q: %w", op, key, ErrCacheMiss)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, ErrCacheUnavailable, err)
	}

	return blob, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	const op = "appconfig.RedisBackend.Set"

	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrCacheUnavailable, err)
	}

	return nil
}

func (b *RedisBackend) Del(ctx context.Context, keys ...string) error {
	const op = "appconfig.RedisBackend.Del"

	if err := b.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrCacheUnavailable, err)
	}

	return nil
}
