package redis

import (
	"context"
	_ "embed"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed consume_init.lua
var consumeInitScript string

// QuotaStore implements the quota engine's atomic primitive on top of a Lua
// script: create-at-initial if absent, apply the delta, arm the TTL exactly
// once, all in a single round-trip. Subsequent operations never refresh the
// TTL, so a quota window is never extended past the month boundary.
type QuotaStore struct {
	client *redis.Client
	script *redis.Script
}

func NewQuotaStore(client *redis.Client) *QuotaStore {
	return &QuotaStore{
		client: client,
		script: redis.NewScript(consumeInitScript),
	}
}

func (s *QuotaStore) ConsumeInit(ctx context.Context, key string, initial, delta int64, ttl time.Duration) (int64, error) {
	const op = "redis.QuotaStore.ConsumeInit"

	ttlSeconds := int64(ttl / time.Second)
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	value, err := s.script.Run(ctx, s.client, []string{key}, initial, delta, ttlSeconds).Int64()
	if err != nil {
		return 0, storeErr(op, err)
	}

	return value, nil
}
