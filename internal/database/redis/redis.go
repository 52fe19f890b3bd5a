// Package redis implements the atomic key-value store backing the counter,
// the link registry, and the quota counters. Every operation is a single
// round-trip against one key (or one MULTI/EXEC block); the store's own
// single-key atomicity is the only concurrency primitive relied upon.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pejo-306/cloud-url-shortener/internal/config"
	"github.com/Pejo-306/cloud-url-shortener/internal/database"
)

// New connects a Redis client and verifies connectivity with a bounded ping.
func New(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	const op = "redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Username: cfg.Username,
		Password: cfg.Password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: failed to connect to redis at %s: %w", op, cfg.Addr, err)
	}

	return client, nil
}

// storeErr wraps a transport-level failure so consumers can classify it
// through the degradation table without inspecting driver errors.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, database.ErrStoreUnavailable, err)
}
