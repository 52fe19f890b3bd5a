package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/Pejo-306/cloud-url-shortener/internal/appconfig"
	"github.com/Pejo-306/cloud-url-shortener/internal/config"
	redisdb "github.com/Pejo-306/cloud-url-shortener/internal/database/redis"
)

// warm-cache refreshes the configuration cache out of band, so request-time
// lookups keep hitting warm entries instead of paying the source round trip.
// It is meant to run on a schedule, roughly once per cache tier TTL.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(ctx, logger); err != nil {
		logger.Error("cache warmup failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	const op = "main.run"

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cacheClient, err := redisdb.New(ctx, cfg.CacheRedis)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to config cache store: %w", op, err)
	}
	defer cacheClient.Close()

	var source appconfig.Source
	if cfg.AppConfig.Endpoint == "" {
		fb := cfg.Shortener.Fallback
		source = appconfig.NewStaticSource(appconfig.Payload{
			Salt:             fb.Salt,
			Multiplier:       fb.Multiplier,
			ShortcodeLength:  fb.ShortcodeLength,
			UserMonthlyQuota: fb.UserMonthlyQuota,
			LinkHitsQuota:    fb.LinkHitsQuota,
		})
	} else {
		source = appconfig.NewHTTPSource(cfg.AppConfig)
	}

	cache := appconfig.NewCache(
		appconfig.NewRedisBackend(cacheClient),
		source,
		appconfig.NewKeySchema(cfg.CacheRedis.KeyPrefix),
		logger,
	)

	version, err := cache.Warm(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("configuration cache warmed", slog.Int("version", version))

	return nil
}
