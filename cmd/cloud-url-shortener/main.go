package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Pejo-306/cloud-url-shortener/internal/appconfig"
	"github.com/Pejo-306/cloud-url-shortener/internal/config"
	redisdb "github.com/Pejo-306/cloud-url-shortener/internal/database/redis"
	"github.com/Pejo-306/cloud-url-shortener/internal/quota"
	"github.com/Pejo-306/cloud-url-shortener/internal/service"
	"github.com/Pejo-306/cloud-url-shortener/internal/shortcode"

	myhttp "github.com/Pejo-306/cloud-url-shortener/internal/api/http"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	const op = "main.run"

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	logger := httplog.NewLogger("cloud-url-shortener", httplog.Options{
		LogLevel: slog.LevelInfo,
		JSON:     cfg.Env == config.EnvProd,
		Concise:  cfg.Env != config.EnvProd,
	})

	// Reject unusable fallback codec parameters at startup instead of on the
	// first request that has to fall back to them.
	fb := cfg.Shortener.Fallback
	if _, err := shortcode.New(fb.Salt, fb.Multiplier, fb.ShortcodeLength); err != nil {
		return fmt.Errorf("%s: invalid fallback shortener parameters: %w", op, err)
	}

	storeClient, err := redisdb.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to datastore: %w", op, err)
	}

	cacheClient, err := redisdb.New(ctx, cfg.CacheRedis)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to config cache store: %w", op, err)
	}

	keys := redisdb.NewKeySchema(cfg.Redis.KeyPrefix)
	linkRepo := redisdb.NewLinkRepository(storeClient, keys)
	quotaStore := redisdb.NewQuotaStore(storeClient)

	userQuota := quota.NewUserQuota(quotaStore, keys.UserQuotaKey)
	hitQuota := quota.NewLinkHitQuota(quotaStore, keys.LinkHitsKey)

	var source appconfig.Source
	if cfg.AppConfig.Endpoint == "" {
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

	configs := appconfig.NewCache(
		appconfig.NewRedisBackend(cacheClient),
		source,
		appconfig.NewKeySchema(cfg.CacheRedis.KeyPrefix),
		logger.Logger,
	)

	svc := service.NewShortenerService(linkRepo, userQuota, hitQuota, configs, cfg.Shortener.LinkTTL)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        myhttp.NewRouter(logger, svc, cfg.BaseURL),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		if err := storeClient.Close(); err != nil {
			return fmt.Errorf("%s: failed to close datastore client: %w", op, err)
		}

		if err := cacheClient.Close(); err != nil {
			return fmt.Errorf("%s: failed to close config cache client: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
