package main

import (
	"context"
	"fmt"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth"
	"github.com/MrEthical07/recipeauth/cache"
	"github.com/MrEthical07/recipeauth/cache/postgres"
	"github.com/MrEthical07/recipeauth/identity/rest"
)

// backend is the storage a command runs against. close releases everything
// openBackend acquired.
type backend struct {
	store cache.Store
	redis redis.UniversalClient
	close func()
}

func openBackend(ctx context.Context, cfg cliConfig, log *zap.Logger) (*backend, error) {
	switch cfg.Store {
	case storeFile:
		f, err := cache.NewFile(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		log.Debug("using file store", zap.String("dir", cfg.Dir))
		return &backend{store: f, close: func() {}}, nil

	case storeRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{cfg.RedisAddr},
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		log.Debug("using redis store", zap.String("addr", cfg.RedisAddr))
		return &backend{redis: client, close: func() { _ = client.Close() }}, nil

	case storePostgres:
		if err := postgres.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Debug("using postgres store")
		return &backend{store: postgres.New(pool), close: pool.Close}, nil

	case storeMiniredis:
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{mr.Addr()},
		})
		log.Warn("using in-process miniredis; state is lost on exit", zap.String("addr", mr.Addr()))
		return &backend{redis: client, close: func() {
			_ = client.Close()
			mr.Close()
		}}, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

func buildEngine(cfg cliConfig, b *backend, log *zap.Logger) (*recipeauth.Engine, error) {
	builder := recipeauth.New().WithLogger(log)
	if b.redis != nil {
		builder.WithRedis(b.redis)
	} else {
		builder.WithStore(b.store)
	}
	if cfg.APIKey != "" {
		builder.WithProvider(rest.New(rest.Config{
			APIKey:            cfg.APIKey,
			Endpoint:          cfg.Endpoint,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Logger:            log.Named("provider"),
		}))
	}
	return builder.Build()
}
