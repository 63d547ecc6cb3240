package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/cache"
	config "github.com/NordCoder/ems/internal/config/ems-api"
	"github.com/NordCoder/ems/internal/obs"
	pg "github.com/NordCoder/ems/internal/repository/postgres"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.AsLoggerConfig())
}

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	oc := cfg.OTEL.AsOTELConfig()
	oc.Env = cfg.App.Env
	closer, err := obs.SetupOTel(ctx, oc)
	if err != nil {
		return nil, err
	}
	return closer.Shutdown, nil
}

func initDB(ctx context.Context, cfg *config.Config) (*pg.DB, error) {
	return pg.New(ctx, cfg.DB)
}

// initCache never fails on an unreachable Redis; the client starts
// disconnected and Watch brings it back.
func initCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*cache.RedisClient, error) {
	return cache.NewRedisClient(ctx, cfg.Redis.AsRedisConfig(), logger.Named("redis"))
}
