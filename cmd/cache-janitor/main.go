package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NordCoder/ems/internal/cache"
	config "github.com/NordCoder/ems/internal/config/cache-janitor"
	"github.com/NordCoder/ems/internal/obs"
	"github.com/NordCoder/ems/internal/repository/kafka"
	janitor "github.com/NordCoder/ems/internal/services/cache-janitor"
)

func main() {
	_ = godotenv.Load()

	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CACHE_JANITOR_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(obs.LogConfig{Level: cfg.LogLevel, App: "cache-janitor", Env: cfg.Env})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	// no OTLP exporter here; the propagator still links consumer spans
	if _, err := obs.SetupOTel(root, nil); err != nil {
		l.Fatal("otel init", zap.Error(err))
	}

	rc, err := cache.NewRedisClient(root, cache.RedisConfig{URL: cfg.Redis.URL, PingInterval: cfg.Redis.PingInterval}, l.Named("redis"))
	if err != nil {
		l.Fatal("redis init", zap.Error(err))
	}
	defer func() { _ = rc.Close() }()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, rc.Ping, l)

	cons := kafka.BootstrapConsumer(root, &kafka.ConsumerConfig{
		Brokers: cfg.In.Brokers,
		GroupID: cfg.In.GroupID,
		Topic:   cfg.In.Topic,
		Logger:  l,
	}, cfg.In.Partitions, l)
	defer func() { _ = cons.Close() }()

	ctrl := &janitor.Controller{
		Log: l,
		Sub: cons,
		UC: &janitor.Handler{
			Aside:     cache.NewAside(rc, cache.DefaultTTL, l.Named("cache")),
			Resources: cfg.ResourceSet(),
			Log:       l,
		},
	}

	g, gctx := errgroup.WithContext(root)
	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error {
		rc.Watch(gctx, cfg.Redis.PingInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return ms.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		l.Error("cache janitor stopped", zap.Error(err))
	}
	l.Info("bye")
}
