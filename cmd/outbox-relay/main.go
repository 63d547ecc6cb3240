package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	config "github.com/NordCoder/ems/internal/config/outbox-relay"
	"github.com/NordCoder/ems/internal/obs"
	"github.com/NordCoder/ems/internal/obs/retry"
	"github.com/NordCoder/ems/internal/outbox"
	"github.com/NordCoder/ems/internal/repository/kafka"
	pg "github.com/NordCoder/ems/internal/repository/postgres"
)

func wire(cfg *config.Config, repo *pg.OutboxRepo, prod *kafka.Producer, l *zap.Logger) *outbox.Runner {
	events := kafka.NewResourceEventsKafka(prod)
	dispatch := outbox.MakeGlobalOutboxHandler(events, retry.OutboxPolicy(l))
	return outbox.NewOutboxRunner(
		l,
		repo,
		dispatch,
		cfg.Relay.Workers,
		cfg.Relay.BatchSize,
		cfg.Relay.Wait,
		cfg.Relay.InProgressTTL,
	)
}

func main() {
	_ = godotenv.Load()

	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("OUTBOX_RELAY_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(obs.LogConfig{Level: cfg.LogLevel, App: "outbox-relay", Env: cfg.Env})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	oc := cfg.OTEL.AsOTELConfig()
	oc.Env = cfg.Env
	otelCloser, err := obs.SetupOTel(root, oc)
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	db, err := pg.New(root, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, db.Ping, l)

	prod := kafka.BootstrapProducer(root, cfg.Out.Brokers, cfg.Out.Topic, cfg.Out.Partitions, l)
	defer func() { _ = prod.Close() }()

	repo := pg.NewOutboxRepo(db)
	runner := wire(cfg, repo, prod, l)

	g, gctx := errgroup.WithContext(root)
	g.Go(func() error {
		runner.Run(gctx)
		return nil
	})
	g.Go(func() error {
		outbox.RunPurge(gctx, l.Named("purge"), repo, cfg.Relay.Retention, cfg.Relay.PurgeEvery)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return ms.Shutdown(shCtx)
	})

	l.Info("outbox relay started", zap.String("topic", cfg.Out.Topic), zap.Int("workers", cfg.Relay.Workers))
	if err := g.Wait(); err != nil {
		l.Warn("shutdown", zap.Error(err))
	}
	l.Info("bye")
}
