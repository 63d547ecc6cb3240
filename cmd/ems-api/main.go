package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	config "github.com/NordCoder/ems/internal/config/ems-api"
)

func main() {
	_ = godotenv.Load()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("EMS_API_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting ems-api", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := initDB(rootCtx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rc, err := initCache(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("redis init", zap.Error(err))
	}
	defer func() { _ = rc.Close() }()

	a := wire(cfg, db, rc, logger)

	grpcServer, hs, grpcLn, err := buildGRPCServer(cfg, a.gate)
	if err != nil {
		logger.Fatal("build grpc", zap.Error(err))
	}
	httpSrv, err := buildHTTPServer(cfg, a, db)
	if err != nil {
		logger.Fatal("build http", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error { return serveGRPC(grpcServer, grpcLn, cfg, logger) })
	g.Go(func() error {
		if err := serveHTTP(httpSrv, logger); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		rc.Watch(gctx, cfg.Redis.PingInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		hs.Shutdown()

		shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer cancel()
		_ = httpSrv.Shutdown(shCtx)
		grpcServer.GracefulStop()
		return nil
	})

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	if err := g.Wait(); err != nil {
		logger.Error("ems-api stopped", zap.Error(err))
	}
	logger.Info("bye")
}
