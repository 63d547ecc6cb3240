package main

import (
	"context"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	config "github.com/NordCoder/ems/internal/config/ems-api"
	"github.com/NordCoder/ems/internal/obs"
	pg "github.com/NordCoder/ems/internal/repository/postgres"
	"github.com/NordCoder/ems/internal/services/ems-api/rest"
)

func buildHTTPServer(cfg *config.Config, a *app, db *pg.DB) (*http.Server, error) {
	mux := runtime.NewServeMux()
	if err := a.register(rest.NewRouter(mux)); err != nil {
		return nil, err
	}

	root := http.NewServeMux()
	root.Handle("/", obs.HTTPHandler(mux, "ems-api"))
	root.Handle("/metrics", obs.MetricsHandler())
	root.HandleFunc("/healthz", obs.HealthHandler(func(ctx context.Context) error {
		return db.Ping(ctx)
	}))

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           root,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
