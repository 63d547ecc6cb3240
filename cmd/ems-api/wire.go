package main

import (
	"go.uber.org/zap"

	tokens "github.com/NordCoder/ems/internal/auth"
	"github.com/NordCoder/ems/internal/cache"
	config "github.com/NordCoder/ems/internal/config/ems-api"
	"github.com/NordCoder/ems/internal/outbox"
	pg "github.com/NordCoder/ems/internal/repository/postgres"
	"github.com/NordCoder/ems/internal/services/ems-api/auth"
	"github.com/NordCoder/ems/internal/services/ems-api/hardware"
	"github.com/NordCoder/ems/internal/services/ems-api/license"
	"github.com/NordCoder/ems/internal/services/ems-api/rest"
	"github.com/NordCoder/ems/internal/services/ems-api/ticket"
	"github.com/NordCoder/ems/internal/services/ems-api/users"
)

type app struct {
	gate   *auth.Gate
	guards *auth.Guards

	auth     *auth.Server
	tickets  *ticket.Server
	hardware *hardware.Server
	licenses *license.Server
	users    *users.Server
}

func wire(cfg *config.Config, db *pg.DB, cc cache.Client, l *zap.Logger) *app {
	authCfg := cfg.AsAuthConfig()
	codec := tokens.NewCodec(tokens.WithLeeway(cfg.Auth.Leeway))

	userRepo := pg.NewUserRepo(db)
	tx := pg.NewTransactor(db, l)
	recorder := outbox.NewRecorder(pg.NewOutboxRepo(db))
	aside := cache.NewAside(cc, cfg.Redis.TTL, l.Named("cache"))

	refresh := auth.NewRefreshValidator(authCfg, codec, userRepo, l)
	authUC := auth.NewUseCase(userRepo, codec, refresh, authCfg, l)

	return &app{
		gate:   auth.NewGate(authCfg, codec, userRepo, l),
		guards: auth.NewGuards(l),

		auth:     auth.NewServer(authUC, l),
		tickets:  ticket.NewServer(ticket.New(pg.NewTicketRepo(db), tx, recorder, aside, l), l),
		hardware: hardware.NewServer(hardware.New(pg.NewHardwareRepo(db), tx, recorder, aside, l), l),
		licenses: license.NewServer(license.New(pg.NewLicenseRepo(db), tx, recorder, aside, l), l),
		users:    users.NewServer(userRepo, l),
	}
}

func (a *app) register(rt *rest.Router) error {
	if err := a.auth.Register(rt, a.gate); err != nil {
		return err
	}
	if err := a.tickets.Register(rt, a.gate); err != nil {
		return err
	}
	if err := a.hardware.Register(rt, a.gate, a.guards); err != nil {
		return err
	}
	if err := a.licenses.Register(rt, a.gate, a.guards); err != nil {
		return err
	}
	return a.users.Register(rt, a.gate, a.guards)
}
