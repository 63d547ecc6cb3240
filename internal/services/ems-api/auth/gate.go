package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/apperr"
	tokens "github.com/NordCoder/ems/internal/auth"
	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/obs"
)

// Gate resolves the caller of a request from its Authorization header.
// It holds no per-request state and is safe for concurrent use.
type Gate struct {
	cfg   Config
	codec *tokens.Codec
	dir   identity.Directory
	log   *zap.Logger
}

func NewGate(cfg Config, codec *tokens.Codec, dir identity.Directory, log *zap.Logger) *Gate {
	if codec == nil {
		codec = tokens.NewCodec()
	}
	return &Gate{cfg: cfg, codec: codec, dir: dir, log: obs.OrNop(log).Named("auth.gate")}
}

// Authenticate verifies the bearer token and looks the principal up once.
// The returned error is always an *apperr.Error.
func (g *Gate) Authenticate(ctx context.Context, authorization string) (*identity.Identity, error) {
	log := obs.WithTrace(ctx, g.log)

	raw, ok := bearer(authorization)
	if !ok {
		return nil, g.deny(log, "no_token", "", apperr.Unauthorized("No token provided"))
	}

	if len(g.cfg.AccessSecret) == 0 {
		authOutcomes.WithLabelValues(flowAccess, "misconfigured").Inc()
		log.Error("access token secret is not configured")
		return nil, apperr.Misconfigured("access token secret not configured")
	}

	if g.isTestToken(raw) {
		if !g.cfg.NonProduction() {
			authOutcomes.WithLabelValues(flowAccess, "test_token_rejected").Inc()
			log.Error("security violation: test token presented outside development",
				zap.String("env", g.cfg.Env))
			return nil, apperr.Unauthorized("Authentication failed")
		}
		id := TestIdentity
		authOutcomes.WithLabelValues(flowAccess, "test_token").Inc()
		log.Warn("authenticated with test token",
			zap.String("principal", id.ID), zap.String("env", g.cfg.Env))
		return &id, nil
	}

	claims, err := g.codec.Verify(raw, g.cfg.AccessSecret)
	if err != nil {
		reason, cerr := verifyFailure(err)
		return nil, g.deny(log.With(zap.NamedError("cause", err)), reason, "", cerr)
	}

	if claims.ID == "" || !claims.Role.Valid() {
		return nil, g.deny(log, "invalid_payload", claims.ID, apperr.Unauthorized("Invalid token payload"))
	}

	user, err := g.dir.GetByID(ctx, claims.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, g.deny(log, "user_not_found", claims.ID, apperr.Unauthorized("User not found"))
	}
	if err != nil {
		authOutcomes.WithLabelValues(flowAccess, "directory_error").Inc()
		log.Error("user lookup failed", zap.String("principal", claims.ID), zap.Error(err))
		return nil, apperr.Upstream("user directory unavailable", err)
	}

	if claims.RefreshToken != "" &&
		subtle.ConstantTimeCompare([]byte(claims.RefreshToken), []byte(user.RefreshToken)) != 1 {
		return nil, g.deny(log, "blacklisted", claims.ID, apperr.Unauthorized("Token blacklisted"))
	}

	id := claims.Identity()
	authOutcomes.WithLabelValues(flowAccess, "ok").Inc()
	log.Info("authenticated", zap.String("principal", id.ID), zap.String("role", string(id.Role)))
	return id, nil
}

func (g *Gate) isTestToken(raw string) bool {
	return g.cfg.TestToken != "" &&
		subtle.ConstantTimeCompare([]byte(raw), []byte(g.cfg.TestToken)) == 1
}

func (g *Gate) deny(log *zap.Logger, reason, principal string, err error) error {
	authOutcomes.WithLabelValues(flowAccess, reason).Inc()
	fields := []zap.Field{zap.String("reason", reason)}
	if principal != "" {
		fields = append(fields, zap.String("principal", principal))
	}
	log.Warn("authentication denied", fields...)
	return err
}
