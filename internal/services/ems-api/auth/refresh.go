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

// RefreshValidator accepts a refresh token only if it is the one currently
// recorded for its user.
type RefreshValidator struct {
	cfg   Config
	codec *tokens.Codec
	dir   identity.Directory
	log   *zap.Logger
}

func NewRefreshValidator(cfg Config, codec *tokens.Codec, dir identity.Directory, log *zap.Logger) *RefreshValidator {
	if codec == nil {
		codec = tokens.NewCodec()
	}
	return &RefreshValidator{cfg: cfg, codec: codec, dir: dir, log: obs.OrNop(log).Named("auth.refresh")}
}

func (v *RefreshValidator) Validate(ctx context.Context, raw string) (*identity.Identity, error) {
	log := obs.WithTrace(ctx, v.log).With(zap.String("flow", flowRefresh))

	if raw == "" {
		return nil, v.deny(log, "no_token", "", apperr.Unauthorized("Refresh token required"))
	}
	if len(v.cfg.RefreshSecret) == 0 {
		authOutcomes.WithLabelValues(flowRefresh, "misconfigured").Inc()
		log.Error("refresh token secret is not configured")
		return nil, apperr.Misconfigured("refresh token secret not configured")
	}

	claims, err := v.codec.Verify(raw, v.cfg.RefreshSecret)
	if err != nil {
		reason, cerr := verifyFailure(err)
		return nil, v.deny(log.With(zap.NamedError("cause", err)), reason, "", cerr)
	}
	if claims.ID == "" {
		return nil, v.deny(log, "invalid_payload", "", apperr.Unauthorized("Invalid refresh token"))
	}

	user, err := v.dir.GetByID(ctx, claims.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, v.deny(log, "user_not_found", claims.ID, apperr.Unauthorized("Invalid refresh token"))
	}
	if err != nil {
		authOutcomes.WithLabelValues(flowRefresh, "directory_error").Inc()
		log.Error("user lookup failed", zap.String("principal", claims.ID), zap.Error(err))
		return nil, apperr.Upstream("user directory unavailable", err)
	}

	if user.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(tokens.HashToken(raw)), []byte(user.RefreshToken)) != 1 {
		return nil, v.deny(log, "mismatch", claims.ID, apperr.Unauthorized("Invalid refresh token"))
	}

	id := user.Identity()
	authOutcomes.WithLabelValues(flowRefresh, "ok").Inc()
	log.Info("refresh token accepted", zap.String("principal", id.ID))
	return &id, nil
}

func (v *RefreshValidator) deny(log *zap.Logger, reason, principal string, err error) error {
	authOutcomes.WithLabelValues(flowRefresh, reason).Inc()
	fields := []zap.Field{zap.String("reason", reason)}
	if principal != "" {
		fields = append(fields, zap.String("principal", principal))
	}
	log.Warn("refresh denied", fields...)
	return err
}
