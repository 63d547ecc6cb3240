package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/NordCoder/ems/internal/apperr"
	tokens "github.com/NordCoder/ems/internal/auth"
	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/obs"
)

var errInvalidCredentials = apperr.Unauthorized("Invalid email or password")

type Session struct {
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
	ExpiresIn    int64              `json:"expiresIn"`
	User         *identity.Identity `json:"user"`
}

// Usecase issues, rotates and revokes sessions.
type Usecase struct {
	users   identity.Repo
	codec   *tokens.Codec
	refresh *RefreshValidator
	cfg     Config
	log     *zap.Logger
	now     func() time.Time
}

func NewUseCase(users identity.Repo, codec *tokens.Codec, refresh *RefreshValidator, cfg Config, log *zap.Logger) *Usecase {
	if codec == nil {
		codec = tokens.NewCodec()
	}
	return &Usecase{
		users:   users,
		codec:   codec,
		refresh: refresh,
		cfg:     cfg.withDefaults(),
		log:     obs.OrNop(log).Named("auth.usecase"),
		now:     time.Now,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (u *Usecase) Login(ctx context.Context, email, password string) (*Session, error) {
	rec, err := u.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, apperr.Upstream("user lookup", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.Password), []byte(password)) != nil {
		obs.WithTrace(ctx, u.log).Warn("login failed", zap.String("principal", rec.ID))
		return nil, errInvalidCredentials
	}

	id := rec.Identity()
	s, err := u.issue(ctx, &id)
	if err != nil {
		return nil, err
	}
	obs.WithTrace(ctx, u.log).Info("login", zap.String("principal", id.ID), zap.String("role", string(id.Role)))
	return s, nil
}

// Refresh rotates both tokens. The presented refresh token stops working
// as soon as the new digest is stored.
func (u *Usecase) Refresh(ctx context.Context, raw string) (*Session, error) {
	id, err := u.refresh.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}
	return u.issue(identity.WithIdentity(ctx, id), id)
}

// Logout clears the stored digest, which blacklists every access token
// issued with it.
func (u *Usecase) Logout(ctx context.Context, id *identity.Identity) error {
	if id == nil {
		return apperr.Unauthorized("Authentication required")
	}
	if id.ID == TestIdentity.ID {
		return nil
	}
	if err := u.users.SetRefreshToken(ctx, id.ID, ""); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return apperr.Upstream("revoke session", err)
	}
	obs.WithTrace(ctx, u.log).Info("logout", zap.String("principal", id.ID))
	return nil
}

func (u *Usecase) issue(ctx context.Context, id *identity.Identity) (*Session, error) {
	if len(u.cfg.AccessSecret) == 0 || len(u.cfg.RefreshSecret) == 0 {
		u.log.Error("token secrets are not configured")
		return nil, apperr.Misconfigured("token secrets not configured")
	}
	now := u.now()

	refresh, err := u.codec.Sign(&tokens.Claims{
		ID:   id.ID,
		Role: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(u.cfg.RefreshTTL)),
		},
	}, u.cfg.RefreshSecret)
	if err != nil {
		return nil, err
	}
	digest := tokens.HashToken(refresh)

	access, err := u.codec.Sign(&tokens.Claims{
		ID:            id.ID,
		Role:          id.Role,
		Employee:      id.Employee,
		Email:         id.Email,
		MsGraphUserID: id.MsGraphUserID,
		RefreshToken:  digest,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(u.cfg.AccessTTL)),
		},
	}, u.cfg.AccessSecret)
	if err != nil {
		return nil, err
	}

	if err := u.users.SetRefreshToken(ctx, id.ID, digest); err != nil {
		return nil, apperr.Upstream("store session", err)
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(u.cfg.AccessTTL.Seconds()),
		User:         id,
	}, nil
}
