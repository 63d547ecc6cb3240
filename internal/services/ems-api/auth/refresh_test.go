package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/ems/internal/apperr"
	tokens "github.com/NordCoder/ems/internal/auth"
)

func TestRefreshValidator(t *testing.T) {
	now := time.Now()
	u := employee()
	raw := sign(t, claimsFor(u, now.Add(time.Hour), now), refreshSecret)
	u.RefreshToken = tokens.HashToken(raw)

	t.Run("accepts current token", func(t *testing.T) {
		v := NewRefreshValidator(testConfig(), nil, newFakeUsers(u), nil)
		id, err := v.Validate(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, "u-1", id.ID)
	})

	t.Run("empty", func(t *testing.T) {
		users := newFakeUsers(u)
		_, err := NewRefreshValidator(testConfig(), nil, users, nil).Validate(context.Background(), "")
		assert.Equal(t, "Refresh token required", apperr.PublicMessage(err))
		assert.Zero(t, users.Lookups())
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.RefreshSecret = nil
		_, err := NewRefreshValidator(cfg, nil, newFakeUsers(u), nil).Validate(context.Background(), raw)
		assert.Equal(t, apperr.KindMisconfigured, apperr.KindOf(err))
	})

	t.Run("mismatch", func(t *testing.T) {
		other := *u
		other.RefreshToken = "digest-of-a-newer-token"
		_, err := NewRefreshValidator(testConfig(), nil, newFakeUsers(&other), nil).Validate(context.Background(), raw)
		assert.Equal(t, "Invalid refresh token", apperr.PublicMessage(err))
	})

	t.Run("revoked", func(t *testing.T) {
		other := *u
		other.RefreshToken = ""
		_, err := NewRefreshValidator(testConfig(), nil, newFakeUsers(&other), nil).Validate(context.Background(), raw)
		assert.Equal(t, "Invalid refresh token", apperr.PublicMessage(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := NewRefreshValidator(testConfig(), nil, newFakeUsers(), nil).Validate(context.Background(), raw)
		assert.Equal(t, "Invalid refresh token", apperr.PublicMessage(err))
	})

	t.Run("access token presented", func(t *testing.T) {
		access := sign(t, claimsFor(u, now.Add(time.Hour), now), accessSecret)
		_, err := NewRefreshValidator(testConfig(), nil, newFakeUsers(u), nil).Validate(context.Background(), access)
		assert.Equal(t, "Invalid token", apperr.PublicMessage(err))
	})

	t.Run("expired", func(t *testing.T) {
		old := sign(t, claimsFor(u, now.Add(-time.Minute), now.Add(-time.Hour)), refreshSecret)
		_, err := NewRefreshValidator(testConfig(), nil, newFakeUsers(u), nil).Validate(context.Background(), old)
		assert.Equal(t, "Token expired", apperr.PublicMessage(err))
	})
}
