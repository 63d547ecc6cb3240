// Package authtest wires a real Gate over an in-memory directory so route
// tests can authenticate as any user.
package authtest

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	tokens "github.com/NordCoder/ems/internal/auth"
	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/services/ems-api/auth"
)

var Secret = []byte("authtest-access-secret-0123456789abcdef")

type Directory map[string]*identity.User

func (d Directory) GetByID(_ context.Context, id string) (*identity.User, error) {
	u, ok := d[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func NewGate(users ...*identity.User) *auth.Gate {
	dir := Directory{}
	for _, u := range users {
		dir[u.ID] = u
	}
	cfg := auth.Config{AccessSecret: Secret, RefreshSecret: Secret, Env: "production"}
	return auth.NewGate(cfg, tokens.NewCodec(), dir, nil)
}

// Token mints a valid access token for u.
func Token(t *testing.T, u *identity.User) string {
	t.Helper()
	now := time.Now()
	s, err := tokens.NewCodec().Sign(&tokens.Claims{
		ID:       u.ID,
		Role:     u.Role,
		Employee: u.EmployeeID,
		Email:    u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}, Secret)
	require.NoError(t, err)
	return s
}

func User(id string, role identity.Role) *identity.User {
	return &identity.User{ID: id, Role: role, Email: id + "@example.com", EmployeeID: "E-" + id}
}
