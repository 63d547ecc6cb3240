package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	tokens "github.com/NordCoder/ems/internal/auth"
	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/identity"
)

var (
	accessSecret  = []byte("access-secret-for-tests-0123456789abcdef")
	refreshSecret = []byte("refresh-secret-for-tests-0123456789abcdef")
)

func testConfig() Config {
	return Config{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
		Env:           "production",
	}
}

// fakeUsers is an in-memory identity.Repo that counts directory lookups.
type fakeUsers struct {
	mu      sync.Mutex
	byID    map[string]*identity.User
	lookups int
	err     error
}

func newFakeUsers(users ...*identity.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*identity.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) SetRefreshToken(_ context.Context, id, digest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.RefreshToken = digest
	return nil
}

func (f *fakeUsers) Lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func employee() *identity.User {
	return &identity.User{
		ID:            "u-1",
		Email:         "jane@example.com",
		Role:          identity.RoleEmployee,
		EmployeeID:    "E-100",
		MsGraphUserID: "graph-1",
		RefreshToken:  "current-digest",
	}
}

func withPassword(t *testing.T, u *identity.User, pw string) *identity.User {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	u.Password = string(h)
	return u
}

func claimsFor(u *identity.User, exp, nbf time.Time) *tokens.Claims {
	return &tokens.Claims{
		ID:            u.ID,
		Role:          u.Role,
		Employee:      u.EmployeeID,
		Email:         u.Email,
		MsGraphUserID: u.MsGraphUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			NotBefore: jwt.NewNumericDate(nbf),
		},
	}
}

func sign(t *testing.T, c *tokens.Claims, secret []byte) string {
	t.Helper()
	s, err := tokens.NewCodec().Sign(c, secret)
	require.NoError(t, err)
	return s
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}
