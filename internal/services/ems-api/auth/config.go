package auth

import (
	"strings"
	"time"

	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/obs"
)

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Env is the deployment mode. Only an explicit development value
	// enables the test token.
	Env string
	// TestToken, when set, authenticates as TestIdentity outside
	// production.
	TestToken string
}

func (c Config) NonProduction() bool {
	return obs.DevEnv(strings.TrimSpace(c.Env))
}

func (c Config) withDefaults() Config {
	if c.AccessTTL <= 0 {
		c.AccessTTL = 15 * time.Minute
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = 30 * 24 * time.Hour
	}
	return c
}

// TestIdentity is what the test token resolves to.
var TestIdentity = identity.Identity{
	ID:    "test-user",
	Role:  identity.RoleAdmin,
	Email: "test@ems.local",
}
