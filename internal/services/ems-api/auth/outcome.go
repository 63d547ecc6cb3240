package auth

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NordCoder/ems/internal/apperr"
	tokens "github.com/NordCoder/ems/internal/auth"
)

var authOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ems_auth_outcomes_total",
	Help: "Authentication and authorization decisions by flow and reason.",
}, []string{"flow", "reason"})

const (
	flowAccess  = "access"
	flowRefresh = "refresh"
	flowGuard   = "guard"
)

// verifyFailure maps a codec error to an audit reason and the client error.
func verifyFailure(err error) (string, error) {
	switch {
	case errors.Is(err, tokens.ErrTokenExpired):
		return "expired", apperr.Unauthorized("Token expired")
	case errors.Is(err, tokens.ErrTokenMalformed):
		return "malformed", apperr.Unauthorized("Invalid token")
	case errors.Is(err, tokens.ErrTokenNotYetValid):
		return "not_active", apperr.Unauthorized("Token not active")
	default:
		return "verify_failed", apperr.Unauthorized("Authentication failed")
	}
}

// bearer extracts the token from an Authorization header value.
func bearer(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
