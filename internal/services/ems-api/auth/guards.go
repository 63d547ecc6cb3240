package auth

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/apperr"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/obs"
)

// RequestData is the transport-free view of a request a guard may inspect.
type RequestData struct {
	Params map[string]string
	Body   map[string]any
}

// Guards are pure access decisions over an already resolved identity.
type Guards struct {
	log *zap.Logger
}

func NewGuards(log *zap.Logger) *Guards {
	return &Guards{log: obs.OrNop(log).Named("auth.guard")}
}

// RequireRole passes any authenticated caller when allowed is empty.
func (g *Guards) RequireRole(id *identity.Identity, allowed ...identity.Role) error {
	if id == nil {
		authOutcomes.WithLabelValues(flowGuard, "no_identity").Inc()
		g.log.Error("role guard reached without an authenticated identity")
		return apperr.Unauthorized("Authentication required")
	}
	if len(allowed) == 0 || slices.Contains(allowed, id.Role) {
		return nil
	}
	authOutcomes.WithLabelValues(flowGuard, "role_denied").Inc()
	g.log.Warn("access denied",
		zap.String("reason", "insufficient_role"),
		zap.String("principal", id.ID),
		zap.String("role", string(id.Role)),
		zap.Any("allowed", allowed),
	)
	return apperr.Forbidden("Insufficient privileges")
}

// RequireOwnershipOrAdmin compares the owner id found under field, in the
// route params first and then the body, with the caller.
func (g *Guards) RequireOwnershipOrAdmin(id *identity.Identity, field string, req RequestData) error {
	if id == nil {
		authOutcomes.WithLabelValues(flowGuard, "no_identity").Inc()
		g.log.Error("ownership guard reached without an authenticated identity")
		return apperr.Unauthorized("Authentication required")
	}
	if id.Role == identity.RoleAdmin {
		return nil
	}

	owner := req.Params[field]
	if owner == "" {
		if v, ok := req.Body[field]; ok && v != nil {
			owner = fmt.Sprint(v)
		}
	}
	if owner != "" && owner == id.ID {
		return nil
	}

	authOutcomes.WithLabelValues(flowGuard, "ownership_denied").Inc()
	g.log.Warn("access denied",
		zap.String("reason", "not_owner"),
		zap.String("principal", id.ID),
		zap.String("field", field),
	)
	return apperr.Forbidden("Resource ownership denied")
}
