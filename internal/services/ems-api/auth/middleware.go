package auth

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"

	"github.com/NordCoder/ems/internal/apperr"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/services/ems-api/rest"
)

// Middleware authenticates the request and puts the identity in its context.
func (g *Gate) Middleware() rest.Middleware {
	return func(next runtime.HandlerFunc) runtime.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request, p map[string]string) {
			id, err := g.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				rest.Error(w, r, g.log, err)
				return
			}
			next(w, r.WithContext(identity.WithIdentity(r.Context(), id)), p)
		}
	}
}

func (gd *Guards) Roles(allowed ...identity.Role) rest.Middleware {
	return func(next runtime.HandlerFunc) runtime.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request, p map[string]string) {
			id, _ := identity.FromContext(r.Context())
			if err := gd.RequireRole(id, allowed...); err != nil {
				rest.Error(w, r, gd.log, err)
				return
			}
			next(w, r, p)
		}
	}
}

// Owner guards a route by the owner id under field. A JSON body is read
// for the lookup and handed on intact.
func (gd *Guards) Owner(field string) rest.Middleware {
	return func(next runtime.HandlerFunc) runtime.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request, p map[string]string) {
			id, _ := identity.FromContext(r.Context())
			req := RequestData{Params: p}
			if _, inParams := p[field]; !inParams {
				raw, err := rest.PeekBody(r)
				if err == nil && len(bytes.TrimSpace(raw)) > 0 && json.Unmarshal(raw, &req.Body) != nil {
					err = apperr.Validation("Malformed JSON body")
				}
				if err != nil {
					rest.Error(w, r, gd.log, err)
					return
				}
			}
			if err := gd.RequireOwnershipOrAdmin(id, field, req); err != nil {
				rest.Error(w, r, gd.log, err)
				return
			}
			next(w, r, p)
		}
	}
}
