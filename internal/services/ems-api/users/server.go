// Package users serves user profiles to their owner and to admins.
package users

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/apperr"
	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/obs"
	"github.com/NordCoder/ems/internal/services/ems-api/auth"
	"github.com/NordCoder/ems/internal/services/ems-api/rest"
)

type Server struct {
	dir identity.Directory
	log *zap.Logger
}

func NewServer(dir identity.Directory, log *zap.Logger) *Server {
	return &Server{dir: dir, log: obs.OrNop(log)}
}

func (s *Server) Register(rt *rest.Router, gate *auth.Gate, guards *auth.Guards) error {
	return rt.Handle(http.MethodGet, "/v1/users/{id}", s.get, gate.Middleware(), guards.Owner("id"))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, p map[string]string) {
	u, err := s.dir.GetByID(r.Context(), p["id"])
	switch {
	case errors.Is(err, domain.ErrNotFound):
		rest.Error(w, r, s.log, apperr.NotFound("User not found"))
		return
	case err != nil:
		obs.WithTrace(r.Context(), s.log).Error("user lookup failed", zap.String("user_id", p["id"]), zap.Error(err))
		rest.Error(w, r, s.log, apperr.Upstream("user directory unavailable", err))
		return
	}
	rest.JSON(w, http.StatusOK, u)
}
