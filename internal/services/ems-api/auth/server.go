package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/apperr"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/obs"
	"github.com/NordCoder/ems/internal/services/ems-api/rest"
)

type Server struct {
	uc  *Usecase
	log *zap.Logger
}

func NewServer(uc *Usecase, log *zap.Logger) *Server {
	return &Server{uc: uc, log: obs.OrNop(log)}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) Register(rt *rest.Router, gate *Gate) error {
	authn := gate.Middleware()
	for _, r := range []struct {
		method, pattern string
		h               func(http.ResponseWriter, *http.Request, map[string]string)
		mws             []rest.Middleware
	}{
		{http.MethodPost, "/v1/auth/login", s.login, nil},
		{http.MethodPost, "/v1/auth/refresh", s.refresh, nil},
		{http.MethodPost, "/v1/auth/logout", s.logout, []rest.Middleware{authn}},
		{http.MethodGet, "/v1/auth/me", s.me, []rest.Middleware{authn}},
	} {
		if err := rt.Handle(r.method, r.pattern, r.h, r.mws...); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req loginRequest
	if err := rest.Decode(r, &req); err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	sess, err := s.uc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.JSON(w, http.StatusOK, sess)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req refreshRequest
	if err := rest.DecodeOptional(r, &req); err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	if req.RefreshToken == "" {
		req.RefreshToken = r.Header.Get("X-Refresh-Token")
	}
	sess, err := s.uc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.JSON(w, http.StatusOK, sess)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	id, _ := identity.FromContext(r.Context())
	if err := s.uc.Logout(r.Context(), id); err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.Message(w, http.StatusOK, "Logged out")
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		rest.Error(w, r, s.log, apperr.Unauthorized("Authentication required"))
		return
	}
	rest.JSON(w, http.StatusOK, id)
}
