package hardware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/domain/hardware"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/obs"
	"github.com/NordCoder/ems/internal/services/ems-api/auth"
	"github.com/NordCoder/ems/internal/services/ems-api/rest"
)

type Server struct {
	uc  *Usecase
	log *zap.Logger
}

func NewServer(uc *Usecase, log *zap.Logger) *Server {
	return &Server{uc: uc, log: obs.OrNop(log)}
}

type createRequest struct {
	Name         string     `json:"name" validate:"required,max=200"`
	Type         string     `json:"type" validate:"required,max=100"`
	SerialNumber string     `json:"serialNumber" validate:"required,max=100"`
	AssignedTo   string     `json:"assignedTo"`
	PurchaseDate *time.Time `json:"purchaseDate"`
}

type updateRequest struct {
	Name         *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Type         *string    `json:"type" validate:"omitempty,min=1,max=100"`
	SerialNumber *string    `json:"serialNumber" validate:"omitempty,min=1,max=100"`
	Status       *string    `json:"status" validate:"omitempty,oneof=available assigned in_repair retired"`
	AssignedTo   *string    `json:"assignedTo"`
	PurchaseDate *time.Time `json:"purchaseDate"`
}

// Register mounts the hardware routes. Reads need any authenticated
// caller, writes need admin or manager.
func (s *Server) Register(rt *rest.Router, gate *auth.Gate, guards *auth.Guards) error {
	authn := gate.Middleware()
	writers := guards.Roles(identity.RoleAdmin, identity.RoleManager)
	for _, r := range []struct {
		method, pattern string
		h               func(http.ResponseWriter, *http.Request, map[string]string)
		mws             []rest.Middleware
	}{
		{http.MethodGet, "/v1/hardware", s.list, []rest.Middleware{authn}},
		{http.MethodPost, "/v1/hardware", s.create, []rest.Middleware{authn, writers}},
		{http.MethodGet, "/v1/hardware/{id}", s.get, []rest.Middleware{authn}},
		{http.MethodPut, "/v1/hardware/{id}", s.update, []rest.Middleware{authn, writers}},
		{http.MethodDelete, "/v1/hardware/{id}", s.delete, []rest.Middleware{authn, writers}},
	} {
		if err := rt.Handle(r.method, r.pattern, r.h, r.mws...); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	id, _ := identity.FromContext(r.Context())
	out, err := s.uc.List(r.Context(), id, rest.PageFromQuery(r))
	if err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.JSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, p map[string]string) {
	id, _ := identity.FromContext(r.Context())
	a, err := s.uc.Get(r.Context(), id, p["id"])
	if err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.JSON(w, http.StatusOK, a)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req createRequest
	if err := rest.Decode(r, &req); err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	id, _ := identity.FromContext(r.Context())
	a, err := s.uc.Create(r.Context(), id, CreateInput(req))
	if err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.JSON(w, http.StatusCreated, a)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, p map[string]string) {
	var req updateRequest
	if err := rest.Decode(r, &req); err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	in := UpdateInput{
		Name:         req.Name,
		Type:         req.Type,
		SerialNumber: req.SerialNumber,
		AssignedTo:   req.AssignedTo,
		PurchaseDate: req.PurchaseDate,
	}
	if req.Status != nil {
		st := hardware.Status(*req.Status)
		in.Status = &st
	}
	id, _ := identity.FromContext(r.Context())
	a, err := s.uc.Update(r.Context(), id, p["id"], in)
	if err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.JSON(w, http.StatusOK, a)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request, p map[string]string) {
	id, _ := identity.FromContext(r.Context())
	if err := s.uc.Delete(r.Context(), id, p["id"]); err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.Message(w, http.StatusOK, "Hardware deleted")
}
