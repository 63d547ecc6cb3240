package ticket

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/domain/ticket"
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
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	AssignedTo  string `json:"assignedTo"`
}

type updateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Status      *string `json:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	AssignedTo  *string `json:"assignedTo"`
}

// Register mounts the ticket routes; every route requires authentication.
func (s *Server) Register(rt *rest.Router, gate *auth.Gate) error {
	authn := gate.Middleware()
	for _, r := range []struct {
		method, pattern string
		h               func(http.ResponseWriter, *http.Request, map[string]string)
	}{
		{http.MethodGet, "/v1/tickets", s.list},
		{http.MethodPost, "/v1/tickets", s.create},
		{http.MethodGet, "/v1/tickets/{id}", s.get},
		{http.MethodPut, "/v1/tickets/{id}", s.update},
		{http.MethodDelete, "/v1/tickets/{id}", s.delete},
	} {
		if err := rt.Handle(r.method, r.pattern, r.h, authn); err != nil {
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
	t, err := s.uc.Get(r.Context(), id, p["id"])
	if err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.JSON(w, http.StatusOK, t)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req createRequest
	if err := rest.Decode(r, &req); err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	id, _ := identity.FromContext(r.Context())
	t, err := s.uc.Create(r.Context(), id, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    ticket.Priority(req.Priority),
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.JSON(w, http.StatusCreated, t)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, p map[string]string) {
	var req updateRequest
	if err := rest.Decode(r, &req); err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	in := UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
	}
	if req.Status != nil {
		st := ticket.Status(*req.Status)
		in.Status = &st
	}
	if req.Priority != nil {
		pr := ticket.Priority(*req.Priority)
		in.Priority = &pr
	}
	id, _ := identity.FromContext(r.Context())
	t, err := s.uc.Update(r.Context(), id, p["id"], in)
	if err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.JSON(w, http.StatusOK, t)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request, p map[string]string) {
	id, _ := identity.FromContext(r.Context())
	if err := s.uc.Delete(r.Context(), id, p["id"]); err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.Message(w, http.StatusOK, "Ticket deleted")
}
