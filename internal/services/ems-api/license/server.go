package license

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/domain/license"
	"github.com/NordCoder/ems/internal/obs"
	"github.com/NordCoder/ems/internal/services/ems-api/auth"
	"github.com/NordCoder/ems/internal/services/ems-api/rest"
)

type Server struct {
	uc  *Usecase
	log *zap.Logger
	now func() time.Time
}

func NewServer(uc *Usecase, log *zap.Logger) *Server {
	return &Server{uc: uc, log: obs.OrNop(log), now: time.Now}
}

type createRequest struct {
	SoftwareName string     `json:"softwareName" validate:"required,max=200"`
	Vendor       string     `json:"vendor" validate:"max=200"`
	LicenseKey   string     `json:"licenseKey" validate:"required,max=500"`
	Seats        int        `json:"seats" validate:"min=0,max=100000"`
	AssignedTo   string     `json:"assignedTo"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}

type updateRequest struct {
	SoftwareName *string    `json:"softwareName" validate:"omitempty,min=1,max=200"`
	Vendor       *string    `json:"vendor" validate:"omitempty,max=200"`
	LicenseKey   *string    `json:"licenseKey" validate:"omitempty,min=1,max=500"`
	Seats        *int       `json:"seats" validate:"omitempty,min=1,max=100000"`
	AssignedTo   *string    `json:"assignedTo"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}

// licenseView adds the expiry flag, derived at response time.
type licenseView struct {
	*license.License
	Expired bool `json:"expired"`
}

func (s *Server) view(l *license.License) licenseView {
	return licenseView{License: l, Expired: l.Expired(s.now())}
}

func (s *Server) Register(rt *rest.Router, gate *auth.Gate, guards *auth.Guards) error {
	authn := gate.Middleware()
	writers := guards.Roles(identity.RoleAdmin, identity.RoleManager)
	for _, r := range []struct {
		method, pattern string
		h               func(http.ResponseWriter, *http.Request, map[string]string)
		mws             []rest.Middleware
	}{
		{http.MethodGet, "/v1/licenses", s.list, []rest.Middleware{authn}},
		{http.MethodPost, "/v1/licenses", s.create, []rest.Middleware{authn, writers}},
		{http.MethodGet, "/v1/licenses/{id}", s.get, []rest.Middleware{authn}},
		{http.MethodPut, "/v1/licenses/{id}", s.update, []rest.Middleware{authn, writers}},
		{http.MethodDelete, "/v1/licenses/{id}", s.delete, []rest.Middleware{authn, writers}},
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
	items := make([]*licenseView, 0, len(out.Items))
	for _, l := range out.Items {
		v := s.view(l)
		items = append(items, &v)
	}
	rest.JSON(w, http.StatusOK, domain.List[licenseView]{
		Items: items,
		Total: out.Total,
		Page:  out.Page,
		Limit: out.Limit,
		Pages: out.Pages,
	})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, p map[string]string) {
	id, _ := identity.FromContext(r.Context())
	l, err := s.uc.Get(r.Context(), id, p["id"])
	if err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.JSON(w, http.StatusOK, s.view(l))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req createRequest
	if err := rest.Decode(r, &req); err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	id, _ := identity.FromContext(r.Context())
	l, err := s.uc.Create(r.Context(), id, CreateInput(req))
	if err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.JSON(w, http.StatusCreated, s.view(l))
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, p map[string]string) {
	var req updateRequest
	if err := rest.Decode(r, &req); err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	id, _ := identity.FromContext(r.Context())
	l, err := s.uc.Update(r.Context(), id, p["id"], UpdateInput(req))
	if err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.JSON(w, http.StatusOK, s.view(l))
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request, p map[string]string) {
	id, _ := identity.FromContext(r.Context())
	if err := s.uc.Delete(r.Context(), id, p["id"]); err != nil {
		rest.Error(w, r, s.log, err)
		return
	}
	rest.Message(w, http.StatusOK, "License deleted")
}
