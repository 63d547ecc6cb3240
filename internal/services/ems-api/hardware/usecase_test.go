package hardware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/ems/internal/apperr"
	"github.com/NordCoder/ems/internal/cache"
	"github.com/NordCoder/ems/internal/cache/cachetest"
	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/hardware"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/services/ems-api/auth"
	"github.com/NordCoder/ems/internal/services/ems-api/auth/authtest"
	"github.com/NordCoder/ems/internal/services/ems-api/resource/resourcetest"
	"github.com/NordCoder/ems/internal/services/ems-api/rest"
)

type memRepo struct {
	mu      sync.Mutex
	rows    map[string]*hardware.Asset
	filters []hardware.Filter
}

func newMemRepo(rows ...*hardware.Asset) *memRepo {
	r := &memRepo{rows: map[string]*hardware.Asset{}}
	for _, a := range rows {
		r.rows[a.ID] = a
	}
	return r
}

func (r *memRepo) Create(_ context.Context, a *hardware.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if x.SerialNumber == a.SerialNumber {
			return domain.ErrConflict
		}
	}
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*hardware.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) List(_ context.Context, f hardware.Filter, _, _ int) ([]*hardware.Asset, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, f)
	var out []*hardware.Asset
	for _, a := range r.rows {
		if f.OwnerID == "" || a.AssignedTo == f.OwnerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (r *memRepo) Update(_ context.Context, a *hardware.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

var (
	emp   = &identity.Identity{ID: "u-emp", Role: identity.RoleEmployee}
	admin = &identity.Identity{ID: "u-admin", Role: identity.RoleAdmin}
)

func newUsecase(rows ...*hardware.Asset) (*Usecase, *memRepo, *cachetest.Memory, *resourcetest.Recorder) {
	repo := newMemRepo(rows...)
	mem := cachetest.NewMemory()
	rec := &resourcetest.Recorder{}
	return New(repo, &resourcetest.Tx{}, rec, cache.NewAside(mem, cache.DefaultTTL, nil), nil), repo, mem, rec
}

func assets() []*hardware.Asset {
	return []*hardware.Asset{
		{ID: "h-1", Name: "ThinkPad", SerialNumber: "SN-1", AssignedTo: emp.ID, Status: hardware.StatusAssigned},
		{ID: "h-2", Name: "Dock", SerialNumber: "SN-2", Status: hardware.StatusAvailable},
	}
}

func TestList_ScopedByAssignee(t *testing.T) {
	uc, repo, _, _ := newUsecase(assets()...)

	got, err := uc.List(context.Background(), emp, domain.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "h-1", got.Items[0].ID)
	assert.Equal(t, hardware.Filter{OwnerID: emp.ID}, repo.filters[0])
}

func TestCreate_StatusFollowsAssignment(t *testing.T) {
	uc, _, _, rec := newUsecase()
	ctx := context.Background()

	a, err := uc.Create(ctx, admin, CreateInput{Name: "Monitor", Type: "display", SerialNumber: "SN-9"})
	require.NoError(t, err)
	assert.Equal(t, hardware.StatusAvailable, a.Status)

	b, err := uc.Create(ctx, admin, CreateInput{Name: "Laptop", Type: "laptop", SerialNumber: "SN-10", AssignedTo: emp.ID})
	require.NoError(t, err)
	assert.Equal(t, hardware.StatusAssigned, b.Status)
	assert.Len(t, rec.Changes, 2)
}

func TestCreate_DuplicateSerial(t *testing.T) {
	uc, _, _, rec := newUsecase(assets()...)

	_, err := uc.Create(context.Background(), admin, CreateInput{Name: "x", Type: "y", SerialNumber: "SN-1"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Serial number already registered", apperr.PublicMessage(err))
	assert.Empty(t, rec.Changes)
}

func TestUpdate_UnassignFreesAsset(t *testing.T) {
	uc, _, _, _ := newUsecase(assets()...)
	ctx := context.Background()

	_, err := uc.Get(ctx, admin, "h-1")
	require.NoError(t, err)

	none := ""
	_, err = uc.Update(ctx, admin, "h-1", UpdateInput{AssignedTo: &none})
	require.NoError(t, err)

	got, err := uc.Get(ctx, admin, "h-1")
	require.NoError(t, err)
	assert.Equal(t, hardware.StatusAvailable, got.Status)
	assert.Empty(t, got.AssignedTo)
}

func TestDelete_Missing(t *testing.T) {
	uc, _, mem, _ := newUsecase()

	err := uc.Delete(context.Background(), admin, "h-404")
	assert.Equal(t, "Hardware not found", apperr.PublicMessage(err))
	assert.Zero(t, mem.Deletes)
}

func TestServer_WritesNeedPrivilegedRole(t *testing.T) {
	uc, _, _, _ := newUsecase(assets()...)
	empUser := authtest.User(emp.ID, identity.RoleEmployee)
	mgrUser := authtest.User("u-mgr", identity.RoleManager)

	mux := runtime.NewServeMux()
	require.NoError(t, NewServer(uc, nil).Register(rest.NewRouter(mux), authtest.NewGate(empUser, mgrUser), auth.NewGuards(nil)))

	body := `{"name":"Keyboard","type":"peripheral","serialNumber":"SN-77"}`
	post := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/hardware", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusForbidden, post(authtest.Token(t, empUser)))
	assert.Equal(t, http.StatusCreated, post(authtest.Token(t, mgrUser)))

	req := httptest.NewRequest(http.MethodGet, "/v1/hardware", nil)
	req.Header.Set("Authorization", "Bearer "+authtest.Token(t, empUser))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}
