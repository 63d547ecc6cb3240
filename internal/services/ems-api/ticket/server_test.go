package ticket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/ems/internal/domain"
	"github.com/NordCoder/ems/internal/domain/identity"
	"github.com/NordCoder/ems/internal/domain/ticket"
	"github.com/NordCoder/ems/internal/services/ems-api/auth/authtest"
	"github.com/NordCoder/ems/internal/services/ems-api/rest"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, h http.Handler, method, path, token, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func newTicketMux(t *testing.T, f *fixture, users ...*identity.User) *runtime.ServeMux {
	t.Helper()
	mux := runtime.NewServeMux()
	require.NoError(t, NewServer(f.uc, nil).Register(rest.NewRouter(mux), authtest.NewGate(users...)))
	return mux
}

func TestServer_RequiresAuthentication(t *testing.T) {
	mux := newTicketMux(t, newFixture())

	code, env := call(t, mux, http.MethodGet, "/v1/tickets", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "No token provided", env.Message)
}

func TestServer_CreateListGet(t *testing.T) {
	u := authtest.User(alice.ID, identity.RoleEmployee)
	f := newFixture(seed()...)
	mux := newTicketMux(t, f, u)
	tok := authtest.Token(t, u)

	code, env := call(t, mux, http.MethodPost, "/v1/tickets", tok, `{"title":"Monitor flicker","priority":"high"}`)
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.True(t, env.Success)
	var created ticket.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, ticket.PriorityHigh, created.Priority)

	code, env = call(t, mux, http.MethodGet, "/v1/tickets?page=1&limit=5", tok, "")
	require.Equal(t, http.StatusOK, code)
	var list domain.List[ticket.Ticket]
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 5, list.Limit)

	code, _ = call(t, mux, http.MethodGet, "/v1/tickets/"+created.ID, tok, "")
	assert.Equal(t, http.StatusOK, code)

	code, env = call(t, mux, http.MethodGet, "/v1/tickets/t-2", tok, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Ticket not found", env.Message)
}

func TestServer_CreateValidation(t *testing.T) {
	u := authtest.User(alice.ID, identity.RoleEmployee)
	mux := newTicketMux(t, newFixture(), u)
	tok := authtest.Token(t, u)

	code, env := call(t, mux, http.MethodPost, "/v1/tickets", tok, `{"priority":"urgent"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "priority must be one of [low medium high critical]; title is required", env.Message)

	code, env = call(t, mux, http.MethodPost, "/v1/tickets", tok, `{"title":"x","assignedTo":"`+u.EmployeeID+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Cannot assign ticket to self", env.Message)
}

func TestServer_UpdateDelete(t *testing.T) {
	u := authtest.User(alice.ID, identity.RoleEmployee)
	f := newFixture(seed()...)
	mux := newTicketMux(t, f, u)
	tok := authtest.Token(t, u)

	code, env := call(t, mux, http.MethodPut, "/v1/tickets/t-1", tok, `{"status":"closed"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	var got ticket.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, ticket.StatusClosed, got.Status)

	code, _ = call(t, mux, http.MethodDelete, "/v1/tickets/t-2", tok, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, env = call(t, mux, http.MethodDelete, "/v1/tickets/t-1", tok, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Ticket deleted", env.Message)
}
