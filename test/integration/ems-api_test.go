//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type ticketDTO struct {
	ID         string `json:"_id"`
	Title      string `json:"title"`
	CreatedBy  string `json:"createdBy"`
	AssignedTo string `json:"assignedTo"`
}

type ticketList struct {
	Items []ticketDTO `json:"items"`
	Total int         `json:"total"`
}

func login(t *testing.T, base, email, password string) session {
	t.Helper()
	env := HTTPDoJSON(t, http.MethodPost, base+"/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	}, http.StatusOK)
	var s session
	require.NoError(t, json.Unmarshal(env.Data, &s))
	require.NotEmpty(t, s.AccessToken)
	return s
}

func TestTickets_LoginCreateListScoped(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.APIBase+"/healthz", 60*time.Second)
	db := DBOpen(t, cfg.DBURL)
	defer db.Close()

	suffix := uuid.NewString()[:8]
	empID := SeedUser(t, db, "it-emp-"+suffix+"@example.com", "employee-pass", "employee", "E-"+suffix)
	SeedUser(t, db, "it-other-"+suffix+"@example.com", "other-pass", "employee", "")
	SeedUser(t, db, "it-mgr-"+suffix+"@example.com", "manager-pass", "manager", "")

	emp := login(t, cfg.APIBase, "it-emp-"+suffix+"@example.com", "employee-pass")
	other := login(t, cfg.APIBase, "it-other-"+suffix+"@example.com", "other-pass")
	mgr := login(t, cfg.APIBase, "it-mgr-"+suffix+"@example.com", "manager-pass")

	HTTPDoJSON(t, http.MethodGet, cfg.APIBase+"/v1/tickets", "", nil, http.StatusUnauthorized)

	env := HTTPDoJSON(t, http.MethodPost, cfg.APIBase+"/v1/tickets", emp.AccessToken, map[string]string{
		"title": "Docking station dead", "assignedTo": "E-" + suffix,
	}, http.StatusBadRequest)
	assert.Equal(t, "Cannot assign ticket to self", env.Message)

	env = HTTPDoJSON(t, http.MethodPost, cfg.APIBase+"/v1/tickets", emp.AccessToken, map[string]string{
		"title": "Docking station dead", "priority": "high",
	}, http.StatusCreated)
	var created ticketDTO
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, empID, created.CreatedBy)
	assert.Equal(t, 1, CountOutbox(t, db, created.ID))

	var own ticketList
	env = HTTPDoJSON(t, http.MethodGet, cfg.APIBase+"/v1/tickets?limit=100", emp.AccessToken, nil, http.StatusOK)
	require.NoError(t, json.Unmarshal(env.Data, &own))
	for _, it := range own.Items {
		assert.Equal(t, empID, it.CreatedBy)
	}

	HTTPDoJSON(t, http.MethodGet, cfg.APIBase+"/v1/tickets/"+created.ID, other.AccessToken, nil, http.StatusNotFound)
	HTTPDoJSON(t, http.MethodGet, cfg.APIBase+"/v1/tickets/"+created.ID, mgr.AccessToken, nil, http.StatusOK)

	HTTPDoJSON(t, http.MethodPut, cfg.APIBase+"/v1/tickets/"+created.ID, emp.AccessToken, map[string]string{
		"title": "Docking station replaced",
	}, http.StatusOK)
	env = HTTPDoJSON(t, http.MethodGet, cfg.APIBase+"/v1/tickets/"+created.ID, emp.AccessToken, nil, http.StatusOK)
	var fresh ticketDTO
	require.NoError(t, json.Unmarshal(env.Data, &fresh))
	assert.Equal(t, "Docking station replaced", fresh.Title)
}

func TestAuth_RefreshRotationBlacklistsOldAccess(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.APIBase+"/healthz", 60*time.Second)
	db := DBOpen(t, cfg.DBURL)
	defer db.Close()

	email := "it-rot-" + uuid.NewString()[:8] + "@example.com"
	SeedUser(t, db, email, "rotate-me", "employee", "")
	first := login(t, cfg.APIBase, email, "rotate-me")

	env := HTTPDoJSON(t, http.MethodPost, cfg.APIBase+"/v1/auth/refresh", "", map[string]string{
		"refreshToken": first.RefreshToken,
	}, http.StatusOK)
	var second session
	require.NoError(t, json.Unmarshal(env.Data, &second))

	env = HTTPDoJSON(t, http.MethodGet, cfg.APIBase+"/v1/auth/me", first.AccessToken, nil, http.StatusUnauthorized)
	assert.Equal(t, "Token blacklisted", env.Message)
	HTTPDoJSON(t, http.MethodGet, cfg.APIBase+"/v1/auth/me", second.AccessToken, nil, http.StatusOK)

	env = HTTPDoJSON(t, http.MethodPost, cfg.APIBase+"/v1/auth/refresh", "", map[string]string{
		"refreshToken": first.RefreshToken,
	}, http.StatusUnauthorized)
	assert.Equal(t, "Invalid refresh token", env.Message)
}

// Needs outbox-relay running against the same database and broker.
func TestOutbox_RelaysResourceChanged(t *testing.T) {
	cfg := LoadCfg()
	if err := TCPReachable(cfg.KafkaBootstrap, 2*time.Second); err != nil {
		t.Skipf("kafka unreachable: %v", err)
	}
	WaitHealthz(t, cfg.APIBase+"/healthz", 60*time.Second)
	db := DBOpen(t, cfg.DBURL)
	defer db.Close()

	email := "it-relay-" + uuid.NewString()[:8] + "@example.com"
	SeedUser(t, db, email, "relay-pass", "manager", "")
	s := login(t, cfg.APIBase, email, "relay-pass")

	HTTPDoJSON(t, http.MethodPost, cfg.APIBase+"/v1/hardware", s.AccessToken, map[string]string{
		"name": "Laptop", "type": "laptop", "serialNumber": "IT-" + uuid.NewString(),
	}, http.StatusCreated)

	got, ok := ReadOneProto(t, cfg.KafkaBootstrap, cfg.ResourceTopic, "it-"+uuid.NewString(), 30*time.Second, &structpb.Struct{})
	require.True(t, ok, "no resource-changed event relayed")
	assert.NotEmpty(t, got.GetFields()["resource"].GetStringValue())
}
