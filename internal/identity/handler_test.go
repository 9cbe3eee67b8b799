package identity

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/accounthub/accounthub/internal/shared"
)

func newTestServer(t *testing.T) (*httptest.Server, *memoryUserRepo) {
	t.Helper()
	repo := newMemoryUserRepo()
	repo.users[1] = &User{
		ID: 1, OrganizationID: 1, Name: "Admin", Email: "admin@example.com",
		APIKey: "admin-key", GroupIDs: []int64{10},
	}
	repo.users[2] = &User{
		ID: 2, OrganizationID: 1, Name: "Viewer", Email: "viewer@example.com",
		APIKey: "viewer-key", GroupIDs: []int64{10},
	}
	repo.caps[1] = []string{shared.CapAdmin}
	repo.caps[2] = []string{shared.CapListUsers}

	svc := newTestService(repo, &recordingNotifier{}, &memoryRecorder{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc)

	r := chi.NewRouter()
	r.Route("/api/users", func(r chi.Router) {
		r.Use(AuthMiddleware(svc, logger))
		h.MountRoutes(r)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func doRequest(t *testing.T, method, url, apiKey, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var payload map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp, payload
}

func TestHandlerRequiresAPIKey(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := doRequest(t, http.MethodGet, srv.URL+"/api/users", "", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/api/users", "no-such-key", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerAuthorizationKeyHeader(t *testing.T) {
	srv, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/users", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Key admin-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandlerAPIKeyVisibility(t *testing.T) {
	srv, _ := newTestServer(t)

	// The owner sees their own key.
	resp, payload := doRequest(t, http.MethodGet, srv.URL+"/api/users/2", "viewer-key", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "viewer-key", payload["api_key"])

	// A non-admin viewing someone else does not.
	resp, payload = doRequest(t, http.MethodGet, srv.URL+"/api/users/1", "viewer-key", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotContains(t, payload, "api_key")

	// Admins see everyone's keys.
	resp, payload = doRequest(t, http.MethodGet, srv.URL+"/api/users/2", "admin-key", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "viewer-key", payload["api_key"])
}

func TestHandlerCreateUser(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/users", "admin-key",
		`{"name":"New Person","email":"new@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "new@example.com", payload["email"])
	require.NotEmpty(t, payload["invite_link"])
	require.Equal(t, true, payload["invite_sent"])
	require.NotEmpty(t, payload["api_key"])
}

func TestHandlerCreateUserNoInvite(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/users?no_invite", "admin-key",
		`{"name":"Quiet","email":"quiet@example.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, payload["invite_link"])
	require.Equal(t, false, payload["invite_sent"])
}

func TestHandlerCreateUserValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doRequest(t, http.MethodPost, srv.URL+"/api/users", "admin-key", `{"name":"No Email"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodPost, srv.URL+"/api/users", "admin-key", `not json`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerCreateUserForbiddenForNonAdmin(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doRequest(t, http.MethodPost, srv.URL+"/api/users", "viewer-key",
		`{"name":"X","email":"x@example.com"}`)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandlerCreateUserConflict(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/users", "admin-key",
		`{"name":"Dup","email":"viewer@example.com"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, payload["detail"], "email already taken")
}

func TestHandlerBadUserID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doRequest(t, http.MethodGet, srv.URL+"/api/users/abc", "admin-key", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerDisableEnableCycle(t *testing.T) {
	srv, repo := newTestServer(t)

	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/users/2/disable", "admin-key", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, payload["is_disabled"])
	require.True(t, repo.users[2].IsDisabled)

	resp, payload = doRequest(t, http.MethodDelete, srv.URL+"/api/users/2/disable", "admin-key", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, false, payload["is_disabled"])
}

func TestHandlerSelfDisableRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/users/1/disable", "admin-key", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, payload["detail"], "cannot disable your own account")
}

func TestHandlerUpdateUser(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/users/2", "viewer-key",
		`{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Renamed", payload["name"])
}

func TestHandlerResetPassword(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/users/2/reset_password", "admin-key", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, payload["reset_link"], "/reset/")
}

func TestHandlerInviteUser(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/users/2/invite", "admin-key", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, payload["invite_link"], "/invite/")
}
