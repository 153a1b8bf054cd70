package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crcloud/crdeploy/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, taskHandler func(w http.ResponseWriter, req taskRequest)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/webapps/myapp/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Token secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":                  7,
			"sftp_prod_domain":    "myapp.crcloud.app",
			"sftp_staging_domain": "myapp.staging.crcloud.app",
		})
	})
	mux.HandleFunc("/api/tasks/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req taskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		taskHandler(w, req)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClientQueueDeploy(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, req taskRequest) {
		assert.Equal(t, 7, req.Webapp)
		assert.Equal(t, "staging", req.Env)
		assert.Equal(t, "init", req.TaskType)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 55, "status": "queued"})
	})
	client := NewClient(server.URL, "secret", "myapp", entity.EnvStaging)
	taskID, err := client.QueueDeploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 55, taskID)
}

func TestClientGetTask(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks/55/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 55, "status": "completed"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "secret", "myapp", entity.EnvProd)
	status, err := client.GetTask(context.Background(), 55)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
}

func TestClientGetLogs(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, req taskRequest) {
		assert.Equal(t, "getlog", req.TaskType)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 56,
			"returned_data": map[string]any{
				"logs": []map[string]any{
					{"log": "building", "datetime": 1700000000, "source": "stdout"},
					{"log": "warning: slow", "datetime": 1700000001, "source": "stderr"},
				},
			},
		})
	})
	client := NewClient(server.URL, "secret", "myapp", entity.EnvProd)
	lines, err := client.GetLogs(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "building", lines[0].Text)
	assert.Equal(t, "stderr", lines[1].Stream)
	assert.Equal(t, time.Unix(1700000001, 0), lines[1].Timestamp)
}

func TestClientSFTPCredentials(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, req taskRequest) {
		assert.Equal(t, "resetpassword", req.TaskType)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            57,
			"returned_data": map[string]any{"password": "ephemeral"},
		})
	})
	client := NewClient(server.URL, "secret", "myapp", entity.EnvStaging)
	creds, err := client.SFTPCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "myapp.staging.crcloud.app", creds.Host)
	assert.Equal(t, "myapp", creds.User)
	assert.Equal(t, "ephemeral", creds.Password)
	assert.Equal(t, 22, creds.Port)
}

func TestClientSurfacesAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"detail": "Invalid token."})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "bad", "myapp", entity.EnvProd)
	_, err := client.QueueDeploy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid token.")
}
