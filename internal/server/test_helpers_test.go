package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck/internal/server"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	app, err := server.New(server.Options{SQLitePath: filepath.Join(t.TempDir(), "taskdeck.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	httpServer := httptest.NewServer(app.Handler())
	t.Cleanup(httpServer.Close)
	return httpServer
}

func doJSON(t *testing.T, url, method string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeMap(t *testing.T, reader io.Reader) map[string]any {
	t.Helper()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	var out map[string]any
	err = json.Unmarshal(data, &out)
	require.NoError(t, err)
	return out
}

// seedBoard creates a project and a user and returns their ids.
func seedBoard(t *testing.T, baseURL string) (projectID, userID float64) {
	t.Helper()

	resp := doJSON(t, baseURL+"/projects", http.MethodPost, map[string]string{
		"name":     "Infra Board",
		"repo_url": "https://example.com/infra.git",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	projectID = decodeMap(t, resp.Body)["id"].(float64)

	resp = doJSON(t, baseURL+"/users", http.MethodPost, map[string]string{
		"username":  "morgan",
		"user_type": "human",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	userID = decodeMap(t, resp.Body)["id"].(float64)
	return projectID, userID
}
