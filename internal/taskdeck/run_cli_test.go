package taskdeck

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type commandRequest struct {
	method string
	path   string
	query  string
	body   string
}

func TestRunExecutesProjectUserAndCardCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var (
		mu       sync.Mutex
		requests []commandRequest
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()

		mu.Lock()
		requests = append(requests, commandRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			body:   strings.TrimSpace(string(body)),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/projects":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":1,"name":"Alpha","repo_url":"https://example.com/alpha.git"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/projects":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"projects":[{"id":1,"name":"Alpha"}]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/projects/1":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":1,"name":"Alpha"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/users":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":1,"username":"morgan","user_type":"human"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/cards":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":1,"project_id":1,"card_number":1,"title":"Task","status":"backlog","version":1}`))
		case r.Method == http.MethodGet && r.URL.Path == "/cards":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"cards":[{"id":1,"title":"Task"}]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/cards/1":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":1,"title":"Task","version":1}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/cards/1":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":1,"title":"Task","status":"in_progress","version":2}`))
		case r.Method == http.MethodPost && r.URL.Path == "/cards/1/comments":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":1,"card_id":1,"message":"note","status":"created"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/cards/1/comments":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"comments":[]}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/comments/1":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":1,"status":"deleted"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/cards/1/references":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":7,"card_id":1,"target_card_id":2,"ref_type":"blocks","label":"Blocks"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/cards/1/references":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"outgoing":[],"incoming":[]}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/cards/1/references/7":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"deleted":true}`))
		case r.Method == http.MethodGet && r.URL.Path == "/cards/1/audits":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"audits":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"not found"}`))
		}
	}))
	defer server.Close()

	env := []string{"TASKDECK_SERVER_URL=" + server.URL, "TASKDECK_OUTPUT=json", "TASKDECK_USER_ID=1"}

	cases := [][]string{
		{"project", "create", "--name", "Alpha", "--repo-url", "https://example.com/alpha.git"},
		{"project", "ls"},
		{"project", "get", "-i", "1"},
		{"user", "create", "--username", "morgan"},
		{"card", "create", "-p", "1", "-t", "Task"},
		{"card", "ls", "-p", "1"},
		{"card", "get", "-i", "1"},
		{"card", "update", "-i", "1", "-s", "in_progress", "--version", "1"},
		{"card", "comment", "-i", "1", "-b", "note"},
		{"card", "comments", "-i", "1"},
		{"card", "uncomment", "--comment", "1"},
		{"card", "ref", "add", "-i", "1", "--target", "2", "--type", "blocks"},
		{"card", "ref", "ls", "-i", "1"},
		{"card", "ref", "rm", "-i", "1", "--ref", "7"},
		{"card", "audits", "-i", "1"},
	}

	for _, args := range cases {
		var stdout bytes.Buffer
		var stderr bytes.Buffer
		exitCode := Run(args, &stdout, &stderr, env)
		require.Equal(t, 0, exitCode, strings.Join(args, " ")+" stderr="+stderr.String())
		require.NotEmpty(t, strings.TrimSpace(stdout.String()))
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, requests)

	// The acting user from the environment flowed into the update body.
	for _, req := range requests {
		if req.method == http.MethodPatch && req.path == "/cards/1" {
			require.Contains(t, req.body, `"changed_by":1`)
			require.Contains(t, req.body, `"version":1`)
		}
	}
}

func TestRunReturnsJSONErrorForBackendProblem(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"type":"about:blank","title":"Conflict","status":409,"detail":"version conflict: current version is 2"}`))
	}))
	defer server.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	exitCode := Run(
		[]string{"card", "update", "-i", "1", "-s", "done", "--version", "1", "-u", "1"},
		&stdout, &stderr,
		[]string{"TASKDECK_SERVER_URL=" + server.URL, "TASKDECK_OUTPUT=json"},
	)
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), `"detail":"version conflict: current version is 2"`)
}

func TestRunRejectsCardMutationWithoutActingUser(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	exitCode := Run(
		[]string{"card", "create", "-p", "1", "-t", "Task"},
		&stdout, &stderr,
		[]string{"TASKDECK_SERVER_URL=" + server.URL},
	)
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "acting user")
}

func TestRunRejectsInvalidOutput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	exitCode := Run([]string{"--output", "yaml", "project", "ls"}, &stdout, &stderr, nil)
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "invalid --output")
}
