package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gource-tools/gource-tools/internal/domain"
)

type apiStub struct {
	mu      sync.Mutex
	created []map[string]int64
	deleted []map[string]int64
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newAPIStub(t *testing.T) (*apiStub, string) {
	t.Helper()
	s := &apiStub{}
	url := "https://example.com/beta.git"
	repos := []domain.Repository{
		{ID: 1, Name: "alpha", Branch: "main", Status: domain.RepoStatusReady},
		{ID: 2, Name: "beta", Branch: "main", Status: domain.RepoStatusPending, URL: &url},
	}
	linked := []domain.Repository{repos[1]}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/capabilities", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"version": "1.0.0", "project_repositories": true, "redirect_delay_ms": 10})
	})
	mux.HandleFunc("GET /api/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []domain.Project{{ID: 5, Name: "Demo", Slug: "demo", Repositories: []int64{2}}})
	})
	mux.HandleFunc("GET /api/v1/projects/{ref}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.Project{ID: 5, Name: "Demo", Slug: "demo"})
	})
	mux.HandleFunc("GET /api/v1/projects/{id}/repositories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, linked)
	})
	mux.HandleFunc("GET /api/v1/repositories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, repos)
	})
	mux.HandleFunc("POST /api/v1/project-repositories", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.created = append(s.created, body)
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, body)
	})
	mux.HandleFunc("DELETE /api/v1/project-repositories", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.deleted = append(s.deleted, body)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/v1/settings/token/test", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.TokenTestResult{Success: false, Message: "GitHub rejected the token"})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return s, ts.URL + "/api/v1"
}

func run(t *testing.T, api string, args ...string) (string, error) {
	t.Helper()
	return runNoAPI(t, append([]string{"--api", api}, args...)...)
}

func TestLinkWithRepoFlag(t *testing.T) {
	s, api := newAPIStub(t)

	out, err := run(t, api, "link", "demo", "--repo", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Repositories linked successfully!")
	assert.Contains(t, out, "Open /projects/5")
	assert.Equal(t, []map[string]int64{{"project_id": 5, "repository_id": 1}}, s.created)
}

func TestLinkIgnoresRepeatedRepoFlag(t *testing.T) {
	s, api := newAPIStub(t)

	out, err := run(t, api, "link", "demo", "--repo", "1", "--repo", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Repositories linked successfully!")
	assert.Equal(t, []map[string]int64{{"project_id": 5, "repository_id": 1}}, s.created)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, dedupe([]int64{3, 1, 3, 2, 1}))
	assert.Empty(t, dedupe(nil))
}

func TestLinkRejectsAlreadyLinked(t *testing.T) {
	s, api := newAPIStub(t)

	_, err := run(t, api, "link", "demo", "--repo", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a candidate")
	assert.Empty(t, s.created)
}

func TestUnlinkWithRepoFlag(t *testing.T) {
	s, api := newAPIStub(t)

	out, err := run(t, api, "unlink", "demo", "--repo", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Repositories unlinked successfully!")
	assert.Equal(t, []map[string]int64{{"project_id": 5, "repository_id": 2}}, s.deleted)
}

func TestListCommands(t *testing.T) {
	_, api := newAPIStub(t)

	out, err := run(t, api, "projects")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "REPOSITORIES")

	out, err = run(t, api, "repos")
	require.NoError(t, err)
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "https://example.com/beta.git")

	out, err = run(t, api, "projects", "--json")
	require.NoError(t, err)
	var projects []domain.Project
	require.NoError(t, json.Unmarshal([]byte(out), &projects))
	assert.Len(t, projects, 1)
}

func TestTokenTestFailure(t *testing.T) {
	_, api := newAPIStub(t)

	out, err := run(t, api, "token", "test")
	require.Error(t, err)
	assert.Contains(t, out, "GitHub rejected the token")
}

func TestAPIFromEnvAndConfigFile(t *testing.T) {
	_, api := newAPIStub(t)

	t.Setenv(EnvAPI, api)
	out, err := runNoAPI(t, "projects")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")

	t.Setenv(EnvAPI, "")
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("api: "+api+"\n"), 0o600))
	out, err = runNoAPI(t, "--config", cfg, "repos")
	require.NoError(t, err)
	assert.Contains(t, out, "alpha")
}

func runNoAPI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
