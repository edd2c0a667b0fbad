package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/linking"
)

type fakeServer struct {
	mu           sync.Mutex
	capabilities int // status for /capabilities; 200 means enhanced
	capsFailures int // leading /capabilities calls answered with 500
	version      string
	delayMS      int64
	hits         map[string]int
	links        []linkBody
}

func (f *fakeServer) hit(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[key]++
}

func (f *fakeServer) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newFakeServer(t *testing.T, capsStatus int) (*fakeServer, *Client) {
	return newVersionedServer(t, capsStatus, "1.0.0")
}

func newVersionedServer(t *testing.T, capsStatus int, version string) (*fakeServer, *Client) {
	t.Helper()
	f := &fakeServer{capabilities: capsStatus, version: version, hits: map[string]int{}}
	url := "https://example.com/beta.git"
	alpha := domain.Repository{ID: 1, Name: "alpha"}
	beta := domain.Repository{ID: 2, Name: "beta", URL: &url}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/capabilities", func(w http.ResponseWriter, r *http.Request) {
		f.hit("capabilities")
		f.mu.Lock()
		status := f.capabilities
		if f.capsFailures > 0 {
			f.capsFailures--
			status = http.StatusInternalServerError
		}
		f.mu.Unlock()
		if status != http.StatusOK {
			writeJSON(w, status, map[string]string{"error": "transient"})
			return
		}
		writeJSON(w, http.StatusOK, Capabilities{Version: f.version, ProjectRepositories: true, RedirectDelayMS: f.delayMS})
	})
	mux.HandleFunc("GET /api/v1/projects/{ref}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("ref") != "demo" && r.PathValue("ref") != "7" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "project not found"})
			return
		}
		writeJSON(w, http.StatusOK, domain.Project{ID: 7, Name: "Demo", Slug: "demo", Repositories: []int64{2}})
	})
	mux.HandleFunc("GET /api/v1/projects/{id}/repositories", func(w http.ResponseWriter, r *http.Request) {
		f.hit("enhanced")
		writeJSON(w, http.StatusOK, []domain.Repository{beta})
	})
	mux.HandleFunc("GET /api/v1/repositories", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("project_id") != "" {
			f.hit("basic")
			writeJSON(w, http.StatusOK, []domain.Repository{beta})
			return
		}
		writeJSON(w, http.StatusOK, []domain.Repository{alpha, beta})
	})
	mux.HandleFunc("POST /api/v1/project-repositories", func(w http.ResponseWriter, r *http.Request) {
		var body linkBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.links = append(f.links, body)
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, body)
	})
	mux.HandleFunc("DELETE /api/v1/project-repositories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "link not found"})
	})
	mux.HandleFunc("POST /api/v1/settings/token/test", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.TokenTestResult{Success: true, Message: "Token is valid for octocat"})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return f, New(ts.URL + "/api/v1/")
}

func TestTierSelection(t *testing.T) {
	tests := []struct {
		name       string
		capsStatus int
		version    string
		want       Tier
		endpoint   string
	}{
		{"enhanced", http.StatusOK, "1.0.0", TierEnhanced, "enhanced"},
		{"basic without version", http.StatusOK, "", TierBasic, "basic"},
		{"basic on malformed version", http.StatusOK, "latest", TierBasic, "basic"},
		{"basic on old server", http.StatusOK, "v0.9.2", TierBasic, "basic"},
		{"basic when probe is missing", http.StatusNotFound, "", TierBasic, "basic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, c := newVersionedServer(t, tt.capsStatus, tt.version)
			ctx := context.Background()

			tier, err := c.Tier(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tier)

			for range 3 {
				repos, err := c.LinkedRepositories(ctx, 7)
				require.NoError(t, err)
				require.Len(t, repos, 1)
				assert.Equal(t, int64(2), repos[0].ID)
			}
			assert.Equal(t, 3, f.count(tt.endpoint))
			assert.Equal(t, 1, f.count("capabilities"), "probe runs once")
		})
	}
}

func TestProbeFailureIsReported(t *testing.T) {
	_, c := newFakeServer(t, http.StatusInternalServerError)
	_, err := c.LinkedRepositories(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probe capabilities")
}

func TestProbeRetriesAfterFailure(t *testing.T) {
	f, c := newFakeServer(t, http.StatusOK)
	f.capsFailures = 1
	ctx := context.Background()

	flow := linking.New(c, "demo")
	require.Error(t, flow.Load(ctx))
	assert.NotEmpty(t, flow.Err())

	require.NoError(t, flow.Reload(ctx))
	assert.Empty(t, flow.Err())
	require.Len(t, flow.Candidates(), 1)
	assert.Equal(t, "alpha", flow.Candidates()[0].Name)
	assert.Equal(t, 2, f.count("capabilities"))

	require.NoError(t, flow.Reload(ctx))
	assert.Equal(t, 2, f.count("capabilities"), "successful probe is kept")
	assert.Equal(t, 2, f.count("enhanced"))
}

func TestProbeCancelledContextIsNotKept(t *testing.T) {
	f, c := newFakeServer(t, http.StatusOK)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Tier(cancelled)
	require.Error(t, err)

	tier, err := c.Tier(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TierEnhanced, tier)
	assert.Equal(t, 1, f.count("capabilities"))
}

func TestRedirectDelay(t *testing.T) {
	f, c := newFakeServer(t, http.StatusOK)
	f.delayMS = 250
	d, err := c.RedirectDelay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	_, c = newFakeServer(t, http.StatusNotFound)
	d, err = c.RedirectDelay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, linking.DefaultRedirectDelay, d)
}

func TestAPIErrors(t *testing.T) {
	_, c := newFakeServer(t, http.StatusOK)
	ctx := context.Background()

	_, err := c.GetProject(ctx, "ghost")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "project not found")

	err = c.DeleteLink(ctx, 7, 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.False(t, IsNotFound(err))
}

func TestClientDrivesLinkingFlow(t *testing.T) {
	f, c := newFakeServer(t, http.StatusOK)
	ctx := context.Background()

	flow := linking.New(c, "demo")
	require.NoError(t, flow.Load(ctx))
	candidates := flow.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, "alpha", candidates[0].Name)

	flow.Toggle(1)
	redirect, err := flow.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/projects/7", redirect.Path)
	assert.Equal(t, []linkBody{{ProjectID: 7, RepositoryID: 1}}, f.links)
}

func TestTestToken(t *testing.T) {
	_, c := newFakeServer(t, http.StatusOK)
	res, err := c.TestToken(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
}
