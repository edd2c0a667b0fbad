package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gource-tools/gource-tools/internal/adapter/store"
	"github.com/gource-tools/gource-tools/internal/adapter/vcs"
	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/service"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.SQLStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	srv := NewServer(
		service.NewProjectService(s),
		service.NewRepoService(s, vcs.NewGitProvider(), t.TempDir()),
		service.NewLinkService(s),
		"0",
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, s
}

func rpc(t *testing.T, url, method string, params any) JSONRPCResponse {
	t.Helper()
	body := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		body["params"] = params
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url+"/mcp", "application/json", strings.NewReader(string(data)))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestToolsList(t *testing.T) {
	ts, _ := newTestServer(t)
	out := rpc(t, ts.URL, "tools/list", nil)
	require.Nil(t, out.Error)

	data, err := json.Marshal(out.Result)
	require.NoError(t, err)
	for _, name := range []string{"list_projects", "list_repositories", "link_repository", "unlink_repository"} {
		assert.Contains(t, string(data), name)
	}
}

func TestLinkRepositoryTool(t *testing.T) {
	ts, s := newTestServer(t)
	ctx := context.Background()
	p, err := s.CreateProject(ctx, &domain.Project{Name: "P", Slug: "p"})
	require.NoError(t, err)
	r, err := s.CreateRepository(ctx, &domain.Repository{Name: "r", Branch: "main", LocalPath: "/r", Status: domain.RepoStatusPending})
	require.NoError(t, err)

	args := map[string]any{"project_id": p.ID, "repository_id": r.ID}
	out := rpc(t, ts.URL, "tools/call", map[string]any{"name": "link_repository", "arguments": args})
	require.Nil(t, out.Error)

	out = rpc(t, ts.URL, "tools/call", map[string]any{"name": "link_repository", "arguments": args})
	require.NotNil(t, out.Error)
	assert.Contains(t, out.Error.Message, "already linked")

	out = rpc(t, ts.URL, "tools/call", map[string]any{"name": "list_repositories", "arguments": map[string]any{"project_id": p.ID}})
	require.Nil(t, out.Error)
	data, err := json.Marshal(out.Result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `\"name\":\"r\"`)

	out = rpc(t, ts.URL, "tools/call", map[string]any{"name": "unlink_repository", "arguments": args})
	require.Nil(t, out.Error)

	out = rpc(t, ts.URL, "tools/call", map[string]any{"name": "nope"})
	require.NotNil(t, out.Error)
	assert.Equal(t, -32603, out.Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	ts, _ := newTestServer(t)
	out := rpc(t, ts.URL, "resources/list", nil)
	require.NotNil(t, out.Error)
	assert.Equal(t, -32601, out.Error.Code)
}
