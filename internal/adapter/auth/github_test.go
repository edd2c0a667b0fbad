package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGitHubServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			http.NotFound(w, r)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"login":"octocat","id":1}`))
		case "Bearer boom":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubVerifier(t *testing.T) {
	srv := newGitHubServer(t)
	v := NewGitHubVerifier(srv.URL)
	ctx := context.Background()

	login, ok, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "octocat", login)

	_, ok, err = v.Verify(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = v.Verify(ctx, "boom")
	assert.Error(t, err)
	assert.False(t, ok)
}
