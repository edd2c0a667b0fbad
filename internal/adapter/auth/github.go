package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v82/github"
	"golang.org/x/oauth2"

	"github.com/gource-tools/gource-tools/internal/port"
)

// GitHubVerifier implements port.TokenVerifier against the GitHub REST API.
type GitHubVerifier struct {
	baseURL    string
	httpClient *http.Client
}

var _ port.TokenVerifier = (*GitHubVerifier)(nil)

// NewGitHubVerifier creates a verifier. An empty baseURL targets api.github.com.
func NewGitHubVerifier(baseURL string) *GitHubVerifier {
	return &GitHubVerifier{baseURL: baseURL, httpClient: http.DefaultClient}
}

// Verify fetches the authenticated user. A 401 means the token is invalid.
func (g *GitHubVerifier) Verify(ctx context.Context, token string) (string, bool, error) {
	client, err := g.client(ctx, token)
	if err != nil {
		return "", false, err
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusUnauthorized {
			return "", false, nil
		}
		return "", false, fmt.Errorf("github: fetch user: %w", err)
	}
	return user.GetLogin(), true, nil
}

func (g *GitHubVerifier) client(ctx context.Context, token string) (*github.Client, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	if g.baseURL != "" {
		base := g.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("github: parse base url: %w", err)
		}
		client.BaseURL = u
	}
	return client, nil
}
