// Package client talks to the Gource Tools REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/linking"
)

// DefaultBaseURL is used when no API address is configured.
const DefaultBaseURL = "http://localhost:3001/api/v1"

// minEnhancedVersion is the first server release with a usable
// GET /projects/:id/repositories.
var minEnhancedVersion = semver.MustParse("1.0.0")

var _ linking.API = (*Client)(nil)

// Tier is the data source used for a project's linked repositories.
type Tier int

const (
	// TierBasic filters the repository list with ?project_id=.
	TierBasic Tier = iota
	// TierEnhanced uses GET /projects/:id/repositories.
	TierEnhanced
)

func (t Tier) String() string {
	if t == TierEnhanced {
		return "enhanced"
	}
	return "basic"
}

// Capabilities mirrors the server's GET /capabilities response.
type Capabilities struct {
	Version             string `json:"version"`
	ProjectRepositories bool   `json:"project_repositories"`
	RepositorySearch    bool   `json:"repository_search"`
	RepositorySync      bool   `json:"repository_sync"`
	GourceConfigExport  bool   `json:"gource_config_export"`
	RedirectDelayMS     int64  `json:"redirect_delay_ms,omitempty"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is an HTTP client for the REST API. It probes the server's
// capabilities until one probe succeeds and picks the linked-repositories
// tier from the result.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu            sync.Mutex
	probed        bool
	tier          Tier
	redirectDelay time.Duration
}

// New creates a client for baseURL, e.g. http://localhost:3001/api/v1.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Tier returns the linked-repositories data source, probing on first use.
func (c *Client) Tier(ctx context.Context) (Tier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.probe(ctx); err != nil {
		return TierBasic, err
	}
	return c.tier, nil
}

// RedirectDelay returns how long the server wants the success message shown
// before redirecting. Servers that do not advertise one get
// linking.DefaultRedirectDelay.
func (c *Client) RedirectDelay(ctx context.Context) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.probe(ctx); err != nil {
		return linking.DefaultRedirectDelay, err
	}
	if c.redirectDelay <= 0 {
		return linking.DefaultRedirectDelay, nil
	}
	return c.redirectDelay, nil
}

// probe fetches the capabilities unless a previous probe succeeded. Failed
// probes are not remembered. Callers hold c.mu.
func (c *Client) probe(ctx context.Context) error {
	if c.probed {
		return nil
	}
	caps, err := c.Capabilities(ctx)
	switch {
	case IsNotFound(err):
		c.tier = TierBasic
	case err != nil:
		return fmt.Errorf("probe capabilities: %w", err)
	default:
		c.tier = TierBasic
		if caps.ProjectRepositories && supportsEnhanced(caps.Version) {
			c.tier = TierEnhanced
		}
		c.redirectDelay = time.Duration(caps.RedirectDelayMS) * time.Millisecond
	}
	c.probed = true
	return nil
}

// Capabilities fetches the server's optional feature list.
func (c *Client) Capabilities(ctx context.Context) (*Capabilities, error) {
	var caps Capabilities
	if err := c.do(ctx, http.MethodGet, "/capabilities", nil, &caps); err != nil {
		return nil, err
	}
	return &caps, nil
}

// ListProjects returns all projects.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// GetProject fetches a project by id or slug.
func (c *Client) GetProject(ctx context.Context, ref string) (*domain.Project, error) {
	var p domain.Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(ref), nil, &p); err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// ListRepositories returns every repository.
func (c *Client) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	var repos []domain.Repository
	if err := c.do(ctx, http.MethodGet, "/repositories", nil, &repos); err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	return repos, nil
}

// LinkedRepositories returns the repositories linked to a project using the
// probed tier.
func (c *Client) LinkedRepositories(ctx context.Context, projectID int64) ([]domain.Repository, error) {
	tier, err := c.Tier(ctx)
	if err != nil {
		return nil, err
	}

	path := "/repositories?project_id=" + strconv.FormatInt(projectID, 10)
	if tier == TierEnhanced {
		path = fmt.Sprintf("/projects/%d/repositories", projectID)
	}

	var repos []domain.Repository
	if err := c.do(ctx, http.MethodGet, path, nil, &repos); err != nil {
		return nil, fmt.Errorf("list linked repositories (%s): %w", tier, err)
	}
	return repos, nil
}

type linkBody struct {
	ProjectID    int64 `json:"project_id"`
	RepositoryID int64 `json:"repository_id"`
}

// CreateLink links a repository to a project.
func (c *Client) CreateLink(ctx context.Context, projectID, repositoryID int64) error {
	return c.do(ctx, http.MethodPost, "/project-repositories", linkBody{projectID, repositoryID}, nil)
}

// DeleteLink removes a repository from a project.
func (c *Client) DeleteLink(ctx context.Context, projectID, repositoryID int64) error {
	return c.do(ctx, http.MethodDelete, "/project-repositories", linkBody{projectID, repositoryID}, nil)
}

// TestToken asks the server to verify the stored GitHub token.
func (c *Client) TestToken(ctx context.Context) (*domain.TokenTestResult, error) {
	var res domain.TokenTestResult
	if err := c.do(ctx, http.MethodPost, "/settings/token/test", nil, &res); err != nil {
		return nil, fmt.Errorf("test token: %w", err)
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// supportsEnhanced reports whether a server version is new enough for the
// enhanced tier. A missing or malformed version is not.
func supportsEnhanced(version string) bool {
	v, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return false
	}
	return !v.LessThan(minEnhancedVersion)
}

// errorMessage extracts {"error": "..."} or falls back to the raw body.
func errorMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}
