package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/port"
)

// RepositoryInput is the body accepted when registering a repository.
type RepositoryInput struct {
	Name      string  `json:"name"`
	URL       *string `json:"url"`
	Branch    string  `json:"branch"`
	LocalPath string  `json:"local_path"`
}

// RepoService manages repository lifecycle: registration, listing and sync.
type RepoService struct {
	store    port.Store
	vcs      port.VCSProvider
	basePath string
}

// NewRepoService creates a new repository service.
func NewRepoService(s port.Store, vcs port.VCSProvider, basePath string) *RepoService {
	return &RepoService{store: s, vcs: vcs, basePath: basePath}
}

// List returns repositories, narrowed to a project's links when projectID is
// set or to a name/url match when query is set.
func (s *RepoService) List(ctx context.Context, projectID int64, query string) ([]domain.Repository, error) {
	switch {
	case projectID != 0:
		if _, err := s.store.GetProject(ctx, projectID); err != nil {
			return nil, err
		}
		return s.store.ListRepositoriesByProject(ctx, projectID)
	case strings.TrimSpace(query) != "":
		return s.store.SearchRepositories(ctx, strings.TrimSpace(query))
	default:
		return s.store.ListRepositories(ctx)
	}
}

// Get returns one repository.
func (s *RepoService) Get(ctx context.Context, id int64) (*domain.Repository, error) {
	return s.store.GetRepository(ctx, id)
}

// Create validates and registers a repository. A repository needs a remote
// URL, a local path, or both.
func (s *RepoService) Create(ctx context.Context, in RepositoryInput) (*domain.Repository, error) {
	name := strings.TrimSpace(in.Name)
	var url *string
	if in.URL != nil && strings.TrimSpace(*in.URL) != "" {
		u := strings.TrimSpace(*in.URL)
		url = &u
	}
	localPath := strings.TrimSpace(in.LocalPath)

	if name == "" && url != nil {
		name = nameFromURL(*url)
	}
	if name == "" && localPath != "" {
		name = filepath.Base(localPath)
	}
	if name == "" {
		return nil, port.Invalid("name", "is required")
	}
	if url == nil && localPath == "" {
		return nil, port.Invalid("url", "url or local_path is required")
	}

	branch := strings.TrimSpace(in.Branch)
	if branch == "" {
		branch = domain.DefaultBranch
	}

	return s.store.CreateRepository(ctx, &domain.Repository{
		Name:      name,
		URL:       url,
		Branch:    branch,
		LocalPath: localPath,
		Status:    domain.RepoStatusPending,
	})
}

// Delete removes a repository record. Files on disk are left alone.
func (s *RepoService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteRepository(ctx, id)
}

// MarkSyncing flags a repository as being synced.
func (s *RepoService) MarkSyncing(ctx context.Context, repo *domain.Repository) error {
	if repo.URL == nil && repo.LocalPath == "" {
		return port.ErrNothingToSync
	}
	return s.store.UpdateRepositoryStatus(ctx, repo.ID, domain.RepoStatusSyncing)
}

// Sync brings the local copy of a repository up to date: an existing work
// tree is pulled (when it has a remote), otherwise the URL is cloned under
// the base path. Branch and last_updated are then read back from git.
func (s *RepoService) Sync(ctx context.Context, repo *domain.Repository) (*domain.Repository, error) {
	localPath := repo.LocalPath
	if localPath == "" {
		localPath = filepath.Join(s.basePath, fmt.Sprintf("%d-%s", repo.ID, domain.Slugify(repo.Name)))
	}

	slog.Info("syncing repository", "repo_id", repo.ID, "path", localPath)
	if err := s.fetch(ctx, repo, localPath); err != nil {
		slog.Error("sync failed", "repo_id", repo.ID, "error", err)
		_ = s.store.UpdateRepositoryStatus(context.Background(), repo.ID, domain.RepoStatusError)
		return nil, fmt.Errorf("sync repository %d: %w", repo.ID, err)
	}

	branch, err := s.vcs.CurrentBranch(ctx, localPath)
	if err != nil {
		branch = repo.Branch
	}
	lastUpdated, err := s.vcs.LastCommitTime(ctx, localPath)
	if err != nil {
		_ = s.store.UpdateRepositoryStatus(context.Background(), repo.ID, domain.RepoStatusError)
		return nil, fmt.Errorf("sync repository %d: %w", repo.ID, err)
	}

	if err := s.store.UpdateRepositorySync(ctx, repo.ID, localPath, branch, lastUpdated); err != nil {
		return nil, err
	}
	slog.Info("sync complete", "repo_id", repo.ID, "branch", branch)
	return s.store.GetRepository(ctx, repo.ID)
}

func (s *RepoService) fetch(ctx context.Context, repo *domain.Repository, localPath string) error {
	if s.vcs.IsRepository(ctx, localPath) {
		if repo.URL == nil {
			return nil
		}
		return s.vcs.Pull(ctx, localPath)
	}
	if repo.URL == nil {
		return fmt.Errorf("%s is not a git repository", localPath)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create clone dir: %w", err)
	}
	return s.vcs.Clone(ctx, *repo.URL, repo.Branch, localPath)
}

// nameFromURL derives "repo" from ".../owner/repo.git".
func nameFromURL(url string) string {
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	return strings.TrimSuffix(url, ".git")
}
