package port

import (
	"context"
	"time"

	"github.com/gource-tools/gource-tools/internal/domain"
)

// ProjectStore persists projects.
type ProjectStore interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*domain.Project, error)
	CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error)
	UpdateProject(ctx context.Context, p *domain.Project) (*domain.Project, error)
	DeleteProject(ctx context.Context, id int64) error
}

// RepositoryStore persists repositories.
type RepositoryStore interface {
	ListRepositories(ctx context.Context) ([]domain.Repository, error)
	ListRepositoriesByProject(ctx context.Context, projectID int64) ([]domain.Repository, error)
	SearchRepositories(ctx context.Context, query string) ([]domain.Repository, error)
	GetRepository(ctx context.Context, id int64) (*domain.Repository, error)
	CreateRepository(ctx context.Context, r *domain.Repository) (*domain.Repository, error)
	UpdateRepositoryStatus(ctx context.Context, id int64, status string) error
	UpdateRepositorySync(ctx context.Context, id int64, localPath, branch string, lastUpdated time.Time) error
	DeleteRepository(ctx context.Context, id int64) error
}

// LinkStore persists project-repository links.
type LinkStore interface {
	ListLinks(ctx context.Context, projectID int64) ([]domain.ProjectRepository, error)
	CreateLink(ctx context.Context, projectID, repositoryID int64) (*domain.ProjectRepository, error)
	DeleteLink(ctx context.Context, projectID, repositoryID int64) error
}

// RenderProfileStore persists render profiles.
type RenderProfileStore interface {
	ListRenderProfiles(ctx context.Context) ([]domain.RenderProfile, error)
	GetRenderProfile(ctx context.Context, id int64) (*domain.RenderProfile, error)
	DefaultRenderProfile(ctx context.Context) (*domain.RenderProfile, error)
	SaveRenderProfile(ctx context.Context, p *domain.RenderProfile) (*domain.RenderProfile, error)
	DeleteRenderProfile(ctx context.Context, id int64) error
}

// SettingsStore persists the settings singleton as key/value pairs.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// AuditStore persists audit records.
type AuditStore interface {
	WriteAudit(action, resource, resourceID, details, ip, userAgent string) error
	ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error)
}

// Store is everything the services need from persistence.
type Store interface {
	ProjectStore
	RepositoryStore
	LinkStore
	RenderProfileStore
	SettingsStore
	AuditStore
	Close() error
}
