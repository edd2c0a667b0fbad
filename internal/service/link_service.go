package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/port"
)

// LinkService manages the project-repository association.
type LinkService struct {
	store port.Store
}

// NewLinkService creates a new link service.
func NewLinkService(s port.Store) *LinkService {
	return &LinkService{store: s}
}

// List returns the links of a project, or all links when projectID is 0.
func (s *LinkService) List(ctx context.Context, projectID int64) ([]domain.ProjectRepository, error) {
	return s.store.ListLinks(ctx, projectID)
}

// Link attaches a repository to a project.
func (s *LinkService) Link(ctx context.Context, projectID, repositoryID int64) (*domain.ProjectRepository, error) {
	if err := validateLink(projectID, repositoryID); err != nil {
		return nil, err
	}
	link, err := s.store.CreateLink(ctx, projectID, repositoryID)
	if err != nil {
		return nil, err
	}
	s.audit(domain.AuditActionLink, projectID, repositoryID)
	return link, nil
}

// Unlink detaches a repository from a project.
func (s *LinkService) Unlink(ctx context.Context, projectID, repositoryID int64) error {
	if err := validateLink(projectID, repositoryID); err != nil {
		return err
	}
	if err := s.store.DeleteLink(ctx, projectID, repositoryID); err != nil {
		return err
	}
	s.audit(domain.AuditActionUnlink, projectID, repositoryID)
	return nil
}

func (s *LinkService) audit(action string, projectID, repositoryID int64) {
	details := fmt.Sprintf(`{"repository_id":%d}`, repositoryID)
	if err := s.store.WriteAudit(action, "project", fmt.Sprint(projectID), details, "", ""); err != nil {
		slog.Error("failed to write audit log", "action", action, "error", err)
	}
}

func validateLink(projectID, repositoryID int64) error {
	if projectID <= 0 {
		return port.Invalid("project_id", "is required")
	}
	if repositoryID <= 0 {
		return port.Invalid("repository_id", "is required")
	}
	return nil
}
