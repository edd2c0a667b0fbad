package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/port"
)

// ProjectService manages projects and resolves project references.
type ProjectService struct {
	store port.Store
}

// NewProjectService creates a new project service.
func NewProjectService(s port.Store) *ProjectService {
	return &ProjectService{store: s}
}

// List returns all projects.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.store.ListProjects(ctx)
}

// Resolve finds a project by numeric id or by slug.
func (s *ProjectService) Resolve(ctx context.Context, ref string) (*domain.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, port.Invalid("project", "reference is required")
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		p, err := s.store.GetProject(ctx, id)
		if !errors.Is(err, port.ErrProjectNotFound) {
			return p, err
		}
	}
	return s.store.GetProjectBySlug(ctx, domain.Slugify(ref))
}

// Create validates and inserts a project. Without an explicit render
// profile the default profile is attached.
func (s *ProjectService) Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, port.Invalid("name", "is required")
	}
	p := &domain.Project{Name: strings.TrimSpace(*in.Name)}
	p.Slug = domain.Slugify(p.Name)
	if p.Slug == "" {
		return nil, port.Invalid("name", "must contain a letter or digit")
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}

	if in.RenderProfileID != nil {
		if _, err := s.store.GetRenderProfile(ctx, *in.RenderProfileID); err != nil {
			return nil, err
		}
		p.RenderProfileID = in.RenderProfileID
	} else if def, err := s.store.DefaultRenderProfile(ctx); err == nil {
		p.RenderProfileID = &def.ID
	} else if !errors.Is(err, port.ErrRenderProfileNotFound) {
		return nil, err
	}

	return s.store.CreateProject(ctx, p)
}

// Update applies the non-nil fields of in to an existing project.
func (s *ProjectService) Update(ctx context.Context, id int64, in domain.ProjectInput) (*domain.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, port.Invalid("name", "is required")
		}
		slug := domain.Slugify(name)
		if slug == "" {
			return nil, port.Invalid("name", "must contain a letter or digit")
		}
		p.Name, p.Slug = name, slug
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.RenderProfileID != nil {
		if *in.RenderProfileID == 0 {
			p.RenderProfileID = nil
		} else {
			if _, err := s.store.GetRenderProfile(ctx, *in.RenderProfileID); err != nil {
				return nil, err
			}
			p.RenderProfileID = in.RenderProfileID
		}
	}

	updated, err := s.store.UpdateProject(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("update project %d: %w", id, err)
	}
	return updated, nil
}

// Delete removes a project and its links.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteProject(ctx, id)
}

// Repositories returns the repositories linked to a project.
func (s *ProjectService) Repositories(ctx context.Context, id int64) ([]domain.Repository, error) {
	if _, err := s.store.GetProject(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListRepositoriesByProject(ctx, id)
}
