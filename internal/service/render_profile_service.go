package service

import (
	"context"
	"strings"

	"github.com/gource-tools/gource-tools/internal/adapter/gource"
	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/port"
)

// RenderProfileInput is the writable subset of a render profile.
type RenderProfileInput struct {
	Name      string         `json:"name"`
	IsDefault bool           `json:"isDefault"`
	Settings  map[string]any `json:"settings"`
}

// RenderProfileService manages render profiles and their Gource config form.
type RenderProfileService struct {
	store port.Store
}

// NewRenderProfileService creates a new render profile service.
func NewRenderProfileService(s port.Store) *RenderProfileService {
	return &RenderProfileService{store: s}
}

// List returns all profiles, default first.
func (s *RenderProfileService) List(ctx context.Context) ([]domain.RenderProfile, error) {
	return s.store.ListRenderProfiles(ctx)
}

// Get returns one profile.
func (s *RenderProfileService) Get(ctx context.Context, id int64) (*domain.RenderProfile, error) {
	return s.store.GetRenderProfile(ctx, id)
}

// Create inserts a profile.
func (s *RenderProfileService) Create(ctx context.Context, in RenderProfileInput) (*domain.RenderProfile, error) {
	return s.save(ctx, 0, in)
}

// Update replaces a profile.
func (s *RenderProfileService) Update(ctx context.Context, id int64, in RenderProfileInput) (*domain.RenderProfile, error) {
	if _, err := s.store.GetRenderProfile(ctx, id); err != nil {
		return nil, err
	}
	return s.save(ctx, id, in)
}

func (s *RenderProfileService) save(ctx context.Context, id int64, in RenderProfileInput) (*domain.RenderProfile, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, port.Invalid("name", "is required")
	}
	return s.store.SaveRenderProfile(ctx, &domain.RenderProfile{
		ID:        id,
		Name:      name,
		IsDefault: in.IsDefault,
		Settings:  in.Settings,
	})
}

// Delete removes a profile. Projects using it fall back to none.
func (s *RenderProfileService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteRenderProfile(ctx, id)
}

// Export renders a profile as a Gource config file titled with the project
// name when projectID is set.
func (s *RenderProfileService) Export(ctx context.Context, id, projectID int64) ([]byte, error) {
	profile, err := s.store.GetRenderProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	title := ""
	if projectID != 0 {
		p, err := s.store.GetProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		title = p.Name
	}
	return gource.Export(*profile, title)
}

// Import creates a profile from a Gource config file.
func (s *RenderProfileService) Import(ctx context.Context, name string, data []byte) (*domain.RenderProfile, error) {
	settings, err := gource.Import(data)
	if err != nil {
		return nil, port.Invalid("config", err.Error())
	}
	return s.Create(ctx, RenderProfileInput{Name: name, Settings: settings})
}
