package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/port"
)

const (
	settingGitHubToken = "github_token"
	settingTokenStatus = "github_token_status"
)

// SettingsService reads and writes the settings singleton.
type SettingsService struct {
	store    port.SettingsStore
	verifier port.TokenVerifier
}

// NewSettingsService creates a new settings service.
func NewSettingsService(s port.SettingsStore, verifier port.TokenVerifier) *SettingsService {
	return &SettingsService{store: s, verifier: verifier}
}

// Get returns the current settings with the token unmasked.
func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	token, err := s.store.GetSetting(ctx, settingGitHubToken)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return &domain.Settings{TokenStatus: domain.TokenStatusMissing}, nil
	}

	status, err := s.store.GetSetting(ctx, settingTokenStatus)
	if err != nil {
		return nil, err
	}
	ts := domain.TokenStatus(status)
	if ts != domain.TokenStatusValid && ts != domain.TokenStatusInvalid {
		ts = domain.TokenStatusUnknown
	}
	return &domain.Settings{GitHubToken: token, TokenStatus: ts}, nil
}

// SaveToken stores a new token; its status is unknown until tested.
// An empty token removes the stored one. A masked token, as returned by
// GET /settings, leaves the stored token and its status untouched.
func (s *SettingsService) SaveToken(ctx context.Context, token string) (*domain.Settings, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.RemoveToken(ctx)
	}
	if domain.IsMaskedToken(token) {
		return s.Get(ctx)
	}
	if err := s.store.SetSetting(ctx, settingGitHubToken, token); err != nil {
		return nil, err
	}
	if err := s.store.DeleteSetting(ctx, settingTokenStatus); err != nil {
		return nil, err
	}
	return s.Get(ctx)
}

// RemoveToken deletes the stored token.
func (s *SettingsService) RemoveToken(ctx context.Context) (*domain.Settings, error) {
	if err := s.store.DeleteSetting(ctx, settingGitHubToken); err != nil {
		return nil, err
	}
	if err := s.store.DeleteSetting(ctx, settingTokenStatus); err != nil {
		return nil, err
	}
	return &domain.Settings{TokenStatus: domain.TokenStatusMissing}, nil
}

// TestToken verifies the stored token with GitHub and records the outcome.
func (s *SettingsService) TestToken(ctx context.Context) (*domain.TokenTestResult, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings.GitHubToken == "" {
		return &domain.TokenTestResult{Success: false, Message: "No GitHub token configured"}, nil
	}

	login, ok, err := s.verifier.Verify(ctx, settings.GitHubToken)
	if err != nil {
		slog.Warn("github token test failed", "error", err)
		return &domain.TokenTestResult{Success: false, Message: "Could not reach GitHub: " + err.Error()}, nil
	}

	status := domain.TokenStatusInvalid
	if ok {
		status = domain.TokenStatusValid
	}
	if err := s.store.SetSetting(ctx, settingTokenStatus, string(status)); err != nil {
		return nil, err
	}
	if !ok {
		return &domain.TokenTestResult{Success: false, Message: "GitHub rejected the token"}, nil
	}
	return &domain.TokenTestResult{Success: true, Message: fmt.Sprintf("Token is valid for %s", login)}, nil
}
