package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/gource-tools/gource-tools/internal/service"
)

// SettingsHandler serves the settings singleton and the GitHub token actions.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Register sets up settings routes.
func (h *SettingsHandler) Register(router fiber.Router) {
	settings := router.Group("/settings")
	settings.Get("/", h.Get)
	settings.Post("/", h.Save)
	settings.Post("/token/test", h.TestToken)
	settings.Delete("/token", h.RemoveToken)
}

// Get returns settings with the token masked.
func (h *SettingsHandler) Get(c fiber.Ctx) error {
	s, err := h.settings.Get(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Masked())
}

// Save stores the token from {"githubToken": "..."}.
func (h *SettingsHandler) Save(c fiber.Ctx) error {
	var body struct {
		GitHubToken string `json:"githubToken"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return respondError(c, invalidBody())
	}
	s, err := h.settings.SaveToken(c.Context(), body.GitHubToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Masked())
}

// TestToken checks the stored token against GitHub.
func (h *SettingsHandler) TestToken(c fiber.Ctx) error {
	res, err := h.settings.TestToken(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// RemoveToken deletes the stored token.
func (h *SettingsHandler) RemoveToken(c fiber.Ctx) error {
	s, err := h.settings.RemoveToken(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"tokenStatus": s.TokenStatus})
}
