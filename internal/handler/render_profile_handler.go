package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/gource-tools/gource-tools/internal/port"
	"github.com/gource-tools/gource-tools/internal/service"
)

// RenderProfileHandler serves render profiles and their Gource config export.
type RenderProfileHandler struct {
	profiles *service.RenderProfileService
}

// NewRenderProfileHandler creates a new render profile handler.
func NewRenderProfileHandler(profiles *service.RenderProfileService) *RenderProfileHandler {
	return &RenderProfileHandler{profiles: profiles}
}

// Register sets up render profile routes.
func (h *RenderProfileHandler) Register(router fiber.Router) {
	profiles := router.Group("/render-profiles")
	profiles.Get("/", h.List)
	profiles.Post("/", h.Create)
	profiles.Post("/import", h.Import)
	profiles.Get("/:id", h.Get)
	profiles.Put("/:id", h.Update)
	profiles.Delete("/:id", h.Delete)
	profiles.Get("/:id/gource.ini", h.Export)
}

// List returns all profiles, default first.
func (h *RenderProfileHandler) List(c fiber.Ctx) error {
	profiles, err := h.profiles.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profiles)
}

// Get returns one profile.
func (h *RenderProfileHandler) Get(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.profiles.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// Create adds a profile.
func (h *RenderProfileHandler) Create(c fiber.Ctx) error {
	var in service.RenderProfileInput
	if err := c.Bind().JSON(&in); err != nil {
		return respondError(c, invalidBody())
	}
	p, err := h.profiles.Create(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// Update replaces a profile.
func (h *RenderProfileHandler) Update(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in service.RenderProfileInput
	if err := c.Bind().JSON(&in); err != nil {
		return respondError(c, invalidBody())
	}
	p, err := h.profiles.Update(c.Context(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// Delete removes a profile.
func (h *RenderProfileHandler) Delete(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.profiles.Delete(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Export downloads the profile as a file for `gource --load-config`.
// ?project_id= sets the title to the project name.
func (h *RenderProfileHandler) Export(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	projectID, err := queryID(c, "project_id")
	if err != nil {
		return respondError(c, err)
	}
	data, err := h.profiles.Export(c.Context(), id, projectID)
	if err != nil {
		return respondError(c, err)
	}
	c.Set("Content-Type", "text/plain; charset=utf-8")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="profile-%d.ini"`, id))
	return c.Send(data)
}

// Import creates a profile from a raw Gource config body; ?name= names it.
func (h *RenderProfileHandler) Import(c fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return respondError(c, port.Invalid("name", "is required"))
	}
	p, err := h.profiles.Import(c.Context(), name, c.Body())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}
