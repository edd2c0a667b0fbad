package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/service"
)

// ProjectHandler serves project CRUD.
type ProjectHandler struct {
	projects *service.ProjectService
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Register sets up project routes.
func (h *ProjectHandler) Register(router fiber.Router) {
	projects := router.Group("/projects")
	projects.Get("/", h.List)
	projects.Post("/", h.Create)
	projects.Get("/:ref", h.Get)
	projects.Put("/:id", h.Update)
	projects.Patch("/:id", h.Update)
	projects.Delete("/:id", h.Delete)
	projects.Get("/:id/repositories", h.Repositories)
}

// List returns all projects.
func (h *ProjectHandler) List(c fiber.Ctx) error {
	projects, err := h.projects.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(projects)
}

// Get returns a project by id or slug.
func (h *ProjectHandler) Get(c fiber.Ctx) error {
	p, err := h.projects.Resolve(c.Context(), c.Params("ref"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// Create adds a project.
func (h *ProjectHandler) Create(c fiber.Ctx) error {
	var in domain.ProjectInput
	if err := c.Bind().JSON(&in); err != nil {
		return respondError(c, invalidBody())
	}
	p, err := h.projects.Create(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// Update changes the fields present in the body.
func (h *ProjectHandler) Update(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in domain.ProjectInput
	if err := c.Bind().JSON(&in); err != nil {
		return respondError(c, invalidBody())
	}
	p, err := h.projects.Update(c.Context(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// Delete removes a project; its repositories stay.
func (h *ProjectHandler) Delete(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.projects.Delete(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Repositories returns the full records of a project's linked repositories.
func (h *ProjectHandler) Repositories(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	repos, err := h.projects.Repositories(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(repos)
}
