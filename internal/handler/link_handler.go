package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/gource-tools/gource-tools/internal/service"
)

type linkBody struct {
	ProjectID    int64 `json:"project_id"`
	RepositoryID int64 `json:"repository_id"`
}

// LinkHandler serves the project-repositories join resource.
type LinkHandler struct {
	links *service.LinkService
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(links *service.LinkService) *LinkHandler {
	return &LinkHandler{links: links}
}

// Register sets up link routes.
func (h *LinkHandler) Register(router fiber.Router) {
	links := router.Group("/project-repositories")
	links.Get("/", h.List)
	links.Post("/", h.Create)
	links.Delete("/", h.DeleteByBody)
	links.Delete("/:projectId/:repositoryId", h.DeleteByPath)
}

// List returns links, optionally for one project.
func (h *LinkHandler) List(c fiber.Ctx) error {
	projectID, err := queryID(c, "project_id")
	if err != nil {
		return respondError(c, err)
	}
	links, err := h.links.List(c.Context(), projectID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(links)
}

// Create links a repository to a project.
func (h *LinkHandler) Create(c fiber.Ctx) error {
	var body linkBody
	if err := c.Bind().JSON(&body); err != nil {
		return respondError(c, invalidBody())
	}
	link, err := h.links.Link(c.Context(), body.ProjectID, body.RepositoryID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

// DeleteByBody unlinks using a {project_id, repository_id} body.
func (h *LinkHandler) DeleteByBody(c fiber.Ctx) error {
	var body linkBody
	if err := c.Bind().JSON(&body); err != nil {
		return respondError(c, invalidBody())
	}
	return h.unlink(c, body.ProjectID, body.RepositoryID)
}

// DeleteByPath unlinks using route parameters.
func (h *LinkHandler) DeleteByPath(c fiber.Ctx) error {
	projectID, err := paramID(c, "projectId")
	if err != nil {
		return respondError(c, err)
	}
	repositoryID, err := paramID(c, "repositoryId")
	if err != nil {
		return respondError(c, err)
	}
	return h.unlink(c, projectID, repositoryID)
}

func (h *LinkHandler) unlink(c fiber.Ctx, projectID, repositoryID int64) error {
	if err := h.links.Unlink(c.Context(), projectID, repositoryID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
