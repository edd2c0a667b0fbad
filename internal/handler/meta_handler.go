package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
)

// Version is reported by the health and capabilities endpoints.
const Version = "1.0.0"

// Capabilities lists optional API features a client may probe for.
type Capabilities struct {
	Version             string `json:"version"`
	ProjectRepositories bool   `json:"project_repositories"` // GET /projects/:id/repositories
	RepositorySearch    bool   `json:"repository_search"`
	RepositorySync      bool   `json:"repository_sync"`
	GourceConfigExport  bool   `json:"gource_config_export"`
	RedirectDelayMS     int64  `json:"redirect_delay_ms"`
}

// MetaHandler serves health and capability discovery.
type MetaHandler struct {
	appName       string
	redirectDelay time.Duration
}

// NewMetaHandler creates a new meta handler.
func NewMetaHandler(appName string, redirectDelay time.Duration) *MetaHandler {
	return &MetaHandler{appName: appName, redirectDelay: redirectDelay}
}

// Register sets up meta routes.
func (h *MetaHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/capabilities", h.Capabilities)
}

// Health reports liveness.
func (h *MetaHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"app":     h.appName,
		"version": Version,
	})
}

// Capabilities reports the optional endpoints this server supports.
func (h *MetaHandler) Capabilities(c fiber.Ctx) error {
	return c.JSON(Capabilities{
		Version:             Version,
		ProjectRepositories: true,
		RepositorySearch:    true,
		RepositorySync:      true,
		GourceConfigExport:  true,
		RedirectDelayMS:     h.redirectDelay.Milliseconds(),
	})
}
