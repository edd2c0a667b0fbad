package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/gource-tools/gource-tools/internal/adapter/auth"
	"github.com/gource-tools/gource-tools/internal/adapter/store"
	"github.com/gource-tools/gource-tools/internal/adapter/vcs"
	"github.com/gource-tools/gource-tools/internal/handler"
	"github.com/gource-tools/gource-tools/internal/mcp"
	"github.com/gource-tools/gource-tools/internal/middleware"
	"github.com/gource-tools/gource-tools/internal/service"
	"github.com/gource-tools/gource-tools/pkg/config"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("Starting Gource Tools",
		"port", cfg.Port,
		"database_driver", cfg.DatabaseDriver,
		"repos_base_path", cfg.ReposBasePath,
		"mcp_enabled", cfg.MCPEnabled,
		"link_redirect_delay", cfg.LinkRedirectDelay,
	)

	// ── Database ─────────────────────────────────────────────────────────
	var (
		db  *store.SQLStore
		err error
	)
	if cfg.UsePostgres() {
		db, err = store.NewPostgresStore(cfg.DatabaseURL)
	} else {
		db, err = store.NewSQLiteStore(cfg.SQLitePath)
	}
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx)
	cancel()
	if err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	gitVCS := vcs.NewGitProvider()
	githubVerifier := auth.NewGitHubVerifier(cfg.GitHubAPIURL)

	// ── Services ─────────────────────────────────────────────────────────
	projectService := service.NewProjectService(db)
	repoService := service.NewRepoService(db, gitVCS, cfg.ReposBasePath)
	linkService := service.NewLinkService(db)
	profileService := service.NewRenderProfileService(db)
	settingsService := service.NewSettingsService(db, githubVerifier)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(db))

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	jobTracker := handler.NewJobTracker()

	handler.NewMetaHandler(cfg.AppName, cfg.LinkRedirectDelay).Register(api)
	handler.NewProjectHandler(projectService).Register(api)
	handler.NewRepoHandler(repoService, jobTracker, db).Register(api)
	handler.NewLinkHandler(linkService).Register(api)
	handler.NewRenderProfileHandler(profileService).Register(api)
	handler.NewSettingsHandler(settingsService).Register(api)
	handler.NewJobsHandler(jobTracker).Register(api)
	handler.NewAuditHandler(db).Register(api)

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(projectService, repoService, linkService, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
