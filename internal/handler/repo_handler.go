package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/gource-tools/gource-tools/internal/domain"
	"github.com/gource-tools/gource-tools/internal/port"
	"github.com/gource-tools/gource-tools/internal/service"
)

// RepoEvent represents a repository status change sent via SSE.
type RepoEvent struct {
	RepoID int64  `json:"repo_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	JobID  string `json:"job_id,omitempty"`
}

// RepoEventBus broadcasts repository status changes to SSE subscribers.
type RepoEventBus struct {
	mu   sync.RWMutex
	subs []chan RepoEvent
}

func NewRepoEventBus() *RepoEventBus {
	return &RepoEventBus{}
}

func (b *RepoEventBus) Publish(evt RepoEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (b *RepoEventBus) Subscribe() chan RepoEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan RepoEvent, 10)
	b.subs = append(b.subs, ch)
	return ch
}

func (b *RepoEventBus) Unsubscribe(ch chan RepoEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
	close(ch)
}

// RepoHandler handles repository CRUD and sync.
type RepoHandler struct {
	repos   *service.RepoService
	tracker *JobTracker
	events  *RepoEventBus
	audit   port.AuditStore
}

// NewRepoHandler creates a new repository handler.
func NewRepoHandler(repos *service.RepoService, tracker *JobTracker, audit port.AuditStore) *RepoHandler {
	return &RepoHandler{
		repos:   repos,
		tracker: tracker,
		events:  NewRepoEventBus(),
		audit:   audit,
	}
}

// Register sets up repository routes.
func (h *RepoHandler) Register(router fiber.Router) {
	repos := router.Group("/repositories")
	repos.Get("/", h.List)
	repos.Post("/", h.Create)
	repos.Get("/events", h.StreamEvents)
	repos.Get("/:id", h.Get)
	repos.Delete("/:id", h.Delete)
	repos.Post("/:id/sync", h.Sync)
}

// List returns repositories, filtered by ?project_id= or ?q=.
func (h *RepoHandler) List(c fiber.Ctx) error {
	projectID, err := queryID(c, "project_id")
	if err != nil {
		return respondError(c, err)
	}
	repos, err := h.repos.List(c.Context(), projectID, c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(repos)
}

// Get returns one repository.
func (h *RepoHandler) Get(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	repo, err := h.repos.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(repo)
}

// Create registers a repository by URL or local path.
func (h *RepoHandler) Create(c fiber.Ctx) error {
	var in service.RepositoryInput
	if err := c.Bind().JSON(&in); err != nil {
		return respondError(c, invalidBody())
	}
	repo, err := h.repos.Create(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(repo)
}

// Delete removes a repository and its project links.
func (h *RepoHandler) Delete(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.repos.Delete(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Sync starts a background clone or pull and returns the tracking job.
func (h *RepoHandler) Sync(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	repo, err := h.repos.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.repos.MarkSyncing(c.Context(), repo); err != nil {
		return respondError(c, err)
	}
	repo.Status = domain.RepoStatusSyncing

	job := h.tracker.CreateJob(uuid.NewString(), repo.ID)
	h.events.Publish(RepoEvent{RepoID: repo.ID, Name: repo.Name, Status: repo.Status, JobID: job.ID})

	go h.runSync(job.ID, *repo)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":    "sync started",
		"job":        job,
		"repository": repo,
	})
}

func (h *RepoHandler) runSync(jobID string, repo domain.Repository) {
	h.tracker.UpdateJob(jobID, "fetching", domain.JobStatusRunning, nil)

	synced, err := h.repos.Sync(context.Background(), &repo)
	if err != nil {
		h.tracker.UpdateJob(jobID, "fetching", domain.JobStatusError, err)
		h.events.Publish(RepoEvent{RepoID: repo.ID, Name: repo.Name, Status: domain.RepoStatusError, JobID: jobID})
		h.writeAudit(repo.ID, jobID, domain.RepoStatusError)
		return
	}

	h.tracker.UpdateJob(jobID, "done", domain.JobStatusComplete, nil)
	h.events.Publish(RepoEvent{RepoID: synced.ID, Name: synced.Name, Status: synced.Status, JobID: jobID})
	h.writeAudit(repo.ID, jobID, synced.Status)
}

func (h *RepoHandler) writeAudit(repoID int64, jobID, status string) {
	details, _ := json.Marshal(map[string]string{"job_id": jobID, "status": status})
	if err := h.audit.WriteAudit(domain.AuditActionSync, "repository", strconv.FormatInt(repoID, 10), string(details), "", ""); err != nil {
		slog.Error("failed to write audit log", "error", err)
	}
}

// StreamEvents streams repository status changes via SSE.
func (h *RepoHandler) StreamEvents(c fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	ch := h.events.Subscribe()

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer h.events.Unsubscribe(ch)

		fmt.Fprintf(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for evt := range ch {
			data, _ := json.Marshal(evt)
			fmt.Fprintf(w, "event: repo_status\ndata: %s\n\n", data)
			if err := w.Flush(); err != nil {
				slog.Debug("SSE client gone", "error", err)
				return
			}
			slog.Info("SSE repo event", "repo_id", evt.RepoID, "status", evt.Status)
		}
	})
}
