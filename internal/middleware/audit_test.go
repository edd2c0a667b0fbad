package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditRecord struct {
	action, resource, resourceID, details string
}

type recordingWriter struct {
	mu      sync.Mutex
	records []auditRecord
}

func (w *recordingWriter) WriteAudit(action, resource, resourceID, details, _, _ string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, auditRecord{action, resource, resourceID, details})
	return nil
}

func (w *recordingWriter) snapshot() []auditRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]auditRecord(nil), w.records...)
}

func TestAuditMiddlewareRecordsRequest(t *testing.T) {
	w := &recordingWriter{}
	app := fiber.New()
	app.Use(AuditMiddleware(w))
	app.Get("/api/v1/projects", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusTeapot).SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/projects", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	require.Eventually(t, func() bool { return len(w.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	rec := w.snapshot()[0]
	assert.Equal(t, "http_request", rec.action)
	assert.Equal(t, "/api/v1/projects", rec.resourceID)

	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(rec.details), &details))
	assert.Equal(t, "GET", details["method"])
	assert.EqualValues(t, fiber.StatusTeapot, details["status"])
}
