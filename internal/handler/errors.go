package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/gource-tools/gource-tools/internal/port"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case port.IsValidation(err), errors.Is(err, port.ErrNothingToSync):
		return fiber.StatusBadRequest
	case errors.Is(err, port.ErrProjectNotFound),
		errors.Is(err, port.ErrRepositoryNotFound),
		errors.Is(err, port.ErrRenderProfileNotFound),
		errors.Is(err, port.ErrLinkNotFound),
		errors.Is(err, port.ErrJobNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, port.ErrAlreadyLinked), errors.Is(err, port.ErrDuplicateName):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as {"error": "..."} with the mapped status.
func respondError(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// paramID reads a positive integer route parameter.
func paramID(c fiber.Ctx, key string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, port.Invalid(key, "must be a positive integer")
	}
	return id, nil
}

// queryID reads an optional integer query parameter; absent means 0.
func queryID(c fiber.Ctx, key string) (int64, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0, port.Invalid(key, "must be a positive integer")
	}
	return id, nil
}

// queryInt reads an integer query param with a default value.
func queryInt(c fiber.Ctx, key string, defaultVal int) int {
	v := c.Query(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func invalidBody() error {
	return port.Invalid("", "invalid body")
}
