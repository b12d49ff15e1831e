package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/stopmap/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, internal_error, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}

// errTooMany returns a 429 error.
func errTooMany(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusTooManyRequests, "too_many_sessions", msg)
}

// errFromUsecase maps service errors onto API errors.
func errFromUsecase(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecases.ErrSessionNotFound),
		errors.Is(err, usecases.ErrStopNotFound),
		errors.Is(err, usecases.ErrMarkerNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, usecases.ErrTooManySessions):
		return errTooMany(c, err.Error())
	case errors.Is(err, usecases.ErrCatalogNotLoaded):
		return errUnavailable(c, err.Error())
	default:
		return errInternal(c, err.Error())
	}
}
