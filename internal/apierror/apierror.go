// Package apierror defines the classified failures the API can surface and
// the Fiber handler that normalizes them into the standard error envelope.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Error is a classified API failure carrying an HTTP status, a
// human-readable message and optional structured details.
type Error struct {
	StatusCode int
	Message    string
	Details    any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// BadRequest returns a 400 error with optional structured details.
func BadRequest(message string, details any) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Message: message, Details: details}
}

// Unauthorized returns a 401 error. An empty message falls back to a default.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Unauthorized"
	}
	return &Error{StatusCode: http.StatusUnauthorized, Message: message}
}

// Forbidden returns a 403 error. An empty message falls back to a default.
func Forbidden(message string) *Error {
	if message == "" {
		message = "Access forbidden"
	}
	return &Error{StatusCode: http.StatusForbidden, Message: message}
}

// NotFound returns a 404 error. An empty message falls back to a default.
func NotFound(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return &Error{StatusCode: http.StatusNotFound, Message: message}
}

// Conflict returns a 409 error with optional structured details.
func Conflict(message string, details any) *Error {
	return &Error{StatusCode: http.StatusConflict, Message: message, Details: details}
}

// Internal returns a 500 error. An empty message falls back to a default.
func Internal(message string) *Error {
	if message == "" {
		message = "Internal server error"
	}
	return &Error{StatusCode: http.StatusInternalServerError, Message: message}
}

// FromWrite classifies a persistence error raised on a write path. Unique
// constraint violations become Conflict; anything else becomes BadRequest
// with the raw driver message attached as details.
func FromWrite(err error, message, conflictMessage string) *Error {
	if isDuplicate(err) {
		return Conflict(conflictMessage, nil)
	}
	return BadRequest(message, err.Error())
}

// isDuplicate matches unique constraint violations. GORM translates them to
// ErrDuplicatedKey when the dialector supports it; the string checks cover
// drivers opened without error translation.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// FromRead classifies a persistence error raised on a read path. Not-found
// is surfaced as such; anything else is masked behind a generic internal
// error so driver details never leak on lookups.
func FromRead(err error, notFoundMessage, message string) *Error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(notFoundMessage)
	}
	return Internal(message)
}

// envelope is the normalized error body: {success:false, message, details?}.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Handler builds the Fiber error handler that funnels every failure into the
// standard envelope. Errors with status >= 500 are logged server-side; a
// stack trace is attached only in development mode.
func Handler(log zerolog.Logger, development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		resp := envelope{Message: "An error occurred"}
		status := http.StatusInternalServerError

		var apiErr *Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &apiErr):
			status = apiErr.StatusCode
			resp.Message = apiErr.Message
			resp.Details = apiErr.Details
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			resp.Message = fiberErr.Message
		default:
			resp.Message = "Internal server error"
		}

		if development {
			resp.Stack = string(debug.Stack())
		}

		if status >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Int("status", status).
				Msg("request failed")
		}

		return c.Status(status).JSON(resp)
	}
}

// NotFoundHandler synthesizes a NotFound error for unmatched routes, naming
// the method and path. Register it after every route.
func NotFoundHandler(c *fiber.Ctx) error {
	return NotFound(fmt.Sprintf("Route %s %s not found", c.Method(), c.Path()))
}
