// Package http renders feature errors as JSON responses.
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"eva_exchange/internal/shared/apperr"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps an error category to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RenderError writes err with the status of its category.
// Client errors expose the message; server errors are logged and answered generically.
func RenderError(c *gin.Context, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error(op+" failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(status, ErrorResponse{Error: http.StatusText(status)})
		return
	}
	slog.Warn(op+" rejected", "error", err, "remote_addr", c.ClientIP())
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

// BadRequest answers a request whose body or parameters could not be bound.
func BadRequest(c *gin.Context, op string, err error) {
	slog.Warn(op+" validation failed", "error", err, "remote_addr", c.ClientIP())
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
}
