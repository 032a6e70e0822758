// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by all endpoints. Every error
// leaves through fail(), which writes the ErrorResponse envelope and logs
// server-side failures with the request-scoped logger.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-notify-backend/internal/http/middleware"
	"github.com/tbourn/go-notify-backend/internal/sysutil"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"validation_error"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"email format is invalid"`
}

// fail aborts the request with the error envelope. Statuses >= 500 are logged
// at error level.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: sysutil.FirstNonEmpty(middleware.RequestIDFrom(c), c.Writer.Header().Get("X-Request-ID")),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router (404/405 handlers).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failInternal logs err with the request-scoped logger and answers 500 with
// the generic message only.
func failInternal(c *gin.Context, event string, err error) {
	middleware.LoggerFrom(c).Error().Err(err).Str("event", event).Msg(event)
	fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
