// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind and validate input, call the use
// cases, schedule background work through a Scheduler, and translate errors
// into the standard envelope.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-notify-backend/internal/domain"
	"github.com/tbourn/go-notify-backend/internal/services"
)

// ContactService accepts contact submissions.
type ContactService interface {
	Submit(ctx context.Context, msg domain.ContactMessage, clientID, endpointKey, successMessage string) (services.SubmitContactResult, error)
}

// MailService delivers an accepted submission. It runs in the background.
type MailService interface {
	Execute(ctx context.Context, msg domain.ContactMessage, requestID string) error
}

// TaskService resolves the destination chat of a task and runs it.
type TaskService interface {
	Start(ctx context.Context, req domain.TaskExecutionRequest) (domain.StartedTask, error)
	RunAndNotify(ctx context.Context, task domain.StartedTask)
}

// TelegramService handles bot webhook updates and exposes the captured chat.
type TelegramService interface {
	VerifySecret(secret string) error
	HandleUpdate(ctx context.Context, update services.TelegramUpdate, secret string) (int64, bool, error)
	LastChat(ctx context.Context) (int64, bool, error)
}

// Handlers groups the HTTP endpoints of the service.
type Handlers struct {
	contact  ContactService
	mail     MailService
	tasks    TaskService
	telegram TelegramService
	jobs     services.Scheduler
}

// New constructs Handlers. jobs runs mail delivery and task execution after
// the response has been written.
func New(contact ContactService, mail MailService, tasks TaskService, telegram TelegramService, jobs services.Scheduler) *Handlers {
	return &Handlers{contact: contact, mail: mail, tasks: tasks, telegram: telegram, jobs: jobs}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Health
// @Produce     json
// @Success     200 {object} handlers.HealthResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, HealthResponse{Status: "ok"})
}
