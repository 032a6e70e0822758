// Task HTTP handlers.
//
// POST /tasks/start resolves the chat to notify, answers 202 right away, and
// runs the simulated task in the background.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-notify-backend/internal/domain"
	"github.com/tbourn/go-notify-backend/internal/services"
)

// defaultTaskDuration applies when duration_seconds is omitted.
const defaultTaskDuration = 1.0

// StartTaskRequest is the JSON payload of POST /tasks/start. Every field is
// optional; an empty body starts a one-second task.
type StartTaskRequest struct {
	DurationSeconds      *float64   `json:"duration_seconds" binding:"omitempty,gte=0,lte=600" example:"5"`
	ForceFail            bool       `json:"force_fail" example:"false"`
	ModifiedFiles        []string   `json:"modified_files" binding:"omitempty,max=200" example:"main.go,README.md"`
	ModifiedFilesCount   *int       `json:"modified_files_count" binding:"omitempty,gte=0" example:"2"`
	RepositoryName       *string    `json:"repository_name" binding:"omitempty,max=240" example:"go-notify-backend"`
	ExecutionTimeSeconds *float64   `json:"execution_time_seconds" binding:"omitempty,gte=0,lte=86400" example:"42.5"`
	StartDatetime        *time.Time `json:"start_datetime" example:"2025-01-02T15:04:05Z"`
	EndDatetime          *time.Time `json:"end_datetime" example:"2025-01-02T15:05:05Z"`
}

func (r StartTaskRequest) toDomain() domain.TaskExecutionRequest {
	duration := defaultTaskDuration
	if r.DurationSeconds != nil {
		duration = *r.DurationSeconds
	}
	return domain.TaskExecutionRequest{
		DurationSeconds:      duration,
		ForceFail:            r.ForceFail,
		ModifiedFiles:        r.ModifiedFiles,
		ModifiedFilesCount:   r.ModifiedFilesCount,
		RepositoryName:       r.RepositoryName,
		ExecutionTimeSeconds: r.ExecutionTimeSeconds,
		StartedAt:            r.StartDatetime,
		EndedAt:              r.EndDatetime,
	}
}

// TaskStartedResponse echoes the scheduled task.
type TaskStartedResponse struct {
	Status               string   `json:"status" example:"started"`
	ChatID               int64    `json:"chat_id" example:"123456789"`
	DurationSeconds      float64  `json:"duration_seconds" example:"5"`
	ForceFail            bool     `json:"force_fail" example:"false"`
	ModifiedFiles        []string `json:"modified_files"`
	ModifiedFilesCount   *int     `json:"modified_files_count"`
	RepositoryName       string   `json:"repository_name" example:"go-notify-backend"`
	ExecutionTimeSeconds *float64 `json:"execution_time_seconds"`
}

func presentTaskStarted(t domain.StartedTask) TaskStartedResponse {
	files := t.ModifiedFiles
	if files == nil {
		files = []string{}
	}
	return TaskStartedResponse{
		Status:               "started",
		ChatID:               t.ChatID,
		DurationSeconds:      t.DurationSeconds,
		ForceFail:            t.ForceFail,
		ModifiedFiles:        files,
		ModifiedFilesCount:   t.ModifiedFilesCount,
		RepositoryName:       t.RepositoryName,
		ExecutionTimeSeconds: t.ExecutionTimeSeconds,
	}
}

// StartTask godoc
// @ID          startTask
// @Summary     Start a simulated task
// @Description Resolves the Telegram chat to notify, then runs the task in the background and reports its outcome to that chat.
// @Tags        Tasks
// @Accept      json
// @Produce     json
// @Param       X-API-Key  header  string                     false  "Shared secret (when TASKS_API_KEY is set)"
// @Param       body       body    handlers.StartTaskRequest  false  "Task parameters"
// @Success     202  {object}  handlers.TaskStartedResponse
// @Failure     400  {object}  handlers.ErrorResponse  "No chat to notify"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid API key"
// @Failure     422  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal server error"
// @Router      /tasks/start [post]
func (h *Handlers) StartTask(c *gin.Context) {
	var req StartTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		failValidation(c, err)
		return
	}

	ctx := c.Request.Context()
	task, err := h.tasks.Start(ctx, req.toDomain())
	switch {
	case errors.Is(err, services.ErrLastChatNotAvailable):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case err != nil:
		failInternal(c, "task_start_failed", err)
		return
	}

	h.jobs.Go(ctx, "run_task", func(ctx context.Context) {
		h.tasks.RunAndNotify(ctx, task)
	})

	ok(c, http.StatusAccepted, presentTaskStarted(task))
}
