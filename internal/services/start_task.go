// Package services – StartTaskService
//
// This file implements the task workflow in two phases:
//
//   - Start (synchronous): normalizes the request and resolves the destination
//     chat from the chat-state gateway, adopting the configured fallback chat
//     id when nothing was captured yet. It is the only phase that can fail.
//   - RunAndNotify (background): waits for the simulated duration, then sends
//     exactly one notification, "Done" or "Failed". Nothing escapes it; a
//     failed send is logged and dropped.
//
// The fallback adoption is a read-then-write and is not atomic: two concurrent
// first requests may both store the same fallback id.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-notify-backend/internal/domain"
	"github.com/tbourn/go-notify-backend/internal/observability"
	"github.com/tbourn/go-notify-backend/internal/requestid"
)

const defaultRepositoryName = "unknown-repository"

// StartTaskService resolves task destinations and runs simulated tasks.
type StartTaskService struct {
	ChatState ChatStateGateway
	Notifier  Notifier
	Log       zerolog.Logger

	// DefaultRepository names the repository when a task carries none.
	DefaultRepository string
	// FallbackChatID is adopted (and persisted) when no chat was captured.
	FallbackChatID *int64

	now   func() time.Time
	sleep func(time.Duration)
}

// NewStartTaskService constructs a StartTaskService using the wall clock.
func NewStartTaskService(chatState ChatStateGateway, notifier Notifier, lg zerolog.Logger, repositoryName string, fallbackChatID *int64) *StartTaskService {
	repositoryName = strings.TrimSpace(repositoryName)
	if repositoryName == "" {
		repositoryName = defaultRepositoryName
	}
	return &StartTaskService{
		ChatState:         chatState,
		Notifier:          notifier,
		Log:               lg,
		DefaultRepository: repositoryName,
		FallbackChatID:    fallbackChatID,
		now:               time.Now,
		sleep:             time.Sleep,
	}
}

// Start resolves the destination chat and returns the task to run.
//
// Errors:
//   - ErrLastChatNotAvailable when no chat id was captured and no fallback
//     is configured. The caller must not schedule anything in that case.
//   - The chat-state gateway error when reading the last chat id fails.
func (s *StartTaskService) Start(ctx context.Context, req domain.TaskExecutionRequest) (domain.StartedTask, error) {
	ctx, span := observability.Tracer("services/StartTaskService").Start(ctx, "Start")
	defer span.End()

	lg := s.Log.With().Str("request_id", requestid.FromContext(ctx)).Logger()

	files := domain.NormalizeModifiedFiles(req.ModifiedFiles)
	repo := domain.NormalizeRepositoryName(req.RepositoryName)
	lg.Info().
		Str("event", "task_start_requested").
		Float64("duration_seconds", req.DurationSeconds).
		Bool("force_fail", req.ForceFail).
		Strs("modified_files", files).
		Str("repository_name", repo).
		Msg("task_start_requested")

	chatID, ok, err := s.ChatState.LastChatID(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.StartedTask{}, fmt.Errorf("read last chat id: %w", err)
	}
	if !ok {
		if s.FallbackChatID == nil {
			return domain.StartedTask{}, ErrLastChatNotAvailable
		}
		chatID = *s.FallbackChatID
		if err := s.ChatState.SetLastChatID(ctx, chatID); err != nil {
			// the task can still be delivered; the next request will retry the write
			lg.Warn().Err(err).Int64("chat_id", chatID).Msg("persist fallback chat id failed")
		}
		lg.Info().Str("event", "fallback_chat_adopted").Int64("chat_id", chatID).Msg("fallback_chat_adopted")
	}

	span.SetAttributes(attribute.Int64("chat.id", chatID))
	lg.Info().Str("event", "task_scheduled").Int64("chat_id", chatID).Msg("task_scheduled")

	return domain.StartedTask{
		ChatID:               chatID,
		DurationSeconds:      req.DurationSeconds,
		ForceFail:            req.ForceFail,
		ModifiedFiles:        files,
		ModifiedFilesCount:   req.ModifiedFilesCount,
		RepositoryName:       repo,
		ExecutionTimeSeconds: req.ExecutionTimeSeconds,
		StartedAt:            req.StartedAt,
		EndedAt:              req.EndedAt,
	}, nil
}

// RunAndNotify runs the simulated task and sends one notification with the
// outcome. It never returns an error and never panics.
func (s *StartTaskService) RunAndNotify(ctx context.Context, task domain.StartedTask) {
	ctx, span := observability.Tracer("services/StartTaskService").Start(ctx, "RunAndNotify",
		trace.WithAttributes(
			attribute.Int64("chat.id", task.ChatID),
			attribute.Bool("task.force_fail", task.ForceFail),
		),
	)
	defer span.End()

	lg := s.Log.With().
		Str("request_id", requestid.FromContext(ctx)).
		Int64("chat_id", task.ChatID).
		Logger()

	lg.Info().
		Str("event", "task_started").
		Float64("duration_seconds", task.DurationSeconds).
		Bool("force_fail", task.ForceFail).
		Msg("task_started")

	clock := s.clock()
	started := clock()
	runErr := s.execute(task)
	elapsed := task.ReportedDuration(clock().Sub(started))

	status, statusLabel := StatusLineDone, "done"
	if runErr != nil {
		status, statusLabel = StatusLineFailed, "failed"
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		lg.Error().Err(runErr).Str("event", "task_failed").Msg("task_failed")
	}

	text := BuildNotification(status, task, s.defaultRepository(), elapsed)
	if err := s.Notifier.SendMessage(ctx, task.ChatID, text); err != nil {
		lg.Error().Err(err).Str("event", "task_notification_failed").Str("status", statusLabel).Msg("task_notification_failed")
		observability.TaskNotifications.WithLabelValues(statusLabel, observability.OutcomeFailed).Inc()
		return
	}
	lg.Info().Str("event", "task_notified").Str("status", statusLabel).Msg("task_notified")
	observability.TaskNotifications.WithLabelValues(statusLabel, observability.OutcomeSent).Inc()
}

// execute is the task body. Panics are turned into errors so the failure
// notification still goes out.
func (s *StartTaskService) execute(task domain.StartedTask) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()

	if d := time.Duration(task.DurationSeconds * float64(time.Second)); d > 0 {
		s.sleepFn()(d)
	}
	if task.ForceFail {
		return errForcedFailure
	}
	return nil
}

func (s *StartTaskService) clock() func() time.Time {
	if s.now != nil {
		return s.now
	}
	return time.Now
}

func (s *StartTaskService) sleepFn() func(time.Duration) {
	if s.sleep != nil {
		return s.sleep
	}
	return time.Sleep
}

func (s *StartTaskService) defaultRepository() string {
	if r := strings.TrimSpace(s.DefaultRepository); r != "" {
		return r
	}
	return defaultRepositoryName
}
