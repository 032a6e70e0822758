package domain

import (
	"strings"
	"time"
)

// Bounds enforced on task requests at the HTTP boundary.
const (
	MaxTaskDurationSeconds      = 600
	MaxTaskExecutionTimeSeconds = 86400
	MaxModifiedFiles            = 200
	MaxRepositoryNameLen        = 240
)

// TaskExecutionRequest is the input of a simulated task run.
// Optional fields are nil when the caller did not send them.
type TaskExecutionRequest struct {
	DurationSeconds      float64
	ForceFail            bool
	ModifiedFiles        []string
	ModifiedFilesCount   *int
	RepositoryName       *string
	ExecutionTimeSeconds *float64
	StartedAt            *time.Time
	EndedAt              *time.Time
}

// StartedTask is a task whose destination chat has been resolved. It is
// handed to the background runner and never mutated afterwards.
type StartedTask struct {
	ChatID               int64
	DurationSeconds      float64
	ForceFail            bool
	ModifiedFiles        []string
	ModifiedFilesCount   *int
	RepositoryName       string
	ExecutionTimeSeconds *float64
	StartedAt            *time.Time
	EndedAt              *time.Time
}

// NormalizeModifiedFiles trims entries and drops blank ones, keeping order.
func NormalizeModifiedFiles(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// NormalizeRepositoryName trims the name; nil and blank both yield "".
func NormalizeRepositoryName(name *string) string {
	if name == nil {
		return ""
	}
	return strings.TrimSpace(*name)
}

// ReportedDuration is the elapsed time published for the task: an explicit
// override wins, then a well-ordered start/end pair, then the measured value.
func (t StartedTask) ReportedDuration(measured time.Duration) time.Duration {
	if t.ExecutionTimeSeconds != nil {
		return time.Duration(*t.ExecutionTimeSeconds * float64(time.Second))
	}
	if t.StartedAt != nil && t.EndedAt != nil && !t.EndedAt.Before(*t.StartedAt) {
		return t.EndedAt.Sub(*t.StartedAt)
	}
	return measured
}
