package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-notify-backend/internal/domain"
)

// Task status lines of the operator notification.
const (
	StatusLineDone   = "Done"
	StatusLineFailed = "Failed"
)

// BuildNotification renders the four-line operator message:
//
//	<status>
//	Repository: <name>
//	Execution time: <seconds>s
//	Modified files: <list | count | (no detail)>
func BuildNotification(status string, task domain.StartedTask, defaultRepo string, elapsed time.Duration) string {
	repo := strings.TrimSpace(task.RepositoryName)
	if repo == "" {
		repo = defaultRepo
	}

	files := "(no detail)"
	switch {
	case len(task.ModifiedFiles) > 0:
		files = strings.Join(task.ModifiedFiles, ", ")
	case task.ModifiedFilesCount != nil:
		files = strconv.Itoa(*task.ModifiedFilesCount)
	}

	return strings.Join([]string{
		status,
		"Repository: " + repo,
		fmt.Sprintf("Execution time: %.2fs", elapsed.Seconds()),
		"Modified files: " + files,
	}, "\n")
}
