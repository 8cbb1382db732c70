package genvr

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// maxErrorBody caps the response body quoted in error messages, in bytes.
const maxErrorBody = 512

// ErrTaskTimedOut is matched by errors.Is when polling gives up.
var ErrTaskTimedOut = errors.New("task timed out")

// RemoteRequestError reports a non-2xx response or a transport failure
// talking to the generation API.
type RemoteRequestError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s request failed: HTTP %d: %s", e.Op, e.StatusCode, truncateBody(e.Body))
}

func (e *RemoteRequestError) Unwrap() error { return e.Err }

// truncateBody cuts s to at most maxErrorBody bytes on a rune boundary.
func truncateBody(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// TaskFailedError reports that the remote system marked the task failed.
type TaskFailedError struct {
	TaskID string
	Detail string
}

func (e *TaskFailedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("task %s failed", e.TaskID)
	}
	return fmt.Sprintf("task %s failed: %s", e.TaskID, e.Detail)
}

// TaskTimedOutError reports that no terminal status was observed within the
// attempt budget. The remote job may still be running.
type TaskTimedOutError struct {
	TaskID   string
	Attempts int
}

func (e *TaskTimedOutError) Error() string {
	return fmt.Sprintf("task %s did not finish after %d status checks", e.TaskID, e.Attempts)
}

func (e *TaskTimedOutError) Unwrap() error { return ErrTaskTimedOut }
