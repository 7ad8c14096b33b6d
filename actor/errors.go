package actor

import (
	"errors"
	"fmt"
)

// ErrNoDataset is returned when a succeeded run has no default dataset.
var ErrNoDataset = errors.New("actor: run produced no dataset")

// ErrWaitTimeout is returned when a run does not finish within MaxWait.
var ErrWaitTimeout = errors.New("actor: run did not finish in time")

// RunError reports a run that ended in a non-success terminal status.
type RunError struct {
	RunID   string
	Status  string
	Message string
}

func (e *RunError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("actor: run %s ended %s: %s", e.RunID, e.Status, e.Message)
	}
	return fmt.Sprintf("actor: run %s ended %s", e.RunID, e.Status)
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("actor: %s: http %d: %s", e.Op, e.StatusCode, e.Body)
}
