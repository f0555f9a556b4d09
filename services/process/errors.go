package process

import (
	"fmt"
	"time"
)

// ExitError reports a process that exited with a nonzero status.
type ExitError struct {
	Name    string
	Code    int
	LogPath string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d, see %s for details", e.Name, e.Code, e.LogPath)
}

// TimeoutError reports a process that did not finish before its deadline and
// was terminated.
type TimeoutError struct {
	Name     string
	Deadline time.Duration
	LogPath  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not finish within %s and was terminated, see %s for details", e.Name, e.Deadline, e.LogPath)
}

// CanceledError reports a process terminated because its context ended.
type CanceledError struct {
	Name    string
	Err     error
	LogPath string
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("%s was interrupted (%v), see %s for details", e.Name, e.Err, e.LogPath)
}

func (e *CanceledError) Unwrap() error {
	return e.Err
}
