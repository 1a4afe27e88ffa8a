package acquire

import (
	"errors"
	"fmt"
)

var (
	// ErrToolUnavailable means the external downloader is not installed.
	// It selects the fallback strategy and is never shown to users.
	ErrToolUnavailable = errors.New("external download tool unavailable")
	// ErrBusy is returned when an acquisition is already running.
	ErrBusy = errors.New("an acquisition is already in progress")
	// ErrInvalidDescriptor rejects descriptors without id or repository.
	ErrInvalidDescriptor = errors.New("model descriptor requires id and repo id")
)

// SubprocessError reports a launched downloader that exited non-zero.
type SubprocessError struct {
	Tool     string
	ExitCode int
}

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}

// IsSubprocessFailure reports whether err is a SubprocessError.
func IsSubprocessFailure(err error) bool {
	var se *SubprocessError
	return errors.As(err, &se)
}

// IsBusy reports whether err indicates a concurrent acquisition.
func IsBusy(err error) bool { return errors.Is(err, ErrBusy) }
