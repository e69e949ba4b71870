package cli

import (
	"errors"
	"fmt"
	"io"

	"timetrack/internal/lockfile"
	"timetrack/internal/store"
	"timetrack/internal/tracker"
)

// Exit codes returned by Execute.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitUsage          = 2
	ExitAlreadyRunning = 3
	ExitNotRunning     = 4
	ExitCorrupt        = 5
)

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// suggestion returns remediation advice for err, or "" if there is none.
func suggestion(err error) string {
	switch {
	case errors.Is(err, tracker.ErrAlreadyRunning):
		return "run `track stop` before starting again, or `track cancel` to discard the running session"
	case errors.Is(err, tracker.ErrNotRunning):
		return "run `track start` to begin a session"
	case errors.Is(err, tracker.ErrClockSkew):
		return "the system clock moved backwards; fix the clock and run `track stop` again"
	case errors.Is(err, lockfile.ErrCorrupt):
		return "inspect the lock file, or run `track cancel` to discard the session"
	case errors.Is(err, store.ErrCorrupt):
		return "inspect or restore the database file; it was left untouched"
	}
	var ue usageError
	if errors.As(err, &ue) {
		return "run `track --help` for usage"
	}
	return ""
}

// exitCode maps err to a process exit code.
func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, tracker.ErrAlreadyRunning):
		return ExitAlreadyRunning
	case errors.Is(err, tracker.ErrNotRunning):
		return ExitNotRunning
	case errors.Is(err, lockfile.ErrCorrupt), errors.Is(err, store.ErrCorrupt):
		return ExitCorrupt
	case errors.As(err, &ue):
		return ExitUsage
	}
	return ExitFailure
}

func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	if s := suggestion(err); s != "" {
		_, _ = fmt.Fprintf(w, "Suggestion: %s\n", s)
	}
}
