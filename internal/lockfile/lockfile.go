// Package lockfile persists the marker of an in-progress tracking session.
// The lock file exists exactly while a session is running and holds the
// session's start time.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"timetrack/internal/timelog"
)

var (
	// ErrExists is returned by Create when a session lock is already present.
	ErrExists = errors.New("session lock already exists")
	// ErrNotExist is returned by Read and Delete when no session lock is present.
	ErrNotExist = errors.New("session lock does not exist")
	// ErrCorrupt is returned by Read when the lock content cannot be parsed.
	ErrCorrupt = errors.New("session lock is corrupt")
)

type lockData struct {
	StartTime *timelog.StartTime `json:"start_time"`
}

// Lock is a session lock stored at a fixed path.
type Lock struct {
	path string
}

// New returns a Lock backed by the file at path.
func New(path string) *Lock {
	return &Lock{path: path}
}

// Path returns the location of the lock file.
func (l *Lock) Path() string { return l.path }

// Exists reports whether the lock file is present.
func (l *Lock) Exists() bool {
	_, err := os.Lstat(l.path)
	return err == nil
}

// Create writes a new lock holding start. The content is written to a
// temporary file first and hard-linked into place, so the lock path either
// does not exist or holds a complete lock, and two racing callers cannot both
// succeed.
func (l *Lock) Create(start timelog.StartTime) error {
	data, err := json.Marshal(lockData{StartTime: &start})
	if err != nil {
		return fmt.Errorf("marshal session lock: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(l.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create session lock %s: %w", l.path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	_, werr := tmp.Write(data)
	if werr == nil {
		werr = tmp.Sync()
	}
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(tmpName, 0o644)
	}
	if werr != nil {
		return fmt.Errorf("write session lock %s: %w", l.path, werr)
	}

	if err := os.Link(tmpName, l.path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, l.path)
		}
		return fmt.Errorf("create session lock %s: %w", l.path, err)
	}
	return nil
}

// Read returns the start time stored in the lock.
func (l *Lock) Read() (timelog.StartTime, error) {
	b, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return timelog.StartTime{}, fmt.Errorf("%w: %s", ErrNotExist, l.path)
		}
		return timelog.StartTime{}, fmt.Errorf("read session lock %s: %w", l.path, err)
	}

	var data lockData
	if err := json.Unmarshal(b, &data); err != nil {
		return timelog.StartTime{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, l.path, err)
	}
	if data.StartTime == nil || data.StartTime.IsZero() {
		return timelog.StartTime{}, fmt.Errorf("%w: %s: missing start_time", ErrCorrupt, l.path)
	}
	return *data.StartTime, nil
}

// Delete removes the lock file.
func (l *Lock) Delete() error {
	if err := os.Remove(l.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotExist, l.path)
		}
		return fmt.Errorf("remove session lock %s: %w", l.path, err)
	}
	return nil
}
