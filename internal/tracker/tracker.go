// Package tracker implements the start/stop state machine on top of a
// session lock and a record store.
//
// A tracker is Idle while no lock exists and Running while one does. Stop
// appends the finished session to the store before it removes the lock, so an
// interrupted Stop leaves the tracker Running with its start time intact.
package tracker

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"

	"timetrack/internal/lockfile"
	"timetrack/internal/store"
	"timetrack/internal/timelog"
)

var (
	// ErrAlreadyRunning is returned by Start while a session is active.
	ErrAlreadyRunning = errors.New("tracker is already running")
	// ErrNotRunning is returned by Stop and Cancel while no session is active.
	ErrNotRunning = errors.New("tracker is not running")
	// ErrClockSkew is returned by Stop when the clock reads earlier than the
	// session start. The session stays active.
	ErrClockSkew = timelog.ErrClockSkew
)

// SessionLock is the durable marker of a running session.
type SessionLock interface {
	Exists() bool
	Create(start timelog.StartTime) error
	Read() (timelog.StartTime, error)
	Delete() error
}

// RecordStore holds completed sessions.
type RecordStore interface {
	Load() ([]timelog.Record, error)
	Append(rec timelog.Record) error
	Clear() error
}

// Paths locates the files backing a file-based tracker.
type Paths struct {
	LockFile     string
	DatabaseFile string
}

// Tracker coordinates a SessionLock and a RecordStore.
type Tracker struct {
	lock    SessionLock
	records RecordStore
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock used to stamp sessions.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger for state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// New returns a Tracker over the given lock and store.
func New(lock SessionLock, records RecordStore, opts ...Option) *Tracker {
	t := &Tracker{
		lock:    lock,
		records: records,
		now:     time.Now,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open returns a Tracker backed by the lock and database files in p.
func Open(p Paths, opts ...Option) *Tracker {
	return New(lockfile.New(p.LockFile), store.New(p.DatabaseFile), opts...)
}

// Start begins a new session and returns its recorded start time.
func (t *Tracker) Start() (timelog.StartTime, error) {
	start := timelog.NewStartTime(t.now())
	if err := t.lock.Create(start); err != nil {
		if errors.Is(err, lockfile.ErrExists) {
			return timelog.StartTime{}, fmt.Errorf("%w: %v", ErrAlreadyRunning, err)
		}
		return timelog.StartTime{}, fmt.Errorf("start session: %w", err)
	}
	t.log.Info("session started", "start", start)
	return start, nil
}

// Stop ends the running session and returns the stored record.
func (t *Tracker) Stop() (timelog.Record, error) {
	start, err := t.readStart()
	if err != nil {
		return timelog.Record{}, err
	}

	end := timelog.NewEndTime(t.now())
	rec, err := timelog.NewRecord(start, end)
	if err != nil {
		t.log.Warn("refusing to stop session", "start", start, "end", end, "error", err)
		return timelog.Record{}, fmt.Errorf("stop session: %w", err)
	}

	if err := t.records.Append(rec); err != nil {
		return timelog.Record{}, fmt.Errorf("stop session: record not saved, session still running: %w", err)
	}

	if err := t.lock.Delete(); err != nil {
		t.log.Error("session recorded but lock not removed", "start", start, "end", end, "error", err)
		return rec, fmt.Errorf("stop session: record saved but lock not removed (remove it by hand rather than stopping again): %w", err)
	}

	t.log.Info("session stopped", "start", start, "end", end, "duration", rec.Duration())
	return rec, nil
}

// Cancel discards the running session without recording it. An unreadable
// lock is discarded too; the returned start time is then zero.
func (t *Tracker) Cancel() (timelog.StartTime, error) {
	start, err := t.readStart()
	if err != nil {
		if !errors.Is(err, lockfile.ErrCorrupt) {
			return timelog.StartTime{}, err
		}
		t.log.Warn("discarding unreadable session lock", "error", err)
	}
	if err := t.lock.Delete(); err != nil {
		if errors.Is(err, lockfile.ErrNotExist) {
			return timelog.StartTime{}, ErrNotRunning
		}
		return timelog.StartTime{}, fmt.Errorf("cancel session: %w", err)
	}
	t.log.Info("session cancelled", "start", start)
	return start, nil
}

// IsRunning reports whether a session is active.
func (t *Tracker) IsRunning() bool {
	return t.lock.Exists()
}

// Status describes the current tracker state.
type Status struct {
	Running bool
	Start   timelog.StartTime
	Elapsed time.Duration
}

// Status returns the current state, including the elapsed time of a running
// session.
func (t *Tracker) Status() (Status, error) {
	if !t.lock.Exists() {
		return Status{}, nil
	}
	start, err := t.readStart()
	if err != nil {
		if errors.Is(err, ErrNotRunning) {
			return Status{}, nil
		}
		return Status{}, err
	}
	return Status{
		Running: true,
		Start:   start,
		Elapsed: t.now().Sub(start.Time()),
	}, nil
}

// Records returns the completed sessions, oldest first. The store is read
// once; the returned sequence can be ranged over any number of times.
func (t *Tracker) Records() (iter.Seq[timelog.Record], error) {
	recs, err := t.records.Load()
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return func(yield func(timelog.Record) bool) {
		for _, rec := range recs {
			if !yield(rec) {
				return
			}
		}
	}, nil
}

// Clear removes all completed sessions. A running session is not affected.
func (t *Tracker) Clear() error {
	if err := t.records.Clear(); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	t.log.Info("records cleared")
	return nil
}

func (t *Tracker) readStart() (timelog.StartTime, error) {
	start, err := t.lock.Read()
	if err != nil {
		if errors.Is(err, lockfile.ErrNotExist) {
			return timelog.StartTime{}, ErrNotRunning
		}
		return timelog.StartTime{}, fmt.Errorf("read session: %w", err)
	}
	return start, nil
}
