package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"timetrack/internal/timelog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLock(t *testing.T) *Lock {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "track.lock"))
}

func TestCreateReadDelete(t *testing.T) {
	l := newLock(t)
	assert.False(t, l.Exists())

	start := timelog.NewStartTime(time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC))
	require.NoError(t, l.Create(start))
	assert.True(t, l.Exists())

	b, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"start_time":"2024-05-02T08:00:00Z"}`, string(b))

	got, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, start, got)

	require.NoError(t, l.Delete())
	assert.False(t, l.Exists())
}

func TestCreateIsExclusive(t *testing.T) {
	l := newLock(t)
	first := timelog.NewStartTime(time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC))
	require.NoError(t, l.Create(first))

	err := l.Create(timelog.StartNow())
	assert.ErrorIs(t, err, ErrExists)

	got, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, first, got, "existing lock must not be overwritten")
}

func TestConcurrentCreateOnlyOneWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.lock")

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- New(path).Create(timelog.StartNow())
		}()
	}
	wg.Wait()
	close(errs)

	var ok, exists int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrExists):
			exists++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, exists)
}

func TestLockNeverObservedPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.lock")
	start := timelog.NewStartTime(time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		l := New(path)
		for i := 0; i < 200; i++ {
			if err := l.Create(start); err != nil {
				t.Errorf("create: %v", err)
				return
			}
			if err := l.Delete(); err != nil {
				t.Errorf("delete: %v", err)
				return
			}
		}
	}()

	var corrupt, seen int
	reader := New(path)
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		got, err := reader.Read()
		switch {
		case err == nil:
			seen++
			assert.Equal(t, start, got)
		case errors.Is(err, ErrCorrupt):
			corrupt++
		}
	}
	wg.Wait()
	assert.Zero(t, corrupt, "lock path held incomplete content %d times (seen valid %d)", corrupt, seen)
}

func TestCreateLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "track.lock"))
	require.NoError(t, l.Create(timelog.StartNow()))
	assert.ErrorIs(t, l.Create(timelog.StartNow()), ErrExists)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "track.lock", entries[0].Name())
}

func TestCreateMakesParentDirectory(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "nested", "dir", "track.lock"))
	require.NoError(t, l.Create(timelog.StartNow()))
	assert.True(t, l.Exists())
}

func TestReadMissing(t *testing.T) {
	_, err := newLock(t).Read()
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestDeleteMissing(t *testing.T) {
	assert.ErrorIs(t, newLock(t).Delete(), ErrNotExist)
}

func TestReadCorrupt(t *testing.T) {
	cases := map[string]string{
		"garbage":       "not json",
		"empty":         "",
		"missing field": `{"started":"2024-05-02T08:00:00Z"}`,
		"bad timestamp": `{"start_time":"soon"}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			l := newLock(t)
			require.NoError(t, os.WriteFile(l.Path(), []byte(content), 0o644))
			_, err := l.Read()
			assert.ErrorIs(t, err, ErrCorrupt)
			assert.True(t, l.Exists(), "corrupt lock must be left for inspection")
		})
	}
}
