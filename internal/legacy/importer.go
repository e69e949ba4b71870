// Package legacy reads completed sessions out of a timer_tui SQLite database
// so they can be moved into the flat record store.
package legacy

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"timetrack/internal/timelog"

	_ "modernc.org/sqlite"
)

// Destination is the record store imported sessions are added to.
type Destination interface {
	Load() ([]timelog.Record, error)
	AppendAll(recs []timelog.Record) error
}

// Result summarises an import.
type Result struct {
	Imported int
	// Skipped counts rows with unreadable or reversed timestamps.
	Skipped int
	// Duplicates counts sessions already present in the destination.
	Duplicates int
}

// Repository is a read-only view of a timer_tui database.
type Repository struct {
	db *sql.DB
}

// Open opens the SQLite database at path. The file must already exist.
func Open(path string) (*Repository, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open legacy database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open legacy database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open legacy database: %w", err)
	}
	return &Repository{db: db}, nil
}

// Records returns every valid session in the time_logs table, oldest first,
// and the number of rows that were skipped because their timestamps were
// unreadable or reversed.
func (r *Repository) Records() ([]timelog.Record, int, error) {
	rows, err := r.db.Query("SELECT started_at, stopped_at FROM time_logs ORDER BY id")
	if err != nil {
		return nil, 0, fmt.Errorf("query time_logs: %w", err)
	}
	defer rows.Close()

	var (
		recs    []timelog.Record
		skipped int
	)
	for rows.Next() {
		var startedAt, stoppedAt string
		if err := rows.Scan(&startedAt, &stoppedAt); err != nil {
			return nil, 0, fmt.Errorf("scan time_logs: %w", err)
		}
		start, err1 := time.Parse(time.RFC3339, startedAt)
		end, err2 := time.Parse(time.RFC3339, stoppedAt)
		if err := errors.Join(err1, err2); err != nil {
			skipped++
			continue
		}
		rec, err := timelog.NewRecord(timelog.NewStartTime(start), timelog.NewEndTime(end))
		if err != nil {
			skipped++
			continue
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("read time_logs: %w", err)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].End.Time().Before(recs[j].End.Time())
	})
	return recs, skipped, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Import copies the sessions from the database at path into dst. Sessions
// whose start and end already appear in dst are left out, so importing the
// same database twice adds nothing the second time.
func Import(path string, dst Destination) (Result, error) {
	repo, err := Open(path)
	if err != nil {
		return Result{}, err
	}
	defer repo.Close()

	recs, skipped, err := repo.Records()
	if err != nil {
		return Result{}, err
	}
	existing, err := dst.Load()
	if err != nil {
		return Result{}, fmt.Errorf("load destination records: %w", err)
	}

	type span struct{ start, end int64 }
	seen := make(map[span]struct{}, len(existing)+len(recs))
	for _, r := range existing {
		seen[span{r.Start.Time().UnixNano(), r.End.Time().UnixNano()}] = struct{}{}
	}
	fresh := recs[:0]
	for _, r := range recs {
		k := span{r.Start.Time().UnixNano(), r.End.Time().UnixNano()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		fresh = append(fresh, r)
	}

	if err := dst.AppendAll(fresh); err != nil {
		return Result{}, fmt.Errorf("append imported records: %w", err)
	}
	return Result{Imported: len(fresh), Skipped: skipped, Duplicates: len(recs) - len(fresh)}, nil
}
