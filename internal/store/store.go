// Package store keeps completed sessions in a single JSON document.
//
// The whole document is rewritten on every change. Writes go to a temporary
// file in the same directory which is synced and renamed over the database,
// so a reader only ever sees the previous or the new complete document.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"timetrack/internal/timelog"
)

// ErrCorrupt is returned when the database exists but cannot be parsed.
var ErrCorrupt = errors.New("database is corrupt")

type database struct {
	Records []timelog.Record `json:"records"`
}

// Store is a flat-file record store.
type Store struct {
	path string
}

// New returns a Store backed by the file at path. The file is created lazily
// on the first write.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the database file.
func (s *Store) Path() string { return s.path }

// Load returns all records in insertion order. A missing or empty database
// holds zero records. A record without both timestamps, or one that ends
// before it starts, makes the whole database corrupt.
func (s *Store) Load() ([]timelog.Record, error) {
	b, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read database %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return []timelog.Record{}, nil
	}

	var db database
	if err := json.Unmarshal(b, &db); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if db.Records == nil {
		db.Records = []timelog.Record{}
	}
	for i, rec := range db.Records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: record %d: %v", ErrCorrupt, s.path, i, err)
		}
	}
	return db.Records, nil
}

// Save replaces the database content with records.
func (s *Store) Save(records []timelog.Record) error {
	if records == nil {
		records = []timelog.Record{}
	}
	data, err := json.MarshalIndent(database{Records: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal database: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	if err := atomicWriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write database %s: %w", s.path, err)
	}
	return nil
}

// Append adds rec after the existing records.
func (s *Store) Append(rec timelog.Record) error {
	records, err := s.Load()
	if err != nil {
		return err
	}
	return s.Save(append(records, rec))
}

// AppendAll adds recs after the existing records in a single write.
func (s *Store) AppendAll(recs []timelog.Record) error {
	if len(recs) == 0 {
		return nil
	}
	records, err := s.Load()
	if err != nil {
		return err
	}
	return s.Save(append(records, recs...))
}

// Clear removes every record but keeps the database file.
func (s *Store) Clear() error {
	return s.Save(nil)
}

// atomicWriteFile writes data next to path and renames it into place.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	committed = true
	return nil
}
