// Package store owns the live SQLite connection to the LNRS database file
// and runs multi-statement batches against it atomically.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/stevecrawshaw/lnrsdb/internal/schema"
	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// Store holds the one live database handle. It is constructed explicitly
// and passed by reference; only the restore coordinator swaps the handle,
// through Close and Reopen.
type Store struct {
	mu       sync.RWMutex
	path     string
	db       *sql.DB
	attached bool
}

// dsn appends the connection pragmas. Foreign keys drive the cascade
// planner and pragmas apply per connection, so they ride on the DSN rather
// than a one-off Exec against a pooled handle.
func dsn(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open attaches to an existing database file.
// Returns types.ErrDatabaseMissing when the file does not exist.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, types.ErrDatabaseMissing)
		}
		return nil, fmt.Errorf("stat database: %w", err)
	}

	db, err := openHandle(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, db: db, attached: true}, nil
}

// Init creates a new database file with the full schema and the built-in
// lookup rows, then attaches to it. The parent directory is created if
// needed. Returns types.ErrDatabaseExists when the file is already there.
func Init(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s: %w", path, types.ErrDatabaseExists)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat database: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := openHandle(path)
	if err != nil {
		return nil, err
	}
	if err := schema.Create(db); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if err := schema.Seed(db); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("seed lookups: %w", err)
	}
	return &Store{path: path, db: db, attached: true}, nil
}

// openHandle opens and pings a connection so a bad file surfaces here, not
// on the first query.
func openHandle(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// DB returns the live handle, or types.ErrNotAttached between Close and
// Reopen.
func (s *Store) DB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, types.ErrNotAttached
	}
	return s.db, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the connection. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	s.db = nil
	s.attached = false
	return nil
}

// Reopen attaches a fresh connection to the same path after the file has
// been replaced. Returns types.ErrAlreadyAttached when the store was never
// closed.
func (s *Store) Reopen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	db, err := openHandle(s.path)
	if err != nil {
		return err
	}
	s.db = db
	s.attached = true
	return nil
}
