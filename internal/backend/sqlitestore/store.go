// Package sqlitestore implements the sqlite backend on a single SQLite file.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/five82/tally/internal/backend"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	path TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store is a backend.Driver over database/sql with the modernc driver.
type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

var _ backend.Driver = (*Store)(nil)

// New returns an unopened store for the database file at path.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Kind() backend.Kind { return backend.SQLite }

// Open creates the file and schema if needed.
func (s *Store) Open(ctx context.Context) error {
	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("init schema: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	path, err := backend.CleanPath(path)
	if err != nil {
		return nil, err
	}
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	var value []byte
	row := db.QueryRowContext(ctx, "SELECT value FROM documents WHERE path = ?", path)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, backend.ErrNotFound
		}
		return nil, fmt.Errorf("query %s: %w", path, err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, path string, value []byte) error {
	path, err := backend.CleanPath(path)
	if err != nil {
		return err
	}
	db, err := s.handle()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO documents (path, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, path, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert %s: %w", path, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	prefix, err := backend.CleanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT path FROM documents
		WHERE substr(path, 1, length(?)) = ?
		ORDER BY path ASC
	`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("query paths: %w", err)
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paths: %w", err)
	}
	return paths, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) handle() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sqlite store is not open")
	}
	return s.db, nil
}
