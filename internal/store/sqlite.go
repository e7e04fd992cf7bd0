package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	createTable = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`
	selectValue = `SELECT value FROM kv WHERE key = ?`
	upsertValue = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// SQLiteBackend stores values in a single-table SQLite file.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. The parent directory is
// created when missing.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time; SQLite serializes writes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Get implements Backend.
func (s *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, selectValue, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return value, true, nil
}

// Put implements Backend.
func (s *SQLiteBackend) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertValue, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("sqlite put %s: %w", key, err)
	}
	return nil
}

// Close implements Backend.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
