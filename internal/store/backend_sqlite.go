package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cropdoc/internal/logging"
	"cropdoc/internal/types"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQLite driver names. "sqlite3" is mattn's cgo driver, "sqlite" is the pure Go one.
const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

// SQLiteBackend stores the document as a row in a key/value table.
type SQLiteBackend struct {
	db     *sql.DB
	path   string
	driver string
}

// NewSQLiteBackend opens (or creates) the database at path with driver.
// An empty driver selects the pure Go driver.
func NewSQLiteBackend(path, driver string) (*SQLiteBackend, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewSQLiteBackend")
	defer timer.Stop()

	driver = strings.TrimSpace(driver)
	if driver == "" {
		driver = DriverPureGo
	}
	if driver != DriverCGO && driver != DriverPureGo {
		return nil, fmt.Errorf("%w: unknown sqlite driver %q (valid: %s, %s)", types.ErrConfiguration, driver, DriverCGO, DriverPureGo)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		logging.StoreError("failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}

	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logging.Store("sqlite backend ready at %s (driver %s)", path, driver)
	return &SQLiteBackend{db: db, path: path, driver: driver}, nil
}

// Driver returns the database/sql driver name in use.
func (s *SQLiteBackend) Driver() string { return s.driver }

// Load implements Backend.
func (s *SQLiteBackend) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM documents WHERE key = ?`, documentKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return data, nil
}

// Save implements Backend.
func (s *SQLiteBackend) Save(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		documentKey, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Close implements Backend.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
