// Package store implements the per-index persistent store: the files
// record table, its full-text shadow table, and the run status rows.
//
// Each configured index owns one SQLite database file. The shadow table
// (files_fts) mirrors (path, content) for every record with non-empty
// content and is correlated by path, not rowid, because records with
// empty content have no shadow row at all.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// Store is a handle to one index's database.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	closed bool
}

// Open opens (creating and initializing if necessary) the store at path.
// Initialization is idempotent: re-opening an existing store detects and
// adds any missing columns instead of failing, so stores created by
// older versions keep working.
func Open(path string) (*Store, error) {
	var dsn string
	if path == "" {
		// In-memory store for testing
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer prevents lock contention between the index writer
	// and concurrent status polls on the same handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode must be set via PRAGMA for modernc.org/sqlite
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the tables and upgrades older layouts in place.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		content TEXT,
		file_type TEXT,
		modified_date REAL,
		created_date REAL
	);

	-- Trigram tokenizer gives substring matching for terms of 3+ chars;
	-- shorter terms go through the LIKE fallback at query time.
	CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
		path,
		content,
		tokenize='trigram'
	);

	CREATE TABLE IF NOT EXISTS indexing_status (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		status TEXT NOT NULL,
		total_files INTEGER,
		processed_files INTEGER,
		start_time REAL,
		estimated_end_time REAL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	return s.migrateColumns()
}

// migrateColumns adds columns an older files table may be missing.
func (s *Store) migrateColumns() error {
	rows, err := s.db.Query(`PRAGMA table_info(files)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	have := map[string]bool{}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	wanted := []struct{ name, ddl string }{
		{"file_type", "ALTER TABLE files ADD COLUMN file_type TEXT"},
		{"modified_date", "ALTER TABLE files ADD COLUMN modified_date REAL"},
		{"created_date", "ALTER TABLE files ADD COLUMN created_date REAL"},
	}
	for _, col := range wanted {
		if !have[col.name] {
			if _, err := s.db.Exec(col.ddl); err != nil {
				return fmt.Errorf("failed to add column %s: %w", col.name, err)
			}
		}
	}
	return nil
}

// Reset drops and recreates the record and shadow tables for a full
// rebuild. Status and settings rows survive.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	stmts := []string{
		`DROP TABLE IF EXISTS files`,
		`DROP TABLE IF EXISTS files_fts`,
		`CREATE TABLE files (
			path TEXT PRIMARY KEY,
			content TEXT,
			file_type TEXT,
			modified_date REAL,
			created_date REAL
		)`,
		`CREATE VIRTUAL TABLE files_fts USING fts5(
			path,
			content,
			tokenize='trigram'
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset store: %w", err)
		}
	}
	return nil
}

// Path returns the database file location ("" for in-memory stores).
func (s *Store) Path() string {
	return s.path
}

// Close checkpoints and closes the store. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.db != nil {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}

// Remove deletes the store's database file and its WAL siblings.
// Missing files are not an error.
func Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	_ = os.Remove(path + "-wal")
	_ = os.Remove(path + "-shm")
	return nil
}
