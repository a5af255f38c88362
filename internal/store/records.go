package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FileRecord is one indexed file inside an index's store.
type FileRecord struct {
	Path    string
	Content string
	// FileType is the lowercased extension (".pdf", ".txt", ...).
	FileType string
	// ModifiedDate and CreatedDate are nil when the filesystem metadata
	// could not be read at indexing time.
	ModifiedDate *time.Time
	CreatedDate  *time.Time
}

// Batch groups record writes into one transaction. The index writer
// commits every N processed files so durability cost stays bounded
// without letting the transaction grow for the whole run.
type Batch struct {
	tx   *sql.Tx
	done bool
}

// BeginBatch starts a write transaction.
func (s *Store) BeginBatch(ctx context.Context) (*Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Batch{tx: tx}, nil
}

// Upsert writes a record and synchronizes its shadow row. A non-empty
// content gets a fresh shadow row; empty content leaves no shadow row,
// so the mirror invariant (shadow ⊆ records) holds after every call.
func (b *Batch) Upsert(ctx context.Context, rec *FileRecord) error {
	_, err := b.tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO files (path, content, file_type, modified_date, created_date)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Path, rec.Content, rec.FileType,
		unixOrNil(rec.ModifiedDate), unixOrNil(rec.CreatedDate))
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.Path, err)
	}

	// FTS5 virtual tables have no REPLACE, so delete then insert.
	if _, err := b.tx.ExecContext(ctx,
		`DELETE FROM files_fts WHERE path = ?`, rec.Path); err != nil {
		return fmt.Errorf("failed to clear shadow row %s: %w", rec.Path, err)
	}
	if rec.Content != "" {
		if _, err := b.tx.ExecContext(ctx,
			`INSERT INTO files_fts (path, content) VALUES (?, ?)`,
			rec.Path, rec.Content); err != nil {
			return fmt.Errorf("failed to write shadow row %s: %w", rec.Path, err)
		}
	}
	return nil
}

// Delete removes a record and its shadow row.
func (b *Batch) Delete(ctx context.Context, path string) error {
	if _, err := b.tx.ExecContext(ctx,
		`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", path, err)
	}
	if _, err := b.tx.ExecContext(ctx,
		`DELETE FROM files_fts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete shadow row %s: %w", path, err)
	}
	return nil
}

// Commit makes the batch durable.
func (b *Batch) Commit() error {
	b.done = true
	return b.tx.Commit()
}

// Rollback abandons the batch. Safe to call after Commit.
func (b *Batch) Rollback() error {
	if b.done {
		return nil
	}
	b.done = true
	return b.tx.Rollback()
}

// ExistingPaths returns every stored path with its recorded modification
// time (zero time when the record has none).
func (s *Store) ExistingPaths(ctx context.Context) (map[string]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, modified_date FROM files`)
	if err != nil {
		return nil, fmt.Errorf("failed to query paths: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]time.Time)
	for rows.Next() {
		var path string
		var mtime sql.NullFloat64
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		existing[path] = timeFromUnix(mtime)
	}
	return existing, rows.Err()
}

// FileCount returns the number of stored records.
func (s *Store) FileCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&count)
	return count, err
}

// GetFile returns a single record, or nil when the path is not stored.
func (s *Store) GetFile(ctx context.Context, path string) (*FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	var rec FileRecord
	var ftype sql.NullString
	var mtime, ctime sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT path, content, file_type, modified_date, created_date
		 FROM files WHERE path = ?`, path).
		Scan(&rec.Path, &rec.Content, &ftype, &mtime, &ctime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", path, err)
	}
	rec.FileType = ftype.String
	rec.ModifiedDate = timePtrFromUnix(mtime)
	rec.CreatedDate = timePtrFromUnix(ctime)
	return &rec, nil
}

// ShadowPaths returns every path present in the full-text shadow table.
// Used by consistency checks and tests of the mirror invariant.
func (s *Store) ShadowPaths(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT path FROM files_fts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shadow paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// unixOrNil converts an optional time to a unix-seconds float for storage.
func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

// timeFromUnix converts a stored unix-seconds value, zero when null.
func timeFromUnix(v sql.NullFloat64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	sec := int64(v.Float64)
	nsec := int64((v.Float64 - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// timePtrFromUnix converts a stored unix-seconds value, nil when null.
func timePtrFromUnix(v sql.NullFloat64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := timeFromUnix(v)
	return &t
}
