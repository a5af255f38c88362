// Package catalog manages the set of configured indexes: one row per
// index in a meta database, plus lifecycle status updates. The catalog
// never holds its own lock across per-index store initialization, so
// creating one index cannot stall operations on another.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	fserrors "github.com/fileseek/fileseek/internal/errors"
	"github.com/fileseek/fileseek/internal/store"
)

// Status is the catalog-level lifecycle state of an index. It tracks
// the store-level run status but may transiently diverge mid-run; the
// two converge at every terminal transition.
type Status string

const (
	StatusCreated   Status = "created"
	StatusRunning   Status = "running"
	StatusStopping  Status = "stopping"
	StatusStopped   Status = "stopped"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IndexConfig is one configured index.
type IndexConfig struct {
	ID                string
	Name              string
	TargetDirectory   string
	AllowedExtensions []string
	StoragePath       string
	Status            Status
	LastIndexedAt     *time.Time
}

// Catalog is the meta database plus an open-store cache. Concurrent
// processes share it safely: WAL mode plus the busy timeout serialize
// row writes, and indexing runs take their own per-index run lock.
type Catalog struct {
	mu       sync.Mutex
	db       *sql.DB
	indexDir string
	stores   *store.Cache
}

// Open opens the catalog database in dataDir and prepares its schema.
func Open(dataDir string) (*Catalog, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "catalog.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS indexes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		target_directory TEXT NOT NULL,
		allowed_extensions TEXT NOT NULL,
		storage_path TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		last_indexed_at REAL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	stores, err := store.NewCache(store.DefaultCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Catalog{
		db:       db,
		indexDir: filepath.Join(dataDir, "indexes"),
		stores:   stores,
	}, nil
}

// Close closes every open store and the catalog database.
func (c *Catalog) Close() error {
	c.stores.Close()
	return c.db.Close()
}

// AddIndex registers a new index and materializes its store. When the
// store cannot be initialized the catalog row is rolled back so no row
// ever references a storage path that does not exist.
func (c *Catalog) AddIndex(ctx context.Context, name, targetDirectory string, allowedExtensions []string) (*IndexConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fserrors.New(fserrors.ErrCodeInvalidInput, "index name must not be empty", nil)
	}
	if len(allowedExtensions) == 0 {
		return nil, fserrors.New(fserrors.ErrCodeInvalidInput, "at least one extension is required", nil)
	}

	absDir, err := filepath.Abs(targetDirectory)
	if err != nil {
		return nil, fserrors.Wrap(fserrors.ErrCodeInvalidPath, err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fserrors.New(fserrors.ErrCodeInvalidPath,
			fmt.Sprintf("target directory does not exist: %s", absDir), err)
	}
	if !info.IsDir() {
		return nil, fserrors.New(fserrors.ErrCodeInvalidPath,
			fmt.Sprintf("target path is not a directory: %s", absDir), nil)
	}

	cfg := &IndexConfig{
		ID:                uuid.NewString(),
		Name:              name,
		TargetDirectory:   absDir,
		AllowedExtensions: allowedExtensions,
		StoragePath:       filepath.Join(c.indexDir, uuid.NewString()+".db"),
		Status:            StatusCreated,
	}

	if err := c.insertRow(ctx, cfg); err != nil {
		return nil, err
	}

	// Store init happens outside the catalog mutex: it does real I/O
	// and must not serialize against unrelated catalog reads.
	_, release, err := c.stores.Get(cfg.StoragePath)
	if err != nil {
		if rbErr := c.deleteRow(ctx, cfg.ID); rbErr != nil {
			slog.Error("add_index_rollback_failed",
				slog.String("index_id", cfg.ID),
				slog.String("error", rbErr.Error()))
		}
		return nil, fserrors.New(fserrors.ErrCodeStoreInit,
			"failed to initialize index storage", err).
			WithDetail("storage_path", cfg.StoragePath)
	}
	release()

	slog.Info("index_added",
		slog.String("index_id", cfg.ID),
		slog.String("name", cfg.Name),
		slog.String("dir", cfg.TargetDirectory))
	return cfg, nil
}

func (c *Catalog) insertRow(ctx context.Context, cfg *IndexConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO indexes (id, name, target_directory, allowed_extensions, storage_path, status, last_indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		cfg.ID, cfg.Name, cfg.TargetDirectory,
		strings.Join(cfg.AllowedExtensions, ","),
		cfg.StoragePath, string(cfg.Status))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: indexes.name") {
			return fserrors.New(fserrors.ErrCodeDuplicateName,
				"index name already exists", nil).WithDetail("name", cfg.Name)
		}
		return fmt.Errorf("failed to insert catalog row: %w", err)
	}
	return nil
}

func (c *Catalog) deleteRow(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx, `DELETE FROM indexes WHERE id = ?`, id)
	return err
}

// ListIndexes returns every configured index ordered by name.
func (c *Catalog) ListIndexes(ctx context.Context) ([]*IndexConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, target_directory, allowed_extensions, storage_path, status, last_indexed_at
		 FROM indexes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	defer rows.Close()

	var configs []*IndexConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// GetIndex looks an index up by id, falling back to name so CLI users
// can pass either.
func (c *Catalog) GetIndex(ctx context.Context, idOrName string) (*IndexConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := c.db.QueryRowContext(ctx,
		`SELECT id, name, target_directory, allowed_extensions, storage_path, status, last_indexed_at
		 FROM indexes WHERE id = ? OR name = ?`, idOrName, idOrName)
	cfg, err := scanConfig(row)
	if err == sql.ErrNoRows {
		return nil, fserrors.New(fserrors.ErrCodeIndexNotFound,
			"index not found", nil).WithDetail("index", idOrName)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// DeleteIndex removes the catalog row first, then the storage artifact.
// A missing artifact is logged, not fatal: the row is the source of
// truth and it is already gone.
func (c *Catalog) DeleteIndex(ctx context.Context, idOrName string) (*IndexConfig, error) {
	cfg, err := c.GetIndex(ctx, idOrName)
	if err != nil {
		return nil, err
	}

	if err := c.deleteRow(ctx, cfg.ID); err != nil {
		return nil, fmt.Errorf("failed to delete catalog row: %w", err)
	}

	c.stores.Drop(cfg.StoragePath)
	if err := store.Remove(cfg.StoragePath); err != nil {
		slog.Warn("index_artifact_remove_failed",
			slog.String("index_id", cfg.ID),
			slog.String("storage_path", cfg.StoragePath),
			slog.String("error", err.Error()))
	}

	slog.Info("index_deleted",
		slog.String("index_id", cfg.ID),
		slog.String("name", cfg.Name))
	return cfg, nil
}

// UpdateStatus writes the catalog-level status, optionally stamping
// last_indexed_at.
func (c *Catalog) UpdateStatus(ctx context.Context, id string, status Status, lastIndexedAt *time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res sql.Result
	var err error
	if lastIndexedAt != nil {
		res, err = c.db.ExecContext(ctx,
			`UPDATE indexes SET status = ?, last_indexed_at = ? WHERE id = ?`,
			string(status), float64(lastIndexedAt.UnixNano())/float64(time.Second), id)
	} else {
		res, err = c.db.ExecContext(ctx,
			`UPDATE indexes SET status = ? WHERE id = ?`, string(status), id)
	}
	if err != nil {
		return fmt.Errorf("failed to update index status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fserrors.New(fserrors.ErrCodeIndexNotFound,
			"index not found", nil).WithDetail("index", id)
	}
	return nil
}

// OpenStore borrows the (cached) open store for an index. The release
// func must be called once the caller is done with the handle; until
// then the store cannot be closed out from under the caller by cache
// eviction.
func (c *Catalog) OpenStore(cfg *IndexConfig) (*store.Store, func(), error) {
	return c.stores.Get(cfg.StoragePath)
}

// scanner abstracts sql.Row and sql.Rows for scanConfig.
type scanner interface {
	Scan(dest ...any) error
}

func scanConfig(row scanner) (*IndexConfig, error) {
	var cfg IndexConfig
	var exts, status string
	var last sql.NullFloat64
	if err := row.Scan(&cfg.ID, &cfg.Name, &cfg.TargetDirectory, &exts,
		&cfg.StoragePath, &status, &last); err != nil {
		return nil, err
	}
	if exts != "" {
		cfg.AllowedExtensions = strings.Split(exts, ",")
	}
	cfg.Status = Status(status)
	if last.Valid {
		sec := int64(last.Float64)
		nsec := int64((last.Float64 - float64(sec)) * float64(time.Second))
		t := time.Unix(sec, nsec)
		cfg.LastIndexedAt = &t
	}
	return &cfg, nil
}
