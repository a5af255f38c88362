// Package index drives indexing runs: the writer applies a full rebuild
// or an incremental diff to one store, and the runner dispatches runs,
// guards against duplicate triggers, and answers progress polls.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fileseek/fileseek/internal/extract"
	"github.com/fileseek/fileseek/internal/scanner"
	"github.com/fileseek/fileseek/internal/store"
)

// Writer applies one indexing run to one store.
//
// Extraction, the slow part, happens outside any transaction; writes
// are buffered and flushed in short transactions every BatchSize files,
// so the write lock is never held across file I/O and concurrent
// status reads and stop requests go through promptly.
type Writer struct {
	Store     *store.Store
	Extract   *extract.Registry
	BatchSize int
}

// pendingOp is one buffered record write.
type pendingOp struct {
	deletePath string
	record     *store.FileRecord
}

// RunFull rebuilds the store from scratch: record and shadow tables are
// dropped and every currently-scanned file is inserted.
func (w *Writer) RunFull(ctx context.Context, targetDir string, extensions []string) (store.RunStatus, error) {
	return w.run(ctx, targetDir, extensions, true)
}

// RunIncremental applies exactly the diff between the directory and the
// stored snapshot: deletions first, then new and updated files.
func (w *Writer) RunIncremental(ctx context.Context, targetDir string, extensions []string) (store.RunStatus, error) {
	return w.run(ctx, targetDir, extensions, false)
}

func (w *Writer) run(ctx context.Context, targetDir string, extensions []string, full bool) (store.RunStatus, error) {
	start := time.Now()

	// A leftover flag from a previous era must not kill this run.
	if err := w.Store.SetStopRequested(ctx, false); err != nil {
		return w.fail(ctx, start, 0, 0, err)
	}
	if err := w.Store.SetStatus(ctx, &store.IndexingStatus{
		Status:    store.StatusStarted,
		StartTime: start,
	}); err != nil {
		return store.StatusFailed, err
	}

	paths, err := scanner.Scan(ctx, targetDir, extensions)
	if err != nil {
		return w.fail(ctx, start, 0, 0, err)
	}

	var deletions, upserts []string
	if full {
		if err := w.Store.Reset(ctx); err != nil {
			return w.fail(ctx, start, 0, 0, err)
		}
		upserts = paths
	} else {
		existing, err := w.Store.ExistingPaths(ctx)
		if err != nil {
			return w.fail(ctx, start, 0, 0, err)
		}
		diff := scanner.Diff(paths, existing)
		deletions = diff.Deleted
		upserts = append(diff.New, diff.Updated...)
	}

	total := len(deletions) + len(upserts)
	if err := w.Store.SetStatus(ctx, &store.IndexingStatus{
		Status:     store.StatusRunning,
		TotalFiles: total,
		StartTime:  start,
	}); err != nil {
		return store.StatusFailed, err
	}

	slog.Info("index_run_started",
		slog.String("dir", targetDir),
		slog.Bool("full", full),
		slog.Int("deletions", len(deletions)),
		slog.Int("upserts", len(upserts)))

	processed := 0
	var pending []pendingOp

	flush := func(ctx context.Context) error {
		if len(pending) == 0 {
			return nil
		}
		err := w.flush(ctx, pending)
		pending = pending[:0]
		return err
	}

	step := func(op pendingOp) (store.RunStatus, bool, error) {
		pending = append(pending, op)
		processed++
		if err := w.Store.SetProgress(ctx, processed); err != nil {
			slog.Warn("progress_update_failed", slog.String("error", err.Error()))
		}
		if len(pending) >= w.batchSize() {
			if err := flush(ctx); err != nil {
				s, e := w.fail(ctx, start, total, processed, err)
				return s, true, e
			}
		}
		return "", false, nil
	}

	// Deletions run before upserts so a path leaving the allowed set is
	// fully removed before anything could conflict on the path key.
	for _, path := range deletions {
		if stopped, err := w.stopRequested(ctx); err != nil || stopped {
			return w.finishStopped(ctx, flush, start, total, processed, err)
		}
		if s, done, err := step(pendingOp{deletePath: path}); done {
			return s, err
		}
	}

	for _, path := range upserts {
		if stopped, err := w.stopRequested(ctx); err != nil || stopped {
			return w.finishStopped(ctx, flush, start, total, processed, err)
		}

		content := w.Extract.Extract(path)
		modified, created := fileTimes(path)
		rec := &store.FileRecord{
			Path:    path,
			Content: content,
			// Lowercased so the search-side type filter matches
			// regardless of on-disk casing.
			FileType:     strings.ToLower(filepath.Ext(path)),
			ModifiedDate: modified,
			CreatedDate:  created,
		}
		if s, done, err := step(pendingOp{record: rec}); done {
			return s, err
		}
	}

	if err := flush(ctx); err != nil {
		return w.fail(ctx, start, total, processed, err)
	}

	end := time.Now()
	if err := w.Store.SetStatus(ctx, &store.IndexingStatus{
		Status:           store.StatusCompleted,
		TotalFiles:       total,
		ProcessedFiles:   processed,
		StartTime:        start,
		EstimatedEndTime: end,
	}); err != nil {
		return store.StatusFailed, err
	}

	slog.Info("index_run_completed",
		slog.Int("total", total),
		slog.Duration("took", end.Sub(start)))
	return store.StatusCompleted, nil
}

// flush applies the buffered operations in one short transaction.
// Individual record failures are logged and skipped; only transaction
// machinery failures abort the run.
func (w *Writer) flush(ctx context.Context, ops []pendingOp) error {
	batch, err := w.Store.BeginBatch(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = batch.Rollback() }()

	for _, op := range ops {
		if op.deletePath != "" {
			err = batch.Delete(ctx, op.deletePath)
		} else {
			err = batch.Upsert(ctx, op.record)
		}
		if err != nil {
			slog.Error("record_write_failed", slog.String("error", err.Error()))
		}
	}
	return batch.Commit()
}

// stopRequested combines the persisted flag with context cancellation;
// either one stops the run at the next file boundary.
func (w *Writer) stopRequested(ctx context.Context) (bool, error) {
	if ctx.Err() != nil {
		return true, nil
	}
	return w.Store.StopRequested(ctx)
}

// finishStopped flushes what is already processed and records the
// stopped terminal state. A flag-read error on the way in degrades to a
// stop as well: better to stop cleanly than to plow on blind.
// Cancellation is detached here so a cancelled context cannot prevent
// the terminal state from being persisted.
func (w *Writer) finishStopped(ctx context.Context, flush func(context.Context) error, start time.Time, total, processed int, pollErr error) (store.RunStatus, error) {
	ctx = context.WithoutCancel(ctx)
	if pollErr != nil {
		slog.Error("stop_flag_read_failed", slog.String("error", pollErr.Error()))
	}
	if err := flush(ctx); err != nil {
		slog.Error("stop_flush_failed", slog.String("error", err.Error()))
	}
	err := w.Store.SetStatus(ctx, &store.IndexingStatus{
		Status:           store.StatusStopped,
		TotalFiles:       total,
		ProcessedFiles:   processed,
		StartTime:        start,
		EstimatedEndTime: time.Now(),
	})
	if err != nil {
		return store.StatusStopped, err
	}

	slog.Info("index_run_stopped",
		slog.Int("processed", processed),
		slog.Int("total", total))
	return store.StatusStopped, nil
}

// fail records the failed terminal state with counters preserved for
// diagnosis and returns the original error.
func (w *Writer) fail(ctx context.Context, start time.Time, total, processed int, cause error) (store.RunStatus, error) {
	ctx = context.WithoutCancel(ctx)
	if err := w.Store.SetStatus(ctx, &store.IndexingStatus{
		Status:           store.StatusFailed,
		TotalFiles:       total,
		ProcessedFiles:   processed,
		StartTime:        start,
		EstimatedEndTime: time.Now(),
	}); err != nil {
		slog.Error("failed_status_write_failed", slog.String("error", err.Error()))
	}

	slog.Error("index_run_failed",
		slog.Int("processed", processed),
		slog.Int("total", total),
		slog.String("error", cause.Error()))
	return store.StatusFailed, fmt.Errorf("indexing run failed: %w", cause)
}

func (w *Writer) batchSize() int {
	if w.BatchSize <= 0 {
		return 10
	}
	return w.BatchSize
}

// fileTimes reads filesystem timestamps; unreadable metadata yields
// nils and the file is still indexed.
func fileTimes(path string) (modified, created *time.Time) {
	info, err := os.Stat(path)
	if err != nil {
		slog.Warn("file_times_unreadable",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, nil
	}

	m := info.ModTime()
	modified = &m

	// Inode change time is the closest portable-enough stand-in for a
	// creation timestamp on Linux filesystems.
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		c := time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
		created = &c
	}
	return modified, created
}
