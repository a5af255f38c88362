package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/fileseek/fileseek/internal/catalog"
	fserrors "github.com/fileseek/fileseek/internal/errors"
	"github.com/fileseek/fileseek/internal/extract"
	"github.com/fileseek/fileseek/internal/store"
)

// Runner dispatches indexing runs, one goroutine per index, and
// enforces at most one in-flight run per index: an in-process map
// guards same-process duplicates, a file lock next to the store guards
// duplicates across processes.
type Runner struct {
	cat       *catalog.Catalog
	reg       *extract.Registry
	batchSize int

	mu      sync.Mutex
	running map[string]*Run
}

// Run is a handle to one in-flight (or finished) indexing run.
type Run struct {
	IndexID string
	done    chan struct{}

	mu     sync.Mutex
	status store.RunStatus
	err    error
}

// Done is closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes and returns its terminal status.
func (r *Run) Wait() (store.RunStatus, error) {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, r.err
}

func (r *Run) finish(status store.RunStatus, err error) {
	r.mu.Lock()
	r.status = status
	r.err = err
	r.mu.Unlock()
	close(r.done)
}

// Progress is one status-poll response.
type Progress struct {
	Status         store.RunStatus
	TotalFiles     int
	ProcessedFiles int
	Elapsed        time.Duration
	Remaining      time.Duration
	StopRequested  bool
	CatalogStatus  catalog.Status
}

// NewRunner creates a runner over the catalog.
func NewRunner(cat *catalog.Catalog, reg *extract.Registry, batchSize int) *Runner {
	return &Runner{
		cat:       cat,
		reg:       reg,
		batchSize: batchSize,
		running:   make(map[string]*Run),
	}
}

// Trigger starts an indexing run for the index in the background and
// returns its handle. A second trigger while a run is in flight is
// refused with ErrRunInProgress instead of racing the first.
func (r *Runner) Trigger(ctx context.Context, idOrName string, full bool) (*Run, error) {
	cfg, err := r.cat.GetIndex(ctx, idOrName)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, inFlight := r.running[cfg.ID]; inFlight {
		r.mu.Unlock()
		return nil, runInProgress(cfg.Name)
	}

	flk := flock.New(cfg.StoragePath + ".lock")
	locked, err := flk.TryLock()
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !locked {
		r.mu.Unlock()
		return nil, runInProgress(cfg.Name)
	}

	run := &Run{IndexID: cfg.ID, done: make(chan struct{})}
	r.running[cfg.ID] = run
	r.mu.Unlock()

	go r.execute(ctx, cfg, run, flk, full)
	return run, nil
}

func runInProgress(name string) error {
	return fserrors.New(fserrors.ErrCodeRunInProgress,
		"an indexing run is already in progress for this index", nil).
		WithDetail("index", name)
}

// execute drives one run to a terminal state and converges the catalog
// status with the store status.
func (r *Runner) execute(ctx context.Context, cfg *catalog.IndexConfig, run *Run, flk *flock.Flock, full bool) {
	var status store.RunStatus
	var err error

	defer func() {
		// A panic anywhere in the pipeline is a run-level failure, not
		// a process crash.
		if rec := recover(); rec != nil {
			slog.Error("index_run_panic",
				slog.String("index_id", cfg.ID),
				slog.String("panic", fmt.Sprint(rec)))
			status = store.StatusFailed
			err = fmt.Errorf("indexing run panicked: %v", rec)
		}

		r.converge(cfg, status)

		if uerr := flk.Unlock(); uerr != nil {
			slog.Warn("run_lock_release_failed",
				slog.String("index_id", cfg.ID),
				slog.String("error", uerr.Error()))
		}
		r.mu.Lock()
		delete(r.running, cfg.ID)
		r.mu.Unlock()
		run.finish(status, err)
	}()

	st, release, serr := r.cat.OpenStore(cfg)
	if serr != nil {
		status, err = store.StatusFailed, serr
		return
	}
	defer release()

	if cerr := r.cat.UpdateStatus(ctx, cfg.ID, catalog.StatusRunning, nil); cerr != nil {
		status, err = store.StatusFailed, cerr
		return
	}

	w := &Writer{Store: st, Extract: r.reg, BatchSize: r.batchSize}
	if full {
		status, err = w.RunFull(ctx, cfg.TargetDirectory, cfg.AllowedExtensions)
	} else {
		status, err = w.RunIncremental(ctx, cfg.TargetDirectory, cfg.AllowedExtensions)
	}
}

// converge writes the catalog-level mirror of the store's terminal
// state, stamping last_indexed_at on completion.
func (r *Runner) converge(cfg *catalog.IndexConfig, status store.RunStatus) {
	ctx := context.Background()
	var err error
	switch status {
	case store.StatusCompleted:
		now := time.Now()
		err = r.cat.UpdateStatus(ctx, cfg.ID, catalog.StatusCompleted, &now)
	case store.StatusStopped:
		err = r.cat.UpdateStatus(ctx, cfg.ID, catalog.StatusStopped, nil)
	default:
		err = r.cat.UpdateStatus(ctx, cfg.ID, catalog.StatusFailed, nil)
	}
	if err != nil {
		slog.Error("catalog_status_converge_failed",
			slog.String("index_id", cfg.ID),
			slog.String("error", err.Error()))
	}
}

// RequestStop sets the index's stop flag. Idempotent; a stop for an
// index with no active run is a no-op the next run clears.
func (r *Runner) RequestStop(ctx context.Context, idOrName string) error {
	cfg, err := r.cat.GetIndex(ctx, idOrName)
	if err != nil {
		return err
	}

	st, release, err := r.cat.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer release()
	if err := st.SetStopRequested(ctx, true); err != nil {
		return err
	}

	if cfg.Status == catalog.StatusRunning {
		if err := r.cat.UpdateStatus(ctx, cfg.ID, catalog.StatusStopping, nil); err != nil {
			return err
		}
	}

	slog.Info("stop_requested", slog.String("index_id", cfg.ID))
	return nil
}

// Poll reads the current run state of an index. The remaining-time
// estimate extrapolates the observed per-file rate linearly and is
// clamped to zero.
func (r *Runner) Poll(ctx context.Context, idOrName string) (*Progress, error) {
	cfg, err := r.cat.GetIndex(ctx, idOrName)
	if err != nil {
		return nil, err
	}

	st, release, err := r.cat.OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	defer release()
	status, err := st.Status(ctx)
	if err != nil {
		return nil, err
	}
	stopRequested, err := st.StopRequested(ctx)
	if err != nil {
		return nil, err
	}

	p := &Progress{
		Status:         status.Status,
		TotalFiles:     status.TotalFiles,
		ProcessedFiles: status.ProcessedFiles,
		StopRequested:  stopRequested,
		CatalogStatus:  cfg.Status,
	}

	if !status.StartTime.IsZero() {
		if status.Status.IsTerminal() && !status.EstimatedEndTime.IsZero() {
			p.Elapsed = status.EstimatedEndTime.Sub(status.StartTime)
		} else {
			p.Elapsed = time.Since(status.StartTime)
			p.Remaining = estimateRemaining(p.Elapsed, status.ProcessedFiles, status.TotalFiles)
		}
	}
	if p.Elapsed < 0 {
		p.Elapsed = 0
	}
	return p, nil
}

// estimateRemaining extrapolates from the observed rate; before any
// file has finished there is no rate to project from.
func estimateRemaining(elapsed time.Duration, processed, total int) time.Duration {
	if processed <= 0 || total <= processed {
		return 0
	}
	perFile := elapsed / time.Duration(processed)
	remaining := perFile * time.Duration(total-processed)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ReconcileStartup forces stale lifecycle states left behind by a crash
// back to stopped: a catalog row still saying running after a restart
// is indistinguishable from a live run, so it must not survive one.
func (r *Runner) ReconcileStartup(ctx context.Context) error {
	configs, err := r.cat.ListIndexes(ctx)
	if err != nil {
		return err
	}

	for _, cfg := range configs {
		if cfg.Status != catalog.StatusRunning && cfg.Status != catalog.StatusStopping {
			continue
		}
		if err := r.reconcileIndex(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}

// reconcileIndex resets one stale run. A live run, in this process or
// another, holds the per-index run lock, so a held lock means the
// "running" row is accurate and is left alone.
func (r *Runner) reconcileIndex(ctx context.Context, cfg *catalog.IndexConfig) error {
	flk := flock.New(cfg.StoragePath + ".lock")
	locked, err := flk.TryLock()
	if err != nil {
		return fmt.Errorf("failed to probe run lock: %w", err)
	}
	if !locked {
		return nil
	}
	defer func() { _ = flk.Unlock() }()

	slog.Warn("startup_reconcile_stale_run",
		slog.String("index_id", cfg.ID),
		slog.String("name", cfg.Name))

	if err := r.cat.UpdateStatus(ctx, cfg.ID, catalog.StatusStopped, nil); err != nil {
		return err
	}

	st, release, err := r.cat.OpenStore(cfg)
	if err != nil {
		slog.Warn("startup_reconcile_store_open_failed",
			slog.String("index_id", cfg.ID),
			slog.String("error", err.Error()))
		return nil
	}
	defer release()
	status, err := st.Status(ctx)
	if err != nil {
		return err
	}
	if !status.Status.IsTerminal() && status.Status != store.StatusNotStarted {
		status.Status = store.StatusStopped
		status.EstimatedEndTime = time.Now()
		if err := st.SetStatus(ctx, status); err != nil {
			return err
		}
	}
	return st.SetStopRequested(ctx, false)
}
