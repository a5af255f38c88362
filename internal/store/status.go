package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of an indexing run, persisted in the
// store so it survives the process and is visible to later status reads.
type RunStatus string

const (
	StatusNotStarted RunStatus = "not_started"
	StatusStarted    RunStatus = "started"
	StatusRunning    RunStatus = "running"
	StatusCompleted  RunStatus = "completed"
	StatusStopped    RunStatus = "stopped"
	StatusFailed     RunStatus = "failed"
)

// IsTerminal reports whether the status marks a finished run.
func (s RunStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusStopped || s == StatusFailed
}

// IndexingStatus is the singleton progress row of a store.
type IndexingStatus struct {
	Status         RunStatus
	TotalFiles     int
	ProcessedFiles int
	// StartTime is zero before the first run.
	StartTime time.Time
	// EstimatedEndTime holds the run's actual end wall clock once the
	// run reaches a terminal status, zero while running.
	EstimatedEndTime time.Time
}

const stopRequestedKey = "stop_requested"

// Status reads the progress row. A store that never ran reports
// not_started with zero counters.
func (s *Store) Status(ctx context.Context) (*IndexingStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	var st IndexingStatus
	var status string
	var total, processed sql.NullInt64
	var start, end sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT status, total_files, processed_files, start_time, estimated_end_time
		 FROM indexing_status WHERE id = 1`).
		Scan(&status, &total, &processed, &start, &end)
	if err == sql.ErrNoRows {
		return &IndexingStatus{Status: StatusNotStarted}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}

	st.Status = RunStatus(status)
	st.TotalFiles = int(total.Int64)
	st.ProcessedFiles = int(processed.Int64)
	st.StartTime = timeFromUnix(start)
	st.EstimatedEndTime = timeFromUnix(end)
	return &st, nil
}

// SetStatus overwrites the progress row.
func (s *Store) SetStatus(ctx context.Context, st *IndexingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	var start, end any
	if !st.StartTime.IsZero() {
		t := st.StartTime
		start = unixOrNil(&t)
	}
	if !st.EstimatedEndTime.IsZero() {
		t := st.EstimatedEndTime
		end = unixOrNil(&t)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO indexing_status
		 (id, status, total_files, processed_files, start_time, estimated_end_time)
		 VALUES (1, ?, ?, ?, ?, ?)`,
		string(st.Status), st.TotalFiles, st.ProcessedFiles, start, end)
	if err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	return nil
}

// SetProgress updates only the processed counter of the progress row.
// Cheaper than SetStatus for the per-file tick inside a run.
func (s *Store) SetProgress(ctx context.Context, processed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE indexing_status SET processed_files = ? WHERE id = 1`, processed)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// StopRequested reads the cooperative stop flag.
func (s *Store) StopRequested(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, fmt.Errorf("store is closed")
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, stopRequestedKey).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read stop flag: %w", err)
	}
	return value == "1", nil
}

// SetStopRequested writes the cooperative stop flag. Setting it while no
// run is active is harmless: the next run clears it before starting.
func (s *Store) SetStopRequested(ctx context.Context, requested bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	value := "0"
	if requested {
		value = "1"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`,
		stopRequestedKey, value)
	if err != nil {
		return fmt.Errorf("failed to write stop flag: %w", err)
	}
	return nil
}
