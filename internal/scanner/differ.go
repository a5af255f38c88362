package scanner

import (
	"log/slog"
	"os"
	"time"
)

// mtimeTolerance absorbs filesystem timestamp jitter. A file counts as
// updated only when its on-disk mtime differs from the stored one by
// more than this.
const mtimeTolerance = time.Second

// DiffResult partitions a snapshot transition into the three buckets
// the incremental writer applies. New ∪ Updated ∪ unchanged covers the
// current paths; Deleted ∪ Updated ∪ unchanged covers the existing
// paths; the buckets are pairwise disjoint.
type DiffResult struct {
	New     []string
	Updated []string
	Deleted []string
}

// Diff compares the current scan against the stored snapshot.
// existing maps stored paths to their recorded modification time.
// Files whose metadata cannot be read are treated as unchanged.
func Diff(currentPaths []string, existing map[string]time.Time) DiffResult {
	var result DiffResult

	current := make(map[string]struct{}, len(currentPaths))
	for _, p := range currentPaths {
		current[p] = struct{}{}
	}

	for _, p := range currentPaths {
		storedMtime, ok := existing[p]
		if !ok {
			result.New = append(result.New, p)
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			// Unreadable metadata: keep the stored record as-is.
			slog.Warn("diff_stat_failed",
				slog.String("path", p),
				slog.String("error", err.Error()))
			continue
		}

		delta := info.ModTime().Sub(storedMtime)
		if delta < 0 {
			delta = -delta
		}
		if delta > mtimeTolerance {
			result.Updated = append(result.Updated, p)
		}
	}

	for p := range existing {
		if _, ok := current[p]; !ok {
			result.Deleted = append(result.Deleted, p)
		}
	}

	return result
}
