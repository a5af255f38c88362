// Package scanner discovers indexable files and computes snapshot diffs.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Scan walks targetDir recursively and returns the paths of regular
// files whose name ends with one of the allowed extensions. Matching is
// a case-sensitive suffix check; order and uniqueness of the extension
// set do not matter. Unreadable subtrees are logged and skipped.
func Scan(ctx context.Context, targetDir string, allowedExtensions []string) ([]string, error) {
	absRoot, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat target directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("target path is not a directory: %s", absRoot)
	}

	var paths []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			slog.Warn("scan_skip_entry",
				slog.String("path", path),
				slog.String("error", walkErr.Error()))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if matchesExtension(d.Name(), allowedExtensions) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("scan_complete",
		slog.String("dir", absRoot),
		slog.Int("files", len(paths)))
	return paths, nil
}

// matchesExtension reports whether name ends with any allowed extension.
func matchesExtension(name string, allowed []string) bool {
	for _, ext := range allowed {
		if ext != "" && strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
