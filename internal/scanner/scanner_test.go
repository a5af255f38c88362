package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files under dir, returning their absolute paths.
func writeTree(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var paths []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("content of "+name), 0o644))
		paths = append(paths, path)
	}
	return paths
}

func TestScan_FiltersBySuffix(t *testing.T) {
	// Given: a tree with mixed extensions
	dir := t.TempDir()
	writeTree(t, dir, "a.txt", "b.md", "c.bin", "sub/d.txt", "sub/deep/e.pdf")

	// When: scanning for .txt and .md
	paths, err := Scan(context.Background(), dir, []string{".txt", ".md"})
	require.NoError(t, err)

	// Then: only matching files are returned, recursively
	assert.Len(t, paths, 3)
	for _, p := range paths {
		assert.True(t, filepath.Ext(p) == ".txt" || filepath.Ext(p) == ".md", p)
	}
}

func TestScan_SuffixMatchIsCaseSensitive(t *testing.T) {
	// Given: upper- and lower-case extensions
	dir := t.TempDir()
	writeTree(t, dir, "a.txt", "b.TXT")

	// When: scanning for .txt
	paths, err := Scan(context.Background(), dir, []string{".txt"})
	require.NoError(t, err)

	// Then: only the exact-case match is found
	require.Len(t, paths, 1)
	assert.Equal(t, "a.txt", filepath.Base(paths[0]))
}

func TestScan_MissingDirectoryErrors(t *testing.T) {
	_, err := Scan(context.Background(), "/no/such/dir", []string{".txt"})
	assert.Error(t, err)
}

func TestScan_FileAsRootErrors(t *testing.T) {
	dir := t.TempDir()
	paths := writeTree(t, dir, "a.txt")

	_, err := Scan(context.Background(), paths[0], []string{".txt"})
	assert.Error(t, err)
}

func TestScan_CancelledContextStops(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, dir, []string{".txt"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiff_PartitionsSnapshots(t *testing.T) {
	// Given: a stored snapshot and a changed directory
	dir := t.TempDir()
	paths := writeTree(t, dir, "keep.txt", "touch.txt", "gone.txt")
	keep, touch, gone := paths[0], paths[1], paths[2]

	keepInfo, err := os.Stat(keep)
	require.NoError(t, err)
	touchInfo, err := os.Stat(touch)
	require.NoError(t, err)

	existing := map[string]time.Time{
		keep:  keepInfo.ModTime(),
		touch: touchInfo.ModTime().Add(-5 * time.Second), // stored mtime lags
		gone:  time.Now(),
	}

	require.NoError(t, os.Remove(gone))
	added := writeTree(t, dir, "new.txt")[0]
	current := []string{keep, touch, added}

	// When: diffing
	result := Diff(current, existing)

	// Then: each path lands in exactly one bucket
	assert.Equal(t, []string{added}, result.New)
	assert.Equal(t, []string{touch}, result.Updated)
	assert.Equal(t, []string{gone}, result.Deleted)
}

func TestDiff_MtimeJitterWithinToleranceIsUnchanged(t *testing.T) {
	// Given: a stored mtime within one second of disk
	dir := t.TempDir()
	path := writeTree(t, dir, "a.txt")[0]
	info, err := os.Stat(path)
	require.NoError(t, err)

	existing := map[string]time.Time{
		path: info.ModTime().Add(500 * time.Millisecond),
	}

	// When: diffing
	result := Diff([]string{path}, existing)

	// Then: the file is not flagged as updated
	assert.Empty(t, result.Updated)
	assert.Empty(t, result.New)
	assert.Empty(t, result.Deleted)
}

func TestDiff_UnreadableMetadataTreatedAsUnchanged(t *testing.T) {
	// Given: a stored path that no longer stats (but is still "current",
	// e.g. it vanished between scan and diff)
	ghost := filepath.Join(t.TempDir(), "ghost.txt")
	existing := map[string]time.Time{ghost: time.Now().Add(-time.Hour)}

	// When: diffing with the ghost in the current set
	result := Diff([]string{ghost}, existing)

	// Then: it is excluded from updated rather than erroring
	assert.Empty(t, result.Updated)
	assert.Empty(t, result.Deleted)
}

func TestDiff_EmptySnapshots(t *testing.T) {
	result := Diff(nil, nil)
	assert.Empty(t, result.New)
	assert.Empty(t, result.Updated)
	assert.Empty(t, result.Deleted)
}
