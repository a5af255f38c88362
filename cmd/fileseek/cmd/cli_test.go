package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI against a dedicated data dir and captures output.
func execute(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append(args, "--data-dir", dataDir))
	err := root.Execute()
	return buf.String(), err
}

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestCLI_AddListRemove(t *testing.T) {
	dataDir := t.TempDir()
	docs := writeDocs(t, map[string]string{"a.txt": "hello"})

	out, err := execute(t, dataDir, "add", "--name", "notes", "--dir", docs, "--ext", ".txt")
	require.NoError(t, err)
	assert.Contains(t, out, `Index "notes" added`)

	out, err = execute(t, dataDir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "notes")
	assert.Contains(t, out, docs)

	out, err = execute(t, dataDir, "remove", "notes")
	require.NoError(t, err)
	assert.Contains(t, out, `Index "notes" removed`)

	out, err = execute(t, dataDir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No indexes configured")
}

func TestCLI_AddRejectsDuplicateName(t *testing.T) {
	dataDir := t.TempDir()
	docs := writeDocs(t, map[string]string{"a.txt": "hello"})

	_, err := execute(t, dataDir, "add", "--name", "notes", "--dir", docs)
	require.NoError(t, err)

	_, err = execute(t, dataDir, "add", "--name", "notes", "--dir", docs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_407_DUPLICATE_NAME")
}

func TestCLI_AddDefaultsExtensions(t *testing.T) {
	dataDir := t.TempDir()
	docs := writeDocs(t, map[string]string{"a.txt": "hello"})

	out, err := execute(t, dataDir, "add", "--name", "notes", "--dir", docs)
	require.NoError(t, err)
	assert.Contains(t, out, ".txt")
	assert.Contains(t, out, ".pdf")
}

func TestCLI_RunAndSearch(t *testing.T) {
	dataDir := t.TempDir()
	docs := writeDocs(t, map[string]string{
		"guide.txt": "a complete python tutorial",
		"notes.txt": "shopping list, no code topics",
	})

	_, err := execute(t, dataDir, "add", "--name", "notes", "--dir", docs, "--ext", ".txt")
	require.NoError(t, err)

	out, err := execute(t, dataDir, "run", "notes")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	out, err = execute(t, dataDir, "search", "notes", "python tutorial")
	require.NoError(t, err)
	assert.Contains(t, out, "guide.txt")
	assert.NotContains(t, out, "notes.txt\n")
	assert.Contains(t, out, "1 result(s)")
}

func TestCLI_SearchJSON(t *testing.T) {
	dataDir := t.TempDir()
	docs := writeDocs(t, map[string]string{"guide.txt": "a complete python tutorial"})

	_, err := execute(t, dataDir, "add", "--name", "notes", "--dir", docs, "--ext", ".txt")
	require.NoError(t, err)
	_, err = execute(t, dataDir, "run", "notes")
	require.NoError(t, err)

	out, err := execute(t, dataDir, "search", "notes", "python", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"Path"`)
	assert.Contains(t, out, "guide.txt")
}

func TestCLI_SearchEmptyQueryFails(t *testing.T) {
	dataDir := t.TempDir()
	docs := writeDocs(t, map[string]string{"a.txt": "hello"})

	_, err := execute(t, dataDir, "add", "--name", "notes", "--dir", docs, "--ext", ".txt")
	require.NoError(t, err)

	_, err = execute(t, dataDir, "search", "notes", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_404_QUERY_EMPTY")
}

func TestCLI_SearchUnknownIndexFails(t *testing.T) {
	dataDir := t.TempDir()

	_, err := execute(t, dataDir, "search", "ghost", "python")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_408_INDEX_NOT_FOUND")
}

func TestCLI_StatusBeforeFirstRun(t *testing.T) {
	dataDir := t.TempDir()
	docs := writeDocs(t, map[string]string{"a.txt": "hello"})

	_, err := execute(t, dataDir, "add", "--name", "notes", "--dir", docs, "--ext", ".txt")
	require.NoError(t, err)

	out, err := execute(t, dataDir, "status", "notes")
	require.NoError(t, err)
	assert.Contains(t, out, "not_started")
	assert.Contains(t, out, "0 / 0 files")
}

func TestCLI_StatusAfterRun(t *testing.T) {
	dataDir := t.TempDir()
	docs := writeDocs(t, map[string]string{"a.txt": "hello", "b.txt": "world"})

	_, err := execute(t, dataDir, "add", "--name", "notes", "--dir", docs, "--ext", ".txt")
	require.NoError(t, err)
	_, err = execute(t, dataDir, "run", "notes")
	require.NoError(t, err)

	out, err := execute(t, dataDir, "status", "notes")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "2 / 2 files")
}

func TestCLI_StopWithoutRunIsAccepted(t *testing.T) {
	dataDir := t.TempDir()
	docs := writeDocs(t, map[string]string{"a.txt": "hello"})

	_, err := execute(t, dataDir, "add", "--name", "notes", "--dir", docs, "--ext", ".txt")
	require.NoError(t, err)

	out, err := execute(t, dataDir, "stop", "notes")
	require.NoError(t, err)
	assert.Contains(t, out, "Stop requested")

	// The flag does not poison the next run
	out, err = execute(t, dataDir, "run", "notes")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
}

func TestCLI_RunAll(t *testing.T) {
	dataDir := t.TempDir()
	docsA := writeDocs(t, map[string]string{"a.txt": "alpha"})
	docsB := writeDocs(t, map[string]string{"b.txt": "bravo"})

	_, err := execute(t, dataDir, "add", "--name", "one", "--dir", docsA, "--ext", ".txt")
	require.NoError(t, err)
	_, err = execute(t, dataDir, "add", "--name", "two", "--dir", docsB, "--ext", ".txt")
	require.NoError(t, err)

	out, err := execute(t, dataDir, "run", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "one: completed")
	assert.Contains(t, out, "two: completed")
}

func TestCLI_RunWithoutArgsFails(t *testing.T) {
	dataDir := t.TempDir()

	_, err := execute(t, dataDir, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
}

func TestCLI_Export(t *testing.T) {
	dataDir := t.TempDir()
	docs := writeDocs(t, map[string]string{
		"guide.txt": "a complete python tutorial",
		"plan.txt":  "python roadmap for the quarter",
	})
	outDir := t.TempDir()

	_, err := execute(t, dataDir, "add", "--name", "notes", "--dir", docs, "--ext", ".txt")
	require.NoError(t, err)
	_, err = execute(t, dataDir, "run", "notes")
	require.NoError(t, err)

	out, err := execute(t, dataDir, "export", "notes", "python", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 document(s)")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "## ")
	assert.Contains(t, content, "python tutorial")
	assert.Contains(t, content, "python roadmap")
}

func TestCLI_ExportSplitsParts(t *testing.T) {
	dataDir := t.TempDir()
	docs := writeDocs(t, map[string]string{
		"a.txt": strings.Repeat("python alpha ", 50),
		"b.txt": strings.Repeat("python bravo ", 50),
	})
	outDir := t.TempDir()

	_, err := execute(t, dataDir, "add", "--name", "notes", "--dir", docs, "--ext", ".txt")
	require.NoError(t, err)
	_, err = execute(t, dataDir, "run", "notes")
	require.NoError(t, err)

	_, err = execute(t, dataDir, "export", "notes", "python", "--out", outDir, "--max-chars", "700")
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCLI_Version(t *testing.T) {
	out, err := execute(t, t.TempDir(), "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}
