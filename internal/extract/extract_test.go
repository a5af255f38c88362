package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PlainTextFallback(t *testing.T) {
	// Given: a text file with no registered extractor for its extension
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello full text"), 0o644))

	// When: extracting
	got := NewRegistry().Extract(path)

	// Then: the raw content comes back
	assert.Equal(t, "hello full text", got)
}

func TestRegistry_DispatchesByExtension(t *testing.T) {
	// Given: a registry with a custom extractor for .pdf
	r := NewRegistry()
	r.Register(ExtractorFunc(func(path string) (string, error) {
		return "pdf text", nil
	}), ".pdf")

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.PDF")
	require.NoError(t, os.WriteFile(path, []byte{0x25, 0x50, 0x44, 0x46}, 0o644))

	// When: extracting (extension case differs)

	// Then: the registered extractor is used
	assert.Equal(t, "pdf text", r.Extract(path))
}

func TestRegistry_FailureDegradesToEmpty(t *testing.T) {
	// Given: an extractor that always fails
	r := NewRegistry()
	r.Register(ExtractorFunc(func(path string) (string, error) {
		return "", fmt.Errorf("corrupt file")
	}), ".docx")

	// When: extracting

	// Then: empty string, no panic, no error surfaces
	assert.Equal(t, "", r.Extract("/nowhere/broken.docx"))
}

func TestRegistry_MissingFileDegradesToEmpty(t *testing.T) {
	assert.Equal(t, "", NewRegistry().Extract("/does/not/exist.txt"))
}

func TestPlainText_StripsNULBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bin.log")
	require.NoError(t, os.WriteFile(path, []byte("a\x00b"), 0o644))

	text, err := PlainText(path)
	require.NoError(t, err)
	assert.Equal(t, "ab", text)
}
