package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_HasSaneDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Contains(t, cfg.DefaultExtensions, ".txt")
	assert.Contains(t, cfg.DefaultExtensions, ".pdf")
	assert.Equal(t, 10, cfg.Indexing.CommitBatchSize)
	assert.Equal(t, 200, cfg.Search.SnippetLength)
	assert.Equal(t, 100, cfg.Search.MaxResults)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	// Given: an empty data directory
	dir := t.TempDir()

	// When: loading
	cfg, err := Load(dir)
	require.NoError(t, err)

	// Then: defaults apply and DataDir points at the directory
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 10, cfg.Indexing.CommitBatchSize)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	// Given: a config file that only sets the log level
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))

	// When: loading
	cfg, err := Load(dir)
	require.NoError(t, err)

	// Then: the set field wins and everything else defaults
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 200, cfg.Search.SnippetLength)
	assert.NotEmpty(t, cfg.DefaultExtensions)
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [unclosed"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_InvalidValuesFailValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  max_results: -5\n"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSaveAndLoad_RoundTrips(t *testing.T) {
	// Given: a customized config
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = dir
	cfg.Search.MaxResults = 25

	// When: saving then reloading
	require.NoError(t, cfg.Save())
	loaded, err := Load(dir)
	require.NoError(t, err)

	// Then: the customization survives
	assert.Equal(t, 25, loaded.Search.MaxResults)
}

func TestPaths(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	assert.Equal(t, filepath.Join("/data", "indexes"), cfg.IndexesDir())
	assert.Equal(t, filepath.Join("/data", "catalog.db"), cfg.CatalogPath())
}
