// Package config loads and validates the fileseek configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvDataDir overrides the data directory when set.
const EnvDataDir = "FILESEEK_DATA_DIR"

// Config represents the complete fileseek configuration.
type Config struct {
	// DataDir is where the catalog, per-index stores, and logs live.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" json:"log_level"`

	// DefaultExtensions is the extension set offered when an index is
	// added without an explicit list.
	DefaultExtensions []string `yaml:"default_extensions" json:"default_extensions"`

	// Indexing tunes the index writer.
	Indexing IndexingConfig `yaml:"indexing" json:"indexing"`

	// Search tunes the search executor.
	Search SearchConfig `yaml:"search" json:"search"`
}

// IndexingConfig configures the index writer.
type IndexingConfig struct {
	// CommitBatchSize is the number of files per durable commit.
	CommitBatchSize int `yaml:"commit_batch_size" json:"commit_batch_size"`
}

// SearchConfig configures the search executor.
type SearchConfig struct {
	// SnippetLength is the character budget for result snippets.
	SnippetLength int `yaml:"snippet_length" json:"snippet_length"`

	// MaxResults caps the result set size.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// DefaultConfig returns the built-in defaults.
// The default extension set mirrors the common document and text types.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  defaultDataDir(),
		LogLevel: "info",
		DefaultExtensions: []string{
			".txt", ".md", ".csv", ".json", ".xml",
			".pdf", ".xlsx", ".docx", ".pptx",
		},
		Indexing: IndexingConfig{
			CommitBatchSize: 10,
		},
		Search: SearchConfig{
			SnippetLength: 200,
			MaxResults:    100,
		},
	}
}

// defaultDataDir resolves the data directory: env override, then
// ~/.fileseek, then a temp fallback when home is unavailable.
func defaultDataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".fileseek")
	}
	return filepath.Join(home, ".fileseek")
}

// Path returns the config file location inside a data directory.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "config.yaml")
}

// Load reads configuration from dataDir, applying defaults for any
// missing fields. A missing config file is not an error.
func Load(dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	data, err := os.ReadFile(Path(cfg.DataDir))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to its data directory.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(Path(c.DataDir), data, 0o644)
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if len(c.DefaultExtensions) == 0 {
		c.DefaultExtensions = def.DefaultExtensions
	}
	if c.Indexing.CommitBatchSize == 0 {
		c.Indexing.CommitBatchSize = def.Indexing.CommitBatchSize
	}
	if c.Search.SnippetLength == 0 {
		c.Search.SnippetLength = def.Search.SnippetLength
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = def.Search.MaxResults
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Indexing.CommitBatchSize < 1 {
		return fmt.Errorf("indexing.commit_batch_size must be >= 1, got %d", c.Indexing.CommitBatchSize)
	}
	if c.Search.SnippetLength < 1 {
		return fmt.Errorf("search.snippet_length must be >= 1, got %d", c.Search.SnippetLength)
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be >= 1, got %d", c.Search.MaxResults)
	}
	return nil
}

// IndexesDir returns the directory holding per-index store files.
func (c *Config) IndexesDir() string {
	return filepath.Join(c.DataDir, "indexes")
}

// CatalogPath returns the catalog database location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}
