// Package cmd provides the CLI commands for fileseek.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fileseek/fileseek/internal/catalog"
	"github.com/fileseek/fileseek/internal/config"
	"github.com/fileseek/fileseek/internal/extract"
	"github.com/fileseek/fileseek/internal/index"
	"github.com/fileseek/fileseek/internal/logging"
	"github.com/fileseek/fileseek/internal/output"
	"github.com/fileseek/fileseek/pkg/version"
)

var (
	dataDirFlag    string
	debugMode      bool
	loggingCleanup func()
)

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates the root command for the fileseek CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fileseek",
		Short: "Full-text search over local file trees",
		Long: `fileseek maintains independent full-text search indexes over local
directories and answers boolean/phrase queries against them.

Add an index, run it, then search:

  fileseek add --name notes --dir ~/notes
  fileseek run notes
  fileseek search notes "meeting OR standup"`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("fileseek version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "",
		"Data directory (default $FILESEEK_DATA_DIR or ~/.fileseek)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if loggingCleanup != nil {
			loggingCleanup()
			loggingCleanup = nil
		}
	}

	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupLogging routes slog to the rotated log file under the data dir.
func setupLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(dataDirFlag)
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig(cfg.DataDir)
	logCfg.Level = cfg.LogLevel
	if debugMode {
		logCfg = logging.DebugConfig(cfg.DataDir)
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

// app bundles what every subcommand needs.
type app struct {
	cfg    *config.Config
	cat    *catalog.Catalog
	runner *index.Runner
	out    *output.Writer
}

// openApp loads configuration and opens the catalog. The returned
// cleanup must run before the command exits.
func openApp(cmd *cobra.Command) (*app, func(), error) {
	cfg, err := config.Load(dataDirFlag)
	if err != nil {
		return nil, nil, err
	}

	cat, err := catalog.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}

	a := &app{
		cfg:    cfg,
		cat:    cat,
		runner: index.NewRunner(cat, newExtractorRegistry(), cfg.Indexing.CommitBatchSize),
		out:    output.New(cmd.OutOrStdout()),
	}
	return a, func() { _ = cat.Close() }, nil
}

// newExtractorRegistry builds the extraction dispatch table. Formats
// without a dedicated reader fall back to the plain-text extractor.
func newExtractorRegistry() *extract.Registry {
	return extract.NewRegistry()
}

// fail reports an error on the user channel and returns it for cobra.
func (a *app) fail(err error) error {
	a.out.Errorf("%v", err)
	return err
}
