package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fileseek/fileseek/internal/index"
	"github.com/fileseek/fileseek/internal/store"
)

// pollInterval paces the progress display during a foreground run.
const pollInterval = 200 * time.Millisecond

// newRunCmd creates the run command.
func newRunCmd() *cobra.Command {
	var full bool
	var all bool

	cmd := &cobra.Command{
		Use:   "run [<index>]",
		Short: "Run an indexing pass",
		Long: `Run an indexing pass for one index, or for every index with --all.

By default the pass is incremental: only new, changed, and deleted files
are applied. --full drops the stored records and rebuilds from scratch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("provide an index name or --all")
			}

			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			// A catalog row claiming "running" from a crashed process
			// must not block or mislead this one.
			if err := a.runner.ReconcileStartup(cmd.Context()); err != nil {
				return a.fail(err)
			}

			if all {
				return runAll(cmd, a, full)
			}
			return runOne(cmd, a, args[0], full)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Rebuild from scratch instead of applying the diff")
	cmd.Flags().BoolVar(&all, "all", false, "Run every configured index")
	return cmd
}

// runOne runs a single index in the foreground with a progress bar.
func runOne(cmd *cobra.Command, a *app, idOrName string, full bool) error {
	run, err := a.runner.Trigger(cmd.Context(), idOrName, full)
	if err != nil {
		return a.fail(err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-run.Done():
			return finishRun(a, idOrName, run)
		case <-ticker.C:
			p, perr := a.runner.Poll(cmd.Context(), idOrName)
			if perr != nil {
				continue
			}
			if p.TotalFiles > 0 {
				a.out.Progress(p.ProcessedFiles, p.TotalFiles, "indexing")
			}
		}
	}
}

// finishRun renders the terminal state of a completed run.
func finishRun(a *app, idOrName string, run *index.Run) error {
	a.out.ProgressDone()
	status, err := run.Wait()
	switch status {
	case store.StatusCompleted:
		a.out.Successf("Index %q up to date", idOrName)
		return nil
	case store.StatusStopped:
		a.out.Warningf("Indexing of %q stopped before completion", idOrName)
		return nil
	default:
		return a.fail(fmt.Errorf("indexing of %q failed: %w", idOrName, err))
	}
}

// runAll triggers every index concurrently and waits for all of them.
func runAll(cmd *cobra.Command, a *app, full bool) error {
	configs, err := a.cat.ListIndexes(cmd.Context())
	if err != nil {
		return a.fail(err)
	}
	if len(configs) == 0 {
		a.out.Plain("No indexes configured.")
		return nil
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	for _, cfg := range configs {
		cfg := cfg
		g.Go(func() error {
			run, err := a.runner.Trigger(ctx, cfg.ID, full)
			if err != nil {
				a.out.Errorf("%s: %v", cfg.Name, err)
				return err
			}
			status, err := run.Wait()
			switch status {
			case store.StatusCompleted:
				a.out.Successf("%s: completed", cfg.Name)
			case store.StatusStopped:
				a.out.Warningf("%s: stopped", cfg.Name)
			default:
				a.out.Errorf("%s: failed: %v", cfg.Name, err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
