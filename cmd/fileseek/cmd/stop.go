package cmd

import (
	"github.com/spf13/cobra"
)

// newStopCmd creates the stop command.
func newStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <index>",
		Short: "Request a running indexing pass to stop",
		Long: `Request a running indexing pass to stop. The writer checks the flag
between files, so the pass ends after the file currently in flight.

Safe to repeat; a stop request with no active pass has no effect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.runner.RequestStop(cmd.Context(), args[0]); err != nil {
				return a.fail(err)
			}

			a.out.Successf("Stop requested for %q", args[0])
			return nil
		},
	}
	return cmd
}
