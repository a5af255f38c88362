package cmd

import (
	"github.com/spf13/cobra"
)

// newRemoveCmd creates the remove command.
func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <index>",
		Short: "Delete an index and its stored data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg, err := a.cat.DeleteIndex(cmd.Context(), args[0])
			if err != nil {
				return a.fail(err)
			}

			a.out.Successf("Index %q removed", cfg.Name)
			return nil
		},
	}
	return cmd
}
