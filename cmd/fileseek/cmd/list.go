package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fileseek/fileseek/internal/catalog"
)

// newListCmd creates the list command.
func newListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			configs, err := a.cat.ListIndexes(cmd.Context())
			if err != nil {
				return a.fail(err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(listPayload(configs))
			}

			if len(configs) == 0 {
				a.out.Plain("No indexes configured. Add one with 'fileseek add'.")
				return nil
			}

			for _, cfg := range configs {
				last := "never"
				if cfg.LastIndexedAt != nil {
					last = cfg.LastIndexedAt.Format("2006-01-02 15:04")
				}
				a.out.Plainf("%-20s %-10s last indexed: %-17s %s",
					cfg.Name, cfg.Status, last, cfg.TargetDirectory)
				a.out.Plainf("  id: %s  extensions: %s",
					cfg.ID, strings.Join(cfg.AllowedExtensions, " "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// listEntry is the JSON shape of one index in list output.
type listEntry struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	TargetDirectory   string   `json:"target_directory"`
	AllowedExtensions []string `json:"allowed_extensions"`
	Status            string   `json:"status"`
	LastIndexedAt     string   `json:"last_indexed_at,omitempty"`
}

func listPayload(configs []*catalog.IndexConfig) []listEntry {
	entries := make([]listEntry, 0, len(configs))
	for _, cfg := range configs {
		e := listEntry{
			ID:                cfg.ID,
			Name:              cfg.Name,
			TargetDirectory:   cfg.TargetDirectory,
			AllowedExtensions: cfg.AllowedExtensions,
			Status:            string(cfg.Status),
		}
		if cfg.LastIndexedAt != nil {
			e.LastIndexedAt = cfg.LastIndexedAt.Format("2006-01-02 15:04")
		}
		entries = append(entries, e)
	}
	return entries
}
