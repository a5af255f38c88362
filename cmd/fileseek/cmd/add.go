package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

// newAddCmd creates the add command.
func newAddCmd() *cobra.Command {
	var name string
	var dir string
	var exts []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new index",
		Long: `Register a new index over a directory. The index is created empty;
run it afterwards to populate it.

Extensions default to the configured common set when --ext is omitted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			allowed := normalizeExtensions(exts)
			if len(allowed) == 0 {
				allowed = a.cfg.DefaultExtensions
			}

			cfg, err := a.cat.AddIndex(cmd.Context(), name, dir, allowed)
			if err != nil {
				return a.fail(err)
			}

			a.out.Successf("Index %q added (id %s)", cfg.Name, cfg.ID)
			a.out.Plainf("  directory:  %s", cfg.TargetDirectory)
			a.out.Plainf("  extensions: %s", strings.Join(cfg.AllowedExtensions, " "))
			a.out.Plainf("Run 'fileseek run %s' to index it.", cfg.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Unique index name (required)")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to index (required)")
	cmd.Flags().StringSliceVar(&exts, "ext", nil,
		"File extensions to index (repeatable, e.g. --ext .txt --ext .md)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

// normalizeExtensions ensures every extension carries its leading dot.
func normalizeExtensions(exts []string) []string {
	var out []string
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
