package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/fileseek/fileseek/internal/search"
)

// newSearchCmd creates the search command.
func newSearchCmd() *cobra.Command {
	var fileTypes []string
	var modified string
	var created string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <index> <query>",
		Short: "Search an index",
		Long: `Search an index with the boolean/phrase query syntax.

  word word          both words (AND)
  word OR word       either word (| works too)
  -word              exclude a word
  "some phrase"      phrase match
  ""exact phrase""   strict phrase match

Date filters take: today, this_week, this_month, this_year, year:YYYY.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg, err := a.cat.GetIndex(cmd.Context(), args[0])
			if err != nil {
				return a.fail(err)
			}
			st, release, err := a.cat.OpenStore(cfg)
			if err != nil {
				return a.fail(err)
			}
			defer release()

			executor := search.NewExecutor(a.cfg.Search.SnippetLength, a.cfg.Search.MaxResults)
			results, err := executor.Search(cmd.Context(), st, args[1], search.Options{
				FileTypes: normalizeExtensions(fileTypes),
				Modified:  modified,
				Created:   created,
				Limit:     limit,
			})
			if err != nil {
				return a.fail(err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			if len(results) == 0 {
				a.out.Plain("No matches.")
				return nil
			}
			for _, r := range results {
				a.out.Plainf("%s", r.Path)
				if r.Modified != "" || r.Created != "" {
					a.out.Plainf("  modified: %-17s created: %s", r.Modified, r.Created)
				}
				if r.Snippet != "" {
					a.out.Plainf("  %s", r.Snippet)
				}
				a.out.Newline()
			}
			a.out.Statusf("•", "%d result(s)", len(results))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&fileTypes, "type", nil, "Restrict to file types (e.g. --type .md)")
	cmd.Flags().StringVar(&modified, "modified", "", "Modified-date filter keyword")
	cmd.Flags().StringVar(&created, "created", "", "Created-date filter keyword")
	cmd.Flags().IntVar(&limit, "limit", 0, "Result limit (default: configured cap)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
