package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fileseek/fileseek/internal/search"
	"github.com/fileseek/fileseek/internal/store"
)

// defaultExportMaxChars bounds one export part file.
const defaultExportMaxChars = 200_000

// newExportCmd creates the export command.
func newExportCmd() *cobra.Command {
	var outDir string
	var maxChars int
	var limit int

	cmd := &cobra.Command{
		Use:   "export <index> <query>",
		Short: "Export matching documents as Markdown",
		Long: `Search an index and write the full content of every matching file
into Markdown part files, one header block per document. Output is
split into numbered parts when it exceeds the size budget.`,
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
			results, err := executor.Search(cmd.Context(), st, args[1], search.Options{Limit: limit})
			if err != nil {
				return a.fail(err)
			}
			if len(results) == 0 {
				a.out.Plain("No matches, nothing exported.")
				return nil
			}

			parts, err := writeExport(cmd.Context(), st, results, outDir, cfg.Name, maxChars)
			if err != nil {
				return a.fail(err)
			}

			a.out.Successf("Exported %d document(s) into %d part file(s) under %s",
				len(results), parts, outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", ".", "Directory to write part files into")
	cmd.Flags().IntVar(&maxChars, "max-chars", defaultExportMaxChars, "Size budget per part file, in characters")
	cmd.Flags().IntVar(&limit, "limit", 0, "Cap on exported documents (default: configured cap)")

	return cmd
}

// writeExport renders each matching document into Markdown and splits
// the stream into part files of at most maxChars characters; a single
// oversized document still goes out whole in its own part.
func writeExport(ctx context.Context, st *store.Store, results []search.Result, outDir, indexName string, maxChars int) (int, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	if maxChars <= 0 {
		maxChars = defaultExportMaxChars
	}

	part := 0
	var buf strings.Builder

	flush := func() error {
		if buf.Len() == 0 {
			return nil
		}
		part++
		name := filepath.Join(outDir, fmt.Sprintf("%s_export_part%02d.md", indexName, part))
		if err := os.WriteFile(name, []byte(buf.String()), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		buf.Reset()
		return nil
	}

	for _, r := range results {
		rec, err := st.GetFile(ctx, r.Path)
		if err != nil {
			return part, err
		}
		if rec == nil {
			// The record vanished between search and export.
			continue
		}

		doc := renderDocument(rec, r)
		if buf.Len() > 0 && buf.Len()+len(doc) > maxChars {
			if err := flush(); err != nil {
				return part, err
			}
		}
		buf.WriteString(doc)
	}

	if err := flush(); err != nil {
		return part, err
	}
	return part, nil
}

// renderDocument formats one document block.
func renderDocument(rec *store.FileRecord, r search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", rec.Path)
	if rec.FileType != "" {
		fmt.Fprintf(&b, "- type: %s\n", rec.FileType)
	}
	if r.Created != "" {
		fmt.Fprintf(&b, "- created: %s\n", r.Created)
	}
	if r.Modified != "" {
		fmt.Fprintf(&b, "- modified: %s\n", r.Modified)
	}
	b.WriteString("\n```\n")
	b.WriteString(rec.Content)
	if !strings.HasSuffix(rec.Content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")
	return b.String()
}
