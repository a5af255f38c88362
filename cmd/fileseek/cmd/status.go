package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/fileseek/fileseek/internal/index"
)

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <index>",
		Short: "Show indexing progress and lifecycle state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.runner.ReconcileStartup(cmd.Context()); err != nil {
				return a.fail(err)
			}

			p, err := a.runner.Poll(cmd.Context(), args[0])
			if err != nil {
				return a.fail(err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(statusPayload(p))
			}

			a.out.Plainf("status:          %s", p.Status)
			a.out.Plainf("catalog status:  %s", p.CatalogStatus)
			a.out.Plainf("progress:        %d / %d files", p.ProcessedFiles, p.TotalFiles)
			if p.Elapsed > 0 {
				a.out.Plainf("elapsed:         %s", p.Elapsed.Round(time.Second))
			}
			if p.Remaining > 0 {
				a.out.Plainf("remaining (est): %s", p.Remaining.Round(time.Second))
			}
			if p.StopRequested {
				a.out.Warning("stop requested")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// statusEntry is the JSON shape of a status poll.
type statusEntry struct {
	Status           string  `json:"status"`
	CatalogStatus    string  `json:"catalog_status"`
	TotalFiles       int     `json:"total_files"`
	ProcessedFiles   int     `json:"processed_files"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	StopRequested    bool    `json:"stop_requested"`
}

func statusPayload(p *index.Progress) statusEntry {
	return statusEntry{
		Status:           string(p.Status),
		CatalogStatus:    string(p.CatalogStatus),
		TotalFiles:       p.TotalFiles,
		ProcessedFiles:   p.ProcessedFiles,
		ElapsedSeconds:   p.Elapsed.Seconds(),
		RemainingSeconds: p.Remaining.Seconds(),
		StopRequested:    p.StopRequested,
	}
}
