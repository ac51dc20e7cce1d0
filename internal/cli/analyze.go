package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"macrocli/internal/analytics"
	"macrocli/internal/exporter"
)

// NewAnalyzeCommand prints the analytics report for final_dataset.csv
func NewAnalyzeCommand(c *CLI) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print statistics and correlations for final_dataset.csv",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unsupported format %q: expected table or json", format)
			}
			return nil
		},
		RunE: c.withRuntime(func(cmd *cobra.Command, args []string) error {
			final, err := exporter.ReadTable(c.Paths.FinalDataset)
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("final dataset not found at %s, run `%s run` first", c.Paths.FinalDataset, cmd.Root().Name())
			}
			if err != nil {
				return err
			}

			report := analytics.Analyze(final)
			c.Logger.InfoContext(cmd.Context(), "analysis_complete",
				slog.Int("rows", report.Rows),
				slog.Int("statistics", len(report.Statistics)),
				slog.Int("notes", len(report.Notes)))

			if format == "json" {
				return analytics.RenderJSON(c.stdout, report)
			}
			analytics.RenderText(c.stdout, report)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or json")
	return cmd
}

func init() {
	subcommandFns["analyze"] = NewAnalyzeCommand
}
