package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"macrocli/internal/dataprocessing"
	"macrocli/internal/operations"
	"macrocli/internal/validation"
)

type pipelineFlags struct {
	export     bool
	sequential bool
	quiet      bool
}

// NewRunCommand runs every cleaning step, the merge and optionally the workbook export
func NewRunCommand(c *CLI) *cobra.Command {
	var flags pipelineFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Clean every source and merge final_dataset.csv",
		Long: `Cleans all four sources, merges them over the analysis window into
final_dataset.csv and writes run_manifest.json. With --export the
workbook final_dataset.xlsx is written as well.`,
		Args: cobra.NoArgs,
		RunE: c.withRuntime(func(cmd *cobra.Command, args []string) error {
			export := flags.export || c.Config.Pipeline.ExportXLSX
			return c.executePipeline(cmd, operations.RunSteps(export), true, flags)
		}),
	}
	addPipelineFlags(cmd, &flags)
	cmd.Flags().BoolVar(&flags.export, "export", false, "also write final_dataset.xlsx")
	return cmd
}

// NewCleanCommand runs the cleaning step of a single source
func NewCleanCommand(c *CLI) *cobra.Command {
	var flags pipelineFlags
	cmd := &cobra.Command{
		Use:       "clean <cpi|energy|labor|news>",
		Short:     "Clean one raw source into its processed table",
		Args:      cobra.ExactArgs(1),
		ValidArgs: sourceNames(),
		RunE: c.withRuntime(func(cmd *cobra.Command, args []string) error {
			src, err := dataprocessing.ParseSource(args[0])
			if err != nil {
				return err
			}
			return c.executePipeline(cmd, []string{operations.SourceStageID(src)}, false, flags)
		}),
	}
	addPipelineFlags(cmd, &flags)
	return cmd
}

// NewMergeCommand merges the clean tables already on disk
func NewMergeCommand(c *CLI) *cobra.Command {
	var flags pipelineFlags
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge the processed tables on disk into final_dataset.csv",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(cmd *cobra.Command, args []string) error {
			return c.executePipeline(cmd, []string{operations.StageIDMerge}, false, flags)
		}),
	}
	addPipelineFlags(cmd, &flags)
	return cmd
}

// NewExportCommand writes final_dataset.xlsx from the dataset on disk
func NewExportCommand(c *CLI) *cobra.Command {
	var flags pipelineFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write final_dataset.xlsx with a Summary sheet",
		Args:  cobra.NoArgs,
		RunE: c.withRuntime(func(cmd *cobra.Command, args []string) error {
			return c.executePipeline(cmd, []string{operations.StageIDExport}, false, flags)
		}),
	}
	addPipelineFlags(cmd, &flags)
	return cmd
}

func addPipelineFlags(cmd *cobra.Command, flags *pipelineFlags) {
	cmd.Flags().BoolVar(&flags.sequential, "sequential", false, "run independent steps one at a time")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "do not print the step summary")
}

// executePipeline builds the step registry and runs steps. Only a full run
// writes the manifest. A step that failed without stopping the run is
// reported in the summary and returns an error for single-step commands.
func (c *CLI) executePipeline(cmd *cobra.Command, steps []string, manifest bool, flags pipelineFlags) error {
	ctx := cmd.Context()

	window, err := c.Config.Pipeline.Window()
	if err != nil {
		return err
	}
	if err := c.preflight(steps); err != nil {
		return err
	}

	tracer, err := operations.NewOperationTracer(c.Providers)
	if err != nil {
		return err
	}
	parserOpts := dataprocessing.Options{RawDir: c.Paths.RawDir, Window: window, Logger: c.Logger}
	registry, err := operations.BuildRegistry(parserOpts, operations.NewStageOptions(c.Paths, window, tracer, c.Logger))
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	execCfg := operations.FromPipelineConfig(c.Config.Pipeline, c.Paths)
	if flags.sequential {
		execCfg.ExecutionMode = operations.ExecutionModeSequential
	}
	if !manifest {
		execCfg.ManifestPath = ""
	}

	c.Logger.InfoContext(ctx, "pipeline_requested",
		slog.Any("steps", steps),
		slog.String("mode", string(execCfg.ExecutionMode)))
	manager := operations.NewManager(registry, execCfg, window, tracer, c.Logger)
	resp, runErr := manager.Execute(ctx, operations.OperationRequest{Steps: steps})
	if resp != nil && !flags.quiet {
		renderSteps(c.stdout, resp, steps)
	}
	if runErr != nil {
		return runErr
	}

	if len(steps) == 1 {
		if st := resp.Steps[steps[0]]; st != nil && st.Status == operations.StepStatusFailed {
			return fmt.Errorf("%s failed: %s", st.Name, st.Message)
		}
	}
	return nil
}

// preflight checks the processed directory is writable and logs raw inputs
// missing for the requested cleaning steps
func (c *CLI) preflight(steps []string) error {
	validator := validation.NewFileValidator(c.Logger)
	if err := validator.ValidateOutputDirectory(c.Paths.ProcessedDir); err != nil {
		return err
	}

	var sources []dataprocessing.Source
	for _, src := range dataprocessing.Sources() {
		if slices.Contains(steps, operations.SourceStageID(src)) {
			sources = append(sources, src)
		}
	}
	if len(sources) == 0 {
		return nil
	}
	// the parsers report every source absent when the directory is missing
	if validator.ValidateInputDirectory(c.Paths.RawDir) != nil {
		return nil
	}
	_, err := validator.CheckSources(c.Paths.RawDir, sources...)
	return err
}

// renderSteps prints one row per step in the requested order
func renderSteps(w io.Writer, resp *operations.OperationResponse, order []string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Step", "Status", "Duration", "Detail"})

	for _, id := range order {
		st, ok := resp.Steps[id]
		if !ok {
			continue
		}
		t.AppendRow(table.Row{st.Name, statusText(st.Status), st.Duration().Round(time.Millisecond), stepDetail(st)})
	}
	t.AppendFooter(table.Row{"Run " + resp.ID, statusText(operations.StepStatus(resp.Status)), resp.Duration.Round(time.Millisecond), ""})
	t.Render()
}

func statusText(s operations.StepStatus) string {
	switch s {
	case operations.StepStatusCompleted:
		return text.FgGreen.Sprint(s)
	case operations.StepStatusFailed:
		return text.FgRed.Sprint(s)
	case operations.StepStatusSkipped:
		return text.FgYellow.Sprint(s)
	default:
		return string(s)
	}
}

func stepDetail(st *operations.StepState) string {
	if st.Message != "" {
		return st.Message
	}
	if out, ok := st.Metadata["output"].(string); ok {
		return out
	}
	return ""
}

func sourceNames() []string {
	names := make([]string, 0, len(dataprocessing.Sources()))
	for _, s := range dataprocessing.Sources() {
		names = append(names, string(s))
	}
	return names
}

func init() {
	subcommandFns["run"] = NewRunCommand
	subcommandFns["clean"] = NewCleanCommand
	subcommandFns["merge"] = NewMergeCommand
	subcommandFns["export"] = NewExportCommand
}
