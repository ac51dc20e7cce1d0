package operations

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"macrocli/internal/analytics"
	"macrocli/internal/config"
	"macrocli/internal/dataprocessing"
	"macrocli/internal/exporter"
	"macrocli/internal/timeseries"
)

// SourceStage runs one parser and writes its clean table
type SourceStage struct {
	BaseStage
	parser dataprocessing.Parser
	opts   StageOptions
	logger *slog.Logger
}

// NewSourceStage creates the cleaning step for the parser's source
func NewSourceStage(parser dataprocessing.Parser, opts StageOptions) *SourceStage {
	opts = opts.withDefaults()
	source := parser.Source()
	return &SourceStage{
		BaseStage: NewBaseStage(SourceStageID(source), "Clean "+string(source), nil),
		parser:    parser,
		opts:      opts,
		logger:    opts.Logger.With(slog.String("step", SourceStageID(source))),
	}
}

// Execute parses the raw source. A source that is absent or malformed
// leaves an empty table behind and does not fail the step; the clean file
// is only written when the table has rows, and a clean file left by an
// earlier run is removed otherwise.
func (s *SourceStage) Execute(ctx context.Context, state *OperationState) error {
	source := s.parser.Source()
	table, report, err := s.parser.Parse(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if state.Manifest != nil {
		state.Manifest.AddSourceReport(report)
	}
	s.opts.Tracer.RecordSourceReport(ctx, report, err != nil)

	step := state.GetStage(s.ID())
	if report != nil && step != nil {
		step.SetMetadata("records_parsed", report.Parsed)
		step.SetMetadata("records_skipped", report.Skipped)
	}

	if table == nil {
		table = timeseries.NewTable()
	}
	state.SetTable(source, table)

	name := source.OutputFile()
	if err != nil {
		s.logger.WarnContext(ctx, "source_unavailable",
			slog.String("source", string(source)),
			slog.String("error", err.Error()))
		return removeStale(ctx, s.opts, s.logger, s.ID(), name)
	}
	if table.IsEmpty() {
		s.logger.WarnContext(ctx, "source_empty",
			slog.String("source", string(source)))
		return removeStale(ctx, s.opts, s.logger, s.ID(), name)
	}

	if err := s.opts.Writer.WriteTable(name, table); err != nil {
		return NewExecutionError(s.ID(), err, false)
	}

	path := s.opts.Paths.ProcessedPath(name)
	if state.Manifest != nil {
		state.Manifest.AddTable(name, path, s.ID(), table)
	}
	s.opts.Tracer.RecordTableRows(ctx, name, table.Len())
	if step != nil {
		step.SetMetadata("output", path)
		step.SetMetadata("rows", table.Len())
	}

	s.logger.InfoContext(ctx, "source_cleaned",
		slog.String("source", string(source)),
		slog.String("output", path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns())))
	return nil
}

// MergeStage aligns the clean tables into the final dataset
type MergeStage struct {
	BaseStage
	sources []dataprocessing.Source
	opts    StageOptions
	logger  *slog.Logger
}

// NewMergeStage creates the merge step. It depends on the cleaning step of every source.
func NewMergeStage(sources []dataprocessing.Source, opts StageOptions) *MergeStage {
	opts = opts.withDefaults()
	deps := make([]string, 0, len(sources))
	for _, src := range sources {
		deps = append(deps, SourceStageID(src))
	}
	return &MergeStage{
		BaseStage: NewBaseStage(StageIDMerge, StageNameMerge, deps),
		sources:   sources,
		opts:      opts,
		logger:    opts.Logger.With(slog.String("step", StageIDMerge)),
	}
}

// Execute merges the tables produced in this run. Sources whose cleaning
// step is not part of the run are read back from their clean files.
// When every table is empty the step fails fatally, nothing is written and
// the dataset and workbook of an earlier run are removed.
func (m *MergeStage) Execute(ctx context.Context, state *OperationState) error {
	tables := make(map[dataprocessing.Source]*timeseries.Table, len(m.sources))
	for _, src := range m.sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t, ok := state.GetTable(src); ok {
			tables[src] = t
			continue
		}
		if state.GetStage(SourceStageID(src)) != nil {
			// cleaned in this run but produced nothing usable
			continue
		}
		t, err := m.readClean(src)
		if err != nil {
			m.logger.WarnContext(ctx, "clean_table_unavailable",
				slog.String("source", string(src)),
				slog.String("error", err.Error()))
			continue
		}
		tables[src] = t
	}

	aligner := dataprocessing.NewAligner(m.opts.Window, m.logger)
	final, err := aligner.AlignSources(tables)
	if errors.Is(err, dataprocessing.ErrMergeFailure) {
		m.opts.Tracer.RecordMergeFailure(ctx)
		for _, name := range []string{config.FinalDatasetFile, config.FinalWorkbookFile} {
			if rmErr := removeStale(ctx, m.opts, m.logger, m.ID(), name); rmErr != nil {
				m.logger.WarnContext(ctx, "stale_output_remove_failed",
					slog.String("output", name),
					slog.String("error", rmErr.Error()))
			}
		}
		return NewFatalError(m.ID(), "merge failed", err)
	}
	if err != nil {
		return NewExecutionError(m.ID(), err, false)
	}

	if err := m.opts.Writer.WriteTable(config.FinalDatasetFile, final); err != nil {
		return NewExecutionError(m.ID(), err, false)
	}
	state.SetContext(ContextKeyFinalTable, final)

	path := m.opts.Paths.FinalDataset
	if state.Manifest != nil {
		state.Manifest.AddTable(config.FinalDatasetFile, path, m.ID(), final)
	}
	m.opts.Tracer.RecordTableRows(ctx, config.FinalDatasetFile, final.Len())
	if step := state.GetStage(m.ID()); step != nil {
		step.SetMetadata("output", path)
		step.SetMetadata("rows", final.Len())
		step.SetMetadata("sources", len(tables))
	}
	return nil
}

// removeStale deletes an output of an earlier run that this run did not replace
func removeStale(ctx context.Context, opts StageOptions, logger *slog.Logger, stepID, name string) error {
	if !opts.Files.FileExists(name) {
		return nil
	}
	if err := opts.Files.DeleteFile(name); err != nil {
		return NewExecutionError(stepID, err, false)
	}
	logger.InfoContext(ctx, "stale_output_removed",
		slog.String("output", opts.Paths.ProcessedPath(name)))
	return nil
}

func (m *MergeStage) readClean(src dataprocessing.Source) (*timeseries.Table, error) {
	path := m.opts.Paths.ProcessedPath(src.OutputFile())
	t, err := exporter.ReadTable(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", dataprocessing.ErrSourceAbsent, path)
	}
	return t, err
}

// ExportStage writes the final dataset and its summary statistics to a workbook
type ExportStage struct {
	BaseStage
	opts   StageOptions
	logger *slog.Logger
}

// NewExportStage creates the workbook step
func NewExportStage(opts StageOptions) *ExportStage {
	opts = opts.withDefaults()
	return &ExportStage{
		BaseStage: NewBaseStage(StageIDExport, StageNameExport, []string{StageIDMerge}),
		opts:      opts,
		logger:    opts.Logger.With(slog.String("step", StageIDExport)),
	}
}

// Execute uses the dataset merged in this run, or the one on disk when the
// merge step did not run.
func (e *ExportStage) Execute(ctx context.Context, state *OperationState) error {
	final, err := e.finalTable(state)
	if err != nil {
		return NewExecutionError(e.ID(), err, false)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	report := analytics.Analyze(final)
	writer := exporter.NewWorkbookWriter(e.opts.Files, e.logger)
	if err := writer.WriteWorkbook(config.FinalWorkbookFile, final, analytics.SummarySheet(report)); err != nil {
		return NewExecutionError(e.ID(), err, false)
	}

	path := e.opts.Paths.FinalWorkbook
	if state.Manifest != nil {
		state.Manifest.AddTable(config.FinalWorkbookFile, path, e.ID(), final)
	}
	if step := state.GetStage(e.ID()); step != nil {
		step.SetMetadata("output", path)
	}
	e.logger.InfoContext(ctx, "workbook_exported",
		slog.String("output", path),
		slog.Int("rows", final.Len()))
	return nil
}

func (e *ExportStage) finalTable(state *OperationState) (*timeseries.Table, error) {
	if v, ok := state.GetContext(ContextKeyFinalTable); ok {
		if t, ok := v.(*timeseries.Table); ok && t != nil {
			return t, nil
		}
	}
	t, err := exporter.ReadTable(e.opts.Paths.FinalDataset)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("final dataset not found, run merge first: %w", err)
	}
	return t, err
}

// BuildRegistry registers a cleaning step per source, the merge step and the export step
func BuildRegistry(parserOpts dataprocessing.Options, opts StageOptions) (*Registry, error) {
	registry := NewRegistry()
	sources := dataprocessing.Sources()
	for _, src := range sources {
		parser, err := dataprocessing.NewParser(src, parserOpts)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(NewSourceStage(parser, opts)); err != nil {
			return nil, err
		}
	}
	if err := registry.Register(NewMergeStage(sources, opts)); err != nil {
		return nil, err
	}
	if err := registry.Register(NewExportStage(opts)); err != nil {
		return nil, err
	}
	return registry, registry.ValidateDependencies()
}

// RunSteps returns the steps of a full run: every source, the merge and,
// when requested, the workbook export.
func RunSteps(export bool) []string {
	steps := make([]string, 0, len(dataprocessing.Sources())+2)
	for _, src := range dataprocessing.Sources() {
		steps = append(steps, SourceStageID(src))
	}
	steps = append(steps, StageIDMerge)
	if export {
		steps = append(steps, StageIDExport)
	}
	return steps
}
