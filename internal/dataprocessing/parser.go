package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"macrocli/internal/config"
	"macrocli/internal/timeseries"
)

// Source identifies one of the raw inputs.
type Source string

const (
	SourceCPI    Source = "cpi"
	SourceEnergy Source = "energy"
	SourceLabor  Source = "labor"
	SourceNews   Source = "news"
)

// Sources returns every source in canonical order.
func Sources() []Source {
	return []Source{SourceCPI, SourceEnergy, SourceLabor, SourceNews}
}

// ParseSource validates a source name.
func ParseSource(name string) (Source, error) {
	s := Source(name)
	if !slices.Contains(Sources(), s) {
		return "", fmt.Errorf("unknown source %q: expected one of %v", name, Sources())
	}
	return s, nil
}

// OutputFile returns the processed file name for the source.
func (s Source) OutputFile() string {
	switch s {
	case SourceCPI:
		return config.CleanCPIFile
	case SourceEnergy:
		return config.CleanEnergyFile
	case SourceLabor:
		return config.CleanLaborFile
	case SourceNews:
		return config.CleanNewsFile
	}
	return ""
}

// rank orders sources canonically, unknown sources last.
func (s Source) rank() int {
	if i := slices.Index(Sources(), s); i >= 0 {
		return i
	}
	return len(Sources())
}

// Options carries what every parser needs from the pipeline configuration.
type Options struct {
	RawDir string
	Window timeseries.Window
	Logger *slog.Logger
}

// OptionsFromConfig resolves the raw directory and window of cfg.
func OptionsFromConfig(cfg config.PipelineConfig, logger *slog.Logger) (Options, error) {
	window, err := cfg.Window()
	if err != nil {
		return Options{}, err
	}
	paths, err := config.GetPaths(cfg)
	if err != nil {
		return Options{}, err
	}
	return Options{RawDir: paths.RawDir, Window: window, Logger: logger}, nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Parser turns one raw source into a monthly table.
//
// Parse never fails for individual records. It returns an error wrapping
// ErrSourceAbsent or ErrMalformedPayload only when the result is empty
// because of file level problems; the table is then empty, never nil.
type Parser interface {
	Source() Source
	Parse(ctx context.Context) (*timeseries.Table, *SourceReport, error)
}

// NewParser builds the parser for a source.
func NewParser(source Source, opts Options) (Parser, error) {
	switch source {
	case SourceCPI:
		return NewSeriesParser(opts), nil
	case SourceEnergy:
		return NewScrapedTableParser(opts), nil
	case SourceLabor:
		return NewMatrixMelter(opts), nil
	case SourceNews:
		return NewTextAggregator(opts), nil
	}
	return nil, fmt.Errorf("unknown source %q", source)
}

// readSource reads a raw file, mapping a missing file to ErrSourceAbsent.
func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrSourceAbsent, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// finish fills the table shape into the report and decides the returned error.
func finish(table *timeseries.Table, report *SourceReport) (*timeseries.Table, *SourceReport, error) {
	if table == nil {
		table = timeseries.NewTable()
	}
	report.Rows = table.Len()
	report.Columns = table.Columns()

	report.logger.Info("source_parsed",
		slog.String("source", string(report.Source)),
		slog.Int("records_parsed", report.Parsed),
		slog.Int("records_skipped", report.Skipped),
		slog.Int("rows", report.Rows),
		slog.Int("columns", len(report.Columns)))

	if table.IsEmpty() {
		return table, report, report.Err()
	}
	return table, report, nil
}
