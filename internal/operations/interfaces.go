package operations

import (
	"log/slog"

	"macrocli/internal/config"
	"macrocli/internal/exporter"
	"macrocli/internal/files"
	"macrocli/internal/timeseries"
)

// TableWriter persists a processed table under a file name in the processed directory
type TableWriter interface {
	WriteTable(name string, t *timeseries.Table) error
}

// StageOptions contains the collaborators shared by the pipeline steps
type StageOptions struct {
	Paths  *config.Paths
	Window timeseries.Window
	Writer TableWriter
	Files  *files.Manager
	Tracer *OperationTracer
	Logger *slog.Logger
}

// NewStageOptions wires the default writers for paths
func NewStageOptions(paths *config.Paths, window timeseries.Window, tracer *OperationTracer, logger *slog.Logger) StageOptions {
	return StageOptions{
		Paths:  paths,
		Window: window,
		Writer: exporter.NewCSVWriter(paths, logger),
		Files:  files.NewManager(paths, logger),
		Tracer: tracer,
		Logger: logger,
	}
}

func (o StageOptions) withDefaults() StageOptions {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Tracer == nil {
		o.Tracer = NewNoopTracer()
	}
	if o.Files == nil {
		o.Files = files.NewManager(o.Paths, o.Logger)
	}
	if o.Writer == nil {
		o.Writer = exporter.NewCSVWriter(o.Paths, o.Logger)
	}
	return o
}
