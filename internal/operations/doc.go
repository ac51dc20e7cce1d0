// Package operations runs the cleaning pipeline as a set of dependent steps.
//
// Core Components:
//
// Manager: executes the requested steps in dependency waves. In parallel mode
// the steps of a wave run concurrently through an errgroup, and the next wave
// starts only when the previous one has finished. The four source steps form
// the first wave, the merge step waits on all of them.
//
// Step: a single unit of work. SourceStage runs one parser and writes its
// clean table, MergeStage aligns the tables into the final dataset and
// ExportStage writes the workbook.
//
// Registry: holds the steps and orders them with Kahn's algorithm.
//
// PipelineManifest: records the window, how each step ended, the tables
// written and the per source record counts, and is saved as run_manifest.json.
//
// Failure policy: a missing or malformed source never fails its step; it
// contributes an empty table. Other step failures are logged and the run
// continues when ContinueOnError is set. A merge with no data is fatal and
// leaves the previous final dataset untouched.
//
// Example usage:
//
//	opts := operations.NewStageOptions(paths, window, tracer, logger)
//	registry, err := operations.BuildRegistry(parserOpts, opts)
//	manager := operations.NewManager(registry, operations.FromPipelineConfig(cfg.Pipeline, paths), window, tracer, logger)
//	resp, err := manager.Execute(ctx, operations.OperationRequest{Steps: operations.RunSteps(cfg.Pipeline.ExportXLSX)})
package operations
