package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"macrocli/internal/dataprocessing"
	"macrocli/internal/infrastructure"
)

const (
	TracerName = "macrocli.pipeline"
)

// OperationTracer provides OpenTelemetry instrumentation for pipeline runs
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer recording on the given providers
func NewOperationTracer(providers *infrastructure.OTelProviders) (*OperationTracer, error) {
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	return &OperationTracer{
		tracer:  providers.Tracer,
		metrics: metrics,
	}, nil
}

// NewNoopTracer returns a tracer that records nothing
func NewNoopTracer() *OperationTracer {
	metrics, _ := infrastructure.CreatePipelineMetrics(metricnoop.NewMeterProvider().Meter(TracerName))
	return &OperationTracer{
		tracer:  tracenoop.NewTracerProvider().Tracer(TracerName),
		metrics: metrics,
	}
}

// TraceOperationExecution creates a span for the entire pipeline run
func (pt *OperationTracer) TraceOperationExecution(ctx context.Context, operationID string, stepCount int) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.Int("operation.steps", stepCount),
		),
	)
}

// TraceStageExecution creates a span for an individual step
func (pt *OperationTracer) TraceStageExecution(ctx context.Context, operationID, stageID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.step."+stageID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stageID),
		),
	)
}

// RecordStageCompletion records how a step ended on its span and in the stage metrics
func (pt *OperationTracer) RecordStageCompletion(ctx context.Context, span trace.Span, stageID string, duration time.Duration, status StepStatus, err error) {
	span.SetAttributes(
		attribute.String("step.status", string(status)),
		attribute.Float64("step.duration_seconds", duration.Seconds()),
	)

	attrs := metric.WithAttributes(
		attribute.String("stage_id", stageID),
		attribute.String("status", string(status)),
	)
	pt.metrics.StageRuns.Add(ctx, 1, attrs)
	pt.metrics.StageDuration.Record(ctx, duration.Seconds(), attrs)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// RecordOperationCompletion closes out the run span
func (pt *OperationTracer) RecordOperationCompletion(span trace.Span, status OperationStatusValue, duration time.Duration, err error) {
	span.SetAttributes(
		attribute.String("operation.status", string(status)),
		attribute.Float64("operation.duration_seconds", duration.Seconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// RecordSourceReport records the record counts of a parser run
func (pt *OperationTracer) RecordSourceReport(ctx context.Context, report *dataprocessing.SourceReport, absent bool) {
	if report == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", string(report.Source)))
	pt.metrics.RecordsParsed.Add(ctx, int64(report.Parsed), attrs)
	pt.metrics.RecordsSkipped.Add(ctx, int64(report.Skipped), attrs)
	if absent {
		pt.metrics.SourcesAbsent.Add(ctx, 1, attrs)
	}
}

// RecordTableRows records the row count of a written table
func (pt *OperationTracer) RecordTableRows(ctx context.Context, name string, rows int) {
	pt.metrics.DatasetRows.Record(ctx, int64(rows),
		metric.WithAttributes(attribute.String("table", name)))
}

// RecordMergeFailure counts a run in which every source came back empty
func (pt *OperationTracer) RecordMergeFailure(ctx context.Context) {
	pt.metrics.MergeFailures.Add(ctx, 1)
}
