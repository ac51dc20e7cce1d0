package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrSourceAbsent marks a raw file that does not exist.
	ErrSourceAbsent = errors.New("source absent")
	// ErrMalformedPayload marks a raw file that exists but does not have the expected shape.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrMergeFailure is returned by the Aligner when every input table is empty.
	ErrMergeFailure = errors.New("no data available to merge")
)

// RecordResult is the outcome of decoding one raw record: either a value or
// the reason the record was skipped.
type RecordResult[T any] struct {
	value  T
	reason string
	ok     bool
}

// Success wraps a decoded value.
func Success[T any](v T) RecordResult[T] {
	return RecordResult[T]{value: v, ok: true}
}

// Skip records why a raw record produced nothing.
func Skip[T any](format string, args ...any) RecordResult[T] {
	return RecordResult[T]{reason: fmt.Sprintf(format, args...)}
}

// Get returns the value and whether the record succeeded.
func (r RecordResult[T]) Get() (T, bool) {
	return r.value, r.ok
}

// Reason returns the skip reason, empty on success.
func (r RecordResult[T]) Reason() string {
	return r.reason
}

// SourceReport summarizes one parser run.
type SourceReport struct {
	Source  Source   `json:"source"`
	Files   []string `json:"files"`
	Parsed  int      `json:"records_parsed"`
	Skipped int      `json:"records_skipped"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Issues  []string `json:"issues,omitempty"`

	errs   []error
	logger *slog.Logger
}

func newSourceReport(source Source, logger *slog.Logger) *SourceReport {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceReport{Source: source, logger: logger}
}

// accept counts a record result and returns its value when it succeeded.
func accept[T any](r *SourceReport, res RecordResult[T]) (T, bool) {
	v, ok := res.Get()
	if ok {
		r.Parsed++
		return v, true
	}
	r.Skipped++
	r.logger.Debug("record_skipped",
		slog.String("source", string(r.Source)),
		slog.String("reason", res.Reason()))
	return v, false
}

// fail records a file level problem. Absent files are warnings, anything else is an error.
func (r *SourceReport) fail(err error) {
	r.errs = append(r.errs, err)
	r.Issues = append(r.Issues, err.Error())
	level := slog.LevelError
	if errors.Is(err, ErrSourceAbsent) {
		level = slog.LevelWarn
	}
	r.logger.Log(context.Background(), level, "source_issue",
		slog.String("source", string(r.Source)),
		slog.String("error", err.Error()))
}

// Err joins the file level problems of the run, or returns nil.
func (r *SourceReport) Err() error {
	return errors.Join(r.errs...)
}
