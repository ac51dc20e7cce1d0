package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"

	"macrocli/internal/timeseries"
)

// Aligner merges the per source tables into the final dataset.
type Aligner struct {
	window timeseries.Window
	logger *slog.Logger
}

// NewAligner creates an aligner restricting output to window.
func NewAligner(window timeseries.Window, logger *slog.Logger) *Aligner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aligner{window: window, logger: logger}
}

// Align outer joins the non-empty tables on month, keeps the months inside
// the window and fills gaps by linear interpolation over row positions.
// Leading and trailing gaps take the nearest observed value.
// It returns ErrMergeFailure when every table is empty.
func (a *Aligner) Align(tables ...*timeseries.Table) (*timeseries.Table, error) {
	var inputs []*timeseries.Table
	for _, t := range tables {
		if !t.IsEmpty() {
			inputs = append(inputs, t)
		}
	}
	if len(inputs) == 0 {
		a.logger.Error("merge_failed", slog.Int("tables", len(tables)))
		return nil, ErrMergeFailure
	}

	joined, err := timeseries.OuterJoin(inputs...)
	if err != nil {
		return nil, fmt.Errorf("failed to join tables: %w", err)
	}

	final := timeseries.Interpolate(joined.Restrict(a.window))

	a.logger.Info("tables_aligned",
		slog.Int("inputs", len(inputs)),
		slog.Int("discarded", len(tables)-len(inputs)),
		slog.Int("rows", final.Len()),
		slog.Int("columns", len(final.Columns())),
		slog.String("window", a.window.String()))
	return final, nil
}

// AlignSources aligns tables keyed by source, joining them in canonical
// source order so the column layout of the result is stable.
func (a *Aligner) AlignSources(tables map[Source]*timeseries.Table) (*timeseries.Table, error) {
	sources := make([]Source, 0, len(tables))
	for s := range tables {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].rank() != sources[j].rank() {
			return sources[i].rank() < sources[j].rank()
		}
		return sources[i] < sources[j]
	})

	ordered := make([]*timeseries.Table, len(sources))
	for i, s := range sources {
		ordered[i] = tables[s]
	}
	return a.Align(ordered...)
}
