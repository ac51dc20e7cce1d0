// Package timeseries holds the month-indexed table shared by every source parser
// and by the aligner.
//
// A Table is keyed by calendar month. Every date that enters a table is normalized
// to the first day of its month in UTC, so two observations from the same month
// always land on the same row. Missing cells are represented as math.NaN().
//
// # Operations
//
// The package exposes the handful of column transforms the pipeline needs:
//
//	OuterJoin     union of months, columns kept where their source had data
//	Restrict      keep only the months inside a Window
//	Interpolate   linear gap filling along the month axis, both directions
//	PctChange     percentage change against the value N rows earlier
//	Resample      aggregate dated points into monthly buckets (mean or sum)
//
// None of the operations mutate their inputs; each returns a new Table.
package timeseries
