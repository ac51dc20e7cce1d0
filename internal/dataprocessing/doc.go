// Package dataprocessing turns the raw macroeconomic sources into monthly
// time series tables and aligns them into the final dataset.
//
// # Architecture
//
// Four parsers each own one raw source:
//
//  1. SeriesParser: BLS CPI API JSON, pivoted with year over year columns
//  2. ScrapedTableParser: EIA energy price tables scraped as lists of lists
//  3. MatrixMelter: BLS unemployment year by month matrices
//  4. TextAggregator: NYT archive documents reduced to monthly keyword counts
//
// The Aligner outer joins whatever the parsers produced, restricts it to the
// analysis window and fills gaps by linear interpolation.
//
// # Usage
//
//	opts := dataprocessing.Options{RawDir: paths.RawDir, Window: window, Logger: logger}
//	parser, err := dataprocessing.NewParser(dataprocessing.SourceCPI, opts)
//	table, report, err := parser.Parse(ctx)
//
//	final, err := dataprocessing.NewAligner(window, logger).Align(cpi, energy, labor, news)
//
// # Error Handling
//
// A missing source wraps ErrSourceAbsent and an unreadable one wraps
// ErrMalformedPayload. Both leave the parser's table empty and are not fatal
// to a run. Individual records that cannot be used are skipped and counted in
// the SourceReport. Only ErrMergeFailure, returned when every table is empty,
// stops the pipeline.
package dataprocessing
