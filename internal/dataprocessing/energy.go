package dataprocessing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"macrocli/internal/config"
	"macrocli/internal/timeseries"
)

// measure binds an output column to its raw file.
type measure struct {
	Column string
	File   string
}

// energyMeasures lists the scraped price tables in output order.
var energyMeasures = []measure{
	{Column: "Gas_Price", File: config.GasolineRawFile},
	{Column: "Diesel_Price", File: config.DieselRawFile},
	{Column: "Oil_Price", File: config.CrudeRawFile},
}

// headerLayouts are the forms a scraped row header takes. Only the year is used.
var headerLayouts = []string{
	"Jan-2006",
	"January-2006",
	"2006-Jan",
	"2006 Jan",
	"Jan 2006",
	"2006-01",
	"2006-01-02",
	"2006-Jan-02",
	"01/02/2006",
	"1/2/2006",
	"2006",
	time.RFC3339,
}

// pairLayouts parse "<year>-<fragment>" once slashes in the fragment became dashes.
var pairLayouts = []string{
	"2006-1-2",
	"2006-1",
	"2006-Jan-2",
	"2006-January-2",
}

// ScrapedTableParser reads the EIA price tables. Each row starts with a
// period header carrying the year, followed by (date fragment, price) pairs.
type ScrapedTableParser struct {
	opts     Options
	measures []measure
}

// NewScrapedTableParser creates a parser over the gasoline, diesel and crude tables.
func NewScrapedTableParser(opts Options) *ScrapedTableParser {
	return &ScrapedTableParser{opts: opts, measures: energyMeasures}
}

// Source implements Parser.
func (p *ScrapedTableParser) Source() Source { return SourceEnergy }

// Parse implements Parser.
func (p *ScrapedTableParser) Parse(ctx context.Context) (*timeseries.Table, *SourceReport, error) {
	report := newSourceReport(SourceEnergy, p.opts.logger())

	var monthly []*timeseries.Table
	for _, m := range p.measures {
		if err := ctx.Err(); err != nil {
			return timeseries.NewTable(), report, err
		}

		path := filepath.Join(p.opts.RawDir, m.File)
		report.Files = append(report.Files, path)

		points, err := p.parseMeasure(path, m.Column, report)
		if err != nil {
			report.fail(err)
			continue
		}

		table := timeseries.Resample(m.Column, points, timeseries.Mean)
		if table.IsEmpty() {
			report.logger.Warn("measure_empty",
				slog.String("source", string(SourceEnergy)),
				slog.String("measure", m.Column))
			continue
		}
		monthly = append(monthly, table)
	}

	joined, err := timeseries.OuterJoin(monthly...)
	if err != nil {
		return timeseries.NewTable(), report, err
	}
	return finish(joined.Restrict(p.opts.Window), report)
}

func (p *ScrapedTableParser) parseMeasure(path, column string, report *SourceReport) ([]timeseries.Point, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	var rows []any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, path, err)
	}

	var points []timeseries.Point
	for _, raw := range rows {
		row, ok := raw.([]any)
		if !ok || len(row) == 0 {
			continue
		}
		year, ok := rowYear(row[0])
		if !ok {
			report.logger.Debug("row_header_unparseable",
				slog.String("measure", column),
				slog.Any("header", row[0]))
			continue
		}

		tokens := row[1:]
		for i := 0; i+1 < len(tokens); i += 2 {
			if point, ok := accept(report, decodePricePair(year, tokens[i], tokens[i+1])); ok {
				points = append(points, point)
			}
		}
	}
	return points, nil
}

// rowYear extracts the year of a row header; false when the header is not a date.
func rowYear(header any) (int, bool) {
	s, ok := header.(string)
	if !ok {
		return 0, false
	}
	t, ok := parseFirst(strings.TrimSpace(s), headerLayouts)
	if !ok {
		return 0, false
	}
	return t.Year(), true
}

// decodePricePair combines the row year with a date fragment such as "10/02"
// and parses the price next to it.
func decodePricePair(year int, fragment, price any) RecordResult[timeseries.Point] {
	frag, ok := fragment.(string)
	if !ok || strings.TrimSpace(frag) == "" {
		return Skip[timeseries.Point]("date fragment %v is not text", fragment)
	}
	text, ok := price.(string)
	if !ok || strings.TrimSpace(text) == "" {
		return Skip[timeseries.Point]("price %v is not text", price)
	}

	full := strconv.Itoa(year) + "-" + strings.ReplaceAll(strings.TrimSpace(frag), "/", "-")
	date, ok := parseFirst(full, pairLayouts)
	if !ok {
		return Skip[timeseries.Point]("invalid date %q", full)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return Skip[timeseries.Point]("invalid price %q at %s", text, full)
	}
	return Success(timeseries.Point{Date: date, Value: value})
}

func parseFirst(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
