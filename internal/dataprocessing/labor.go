package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"macrocli/internal/config"
	"macrocli/internal/timeseries"
)

var laborMeasures = []measure{
	{Column: "Unemp_Total", File: config.UnemploymentTotalRawFile},
	{Column: "Unemp_Men", File: config.UnemploymentMenRawFile},
	{Column: "Unemp_Women", File: config.UnemploymentWomenRawFile},
}

var monthColumns = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// MatrixMelter reads the BLS unemployment downloads, one Year row by month
// column matrix per measure, and melts each into a monthly series.
type MatrixMelter struct {
	opts     Options
	measures []measure
}

// NewMatrixMelter creates a melter over the total, men and women rate files.
func NewMatrixMelter(opts Options) *MatrixMelter {
	return &MatrixMelter{opts: opts, measures: laborMeasures}
}

// Source implements Parser.
func (p *MatrixMelter) Source() Source { return SourceLabor }

// Parse implements Parser.
func (p *MatrixMelter) Parse(ctx context.Context) (*timeseries.Table, *SourceReport, error) {
	report := newSourceReport(SourceLabor, p.opts.logger())

	var tables []*timeseries.Table
	for _, m := range p.measures {
		if err := ctx.Err(); err != nil {
			return timeseries.NewTable(), report, err
		}

		path := filepath.Join(p.opts.RawDir, m.File)
		report.Files = append(report.Files, path)

		table, err := p.melt(path, m.Column, report)
		if err != nil {
			report.fail(err)
			continue
		}
		tables = append(tables, table)
	}

	joined, err := timeseries.OuterJoin(tables...)
	if err != nil {
		return timeseries.NewTable(), report, err
	}
	return finish(joined.Restrict(p.opts.Window), report)
}

// yearRow is one melted matrix row.
type yearRow struct {
	Year   int
	Values map[time.Month]float64
}

func (p *MatrixMelter) melt(path, column string, report *SourceReport) (*timeseries.Table, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: no header row", ErrMalformedPayload, path)
	}

	header := make([]string, len(records[0]))
	yearIdx := -1
	for i, cell := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
		if header[i] == "Year" && yearIdx < 0 {
			yearIdx = i
		}
	}
	if yearIdx < 0 {
		return nil, fmt.Errorf("%w: %s: missing Year column", ErrMalformedPayload, path)
	}

	table := timeseries.NewTable()
	for _, record := range records[1:] {
		row, ok := accept(report, meltRow(header, yearIdx, record))
		if !ok {
			continue
		}
		for month, value := range row.Values {
			table.Set(timeseries.Month(row.Year, month), column, value)
		}
	}
	return table, nil
}

// meltRow reads the Year cell and every month column of a record. Missing or
// non-numeric month cells become NaN; other columns are ignored.
func meltRow(header []string, yearIdx int, record []string) RecordResult[yearRow] {
	if yearIdx >= len(record) {
		return Skip[yearRow]("row has no Year cell")
	}
	year, err := strconv.Atoi(strings.TrimSpace(record[yearIdx]))
	if err != nil {
		return Skip[yearRow]("invalid Year %q", record[yearIdx])
	}

	row := yearRow{Year: year, Values: make(map[time.Month]float64, 12)}
	for i, name := range header {
		month, ok := monthColumns[name]
		if !ok {
			continue
		}
		value := math.NaN()
		if i < len(record) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64); err == nil {
				value = v
			}
		}
		row.Values[month] = value
	}
	return Success(row)
}
