package dataprocessing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"macrocli/internal/config"
	"macrocli/internal/timeseries"
)

// YoYSuffix is appended to a CPI metric to name its year over year column.
const YoYSuffix = "_YoY"

// cpiSeriesNames maps BLS series ids to metric columns. Other ids keep their id.
var cpiSeriesNames = map[string]string{
	"CUUR0000SA0":  "CPI_Total",
	"CUUR0000SAF1": "CPI_Food",
	"CUUR0000SA0E": "CPI_Energy",
	"CUUR0000SAH1": "CPI_Shelter",
}

type blsPayload struct {
	Results *struct {
		Series []blsSeries `json:"series"`
	} `json:"Results"`
}

type blsSeries struct {
	SeriesID string     `json:"seriesID"`
	Data     []blsPoint `json:"data"`
}

type blsPoint struct {
	Year   scalar `json:"year"`
	Period scalar `json:"period"`
	Value  scalar `json:"value"`
}

// scalar accepts a JSON string or number and keeps its text.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = scalar(str)
		return nil
	}
	*s = scalar(data)
	return nil
}

// observation is one metric value at one month.
type observation struct {
	Column string
	Month  time.Time
	Value  float64
}

// SeriesParser reads the BLS CPI API response and emits one column per
// metric plus its year over year percentage change.
type SeriesParser struct {
	opts Options
	path string
}

// NewSeriesParser creates a parser reading the CPI file from the raw directory.
func NewSeriesParser(opts Options) *SeriesParser {
	return &SeriesParser{opts: opts, path: filepath.Join(opts.RawDir, config.CPIRawFile)}
}

// Source implements Parser.
func (p *SeriesParser) Source() Source { return SourceCPI }

// Parse implements Parser.
func (p *SeriesParser) Parse(ctx context.Context) (*timeseries.Table, *SourceReport, error) {
	report := newSourceReport(SourceCPI, p.opts.logger())
	report.Files = []string{p.path}

	if err := ctx.Err(); err != nil {
		return timeseries.NewTable(), report, err
	}

	data, err := readSource(p.path)
	if err != nil {
		report.fail(err)
		return finish(nil, report)
	}

	var payload blsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		report.fail(fmt.Errorf("%w: %s: %v", ErrMalformedPayload, p.path, err))
		return finish(nil, report)
	}
	if payload.Results == nil || payload.Results.Series == nil {
		report.fail(fmt.Errorf("%w: %s: missing Results.series", ErrMalformedPayload, p.path))
		return finish(nil, report)
	}

	levels := timeseries.NewTable()
	for _, series := range payload.Results.Series {
		column := cpiColumn(series.SeriesID)
		for _, point := range series.Data {
			if obs, ok := accept(report, decodeCPIPoint(column, point)); ok {
				levels.Set(obs.Month, obs.Column, obs.Value)
			}
		}
	}

	table, err := withYoY(levels)
	if err != nil {
		return timeseries.NewTable(), report, err
	}
	return finish(table, report)
}

func cpiColumn(seriesID string) string {
	if name, ok := cpiSeriesNames[seriesID]; ok {
		return name
	}
	return seriesID
}

// decodeCPIPoint keeps monthly periods M01..M12 with a numeric year and value.
func decodeCPIPoint(column string, p blsPoint) RecordResult[observation] {
	period := strings.TrimSpace(string(p.Period))
	if len(period) != 3 || period[0] != 'M' {
		return Skip[observation]("%s: period %q is not monthly", column, period)
	}
	month, err := strconv.Atoi(period[1:])
	if err != nil || month < 1 || month > 12 {
		return Skip[observation]("%s: period %q is not monthly", column, period)
	}

	year, err := strconv.Atoi(strings.TrimSpace(string(p.Year)))
	if err != nil {
		return Skip[observation]("%s: invalid year %q", column, p.Year)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(string(p.Value)), 64)
	if err != nil {
		return Skip[observation]("%s: invalid value %q for %d-%s", column, p.Value, year, period)
	}

	return Success(observation{
		Column: column,
		Month:  timeseries.Month(year, time.Month(month)),
		Value:  value,
	})
}

// withYoY orders the metric columns by name and appends a <metric>_YoY column
// holding the change against the row twelve positions earlier.
func withYoY(levels *timeseries.Table) (*timeseries.Table, error) {
	metrics := levels.Columns()
	sort.Strings(metrics)

	out := levels.Select(metrics...)
	for _, metric := range metrics {
		values, _ := out.Column(metric)
		if err := out.AddColumn(metric+YoYSuffix, timeseries.PctChange(values, 12)); err != nil {
			return nil, fmt.Errorf("failed to add year over year column: %w", err)
		}
	}

	return out, nil
}
