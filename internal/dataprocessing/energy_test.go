package dataprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrocli/internal/config"
)

func TestScrapedTableParser_MonthlyMean(t *testing.T) {
	opts := testOptions(t)
	writeRaw(t, opts.RawDir, config.GasolineRawFile,
		`[["2023-Oct", "10/02", "3.801", "10/09", "3.750"]]`)

	table, report, err := NewScrapedTableParser(opts).Parse(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Gas_Price"}, table.Columns())
	v, ok := table.Value(month(2023, time.October), "Gas_Price")
	assert.True(t, ok)
	assert.InDelta(t, 3.7755, v, 1e-9)

	assert.Equal(t, 2, report.Parsed)
	assert.Len(t, report.Issues, 2, "diesel and crude are absent")
}

func TestScrapedTableParser_NonDateHeaderContributesNothing(t *testing.T) {
	opts := testOptions(t)
	writeRaw(t, opts.RawDir, config.GasolineRawFile, `[
		["Weekly U.S. Regular Gasoline", "10/02", "9.99"],
		[2023, "10/02", "9.99"],
		["2023-Oct", "10/16", "3.5"]
	]`)

	table, report, err := NewScrapedTableParser(opts).Parse(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, table.Len())
	assertValues(t, []float64{3.5}, column(t, table, "Gas_Price"))
	assert.Equal(t, 1, report.Parsed)
	assert.Equal(t, 0, report.Skipped)
}

func TestScrapedTableParser_PairHandling(t *testing.T) {
	opts := testOptions(t)
	writeRaw(t, opts.RawDir, config.DieselRawFile, `[
		["2020 Jan", "01/06", "3.0", "01/13", 3.5, "", "4.0", "01/20", " ", "01/27", "abc", "02/31", "1.0", "01/27"],
		["Mar-2020", "03/02", "5.0"],
		[],
		"not a row"
	]`)

	table, report, err := NewScrapedTableParser(opts).Parse(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		month(2020, time.January), month(2020, time.February), month(2020, time.March),
	}, table.Months())
	assertValues(t, []float64{3.0, nan, 5.0}, column(t, table, "Diesel_Price"))

	assert.Equal(t, 2, report.Parsed)
	assert.Equal(t, 5, report.Skipped)
}

func TestScrapedTableParser_JoinsMeasuresAndRestrictsWindow(t *testing.T) {
	opts := testOptions(t)
	writeRaw(t, opts.RawDir, config.GasolineRawFile, `[
		["2015-Dec", "12/28", "2.0"],
		["2016-Jan", "01/04", "2.1"]
	]`)
	writeRaw(t, opts.RawDir, config.CrudeRawFile, `[["2016-Feb", "02/01", "30.0"]]`)
	writeRaw(t, opts.RawDir, config.DieselRawFile, `{"not": "a table"}`)

	table, report, err := NewScrapedTableParser(opts).Parse(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Gas_Price", "Oil_Price"}, table.Columns())
	assert.Equal(t, []time.Time{month(2016, time.January), month(2016, time.February)}, table.Months())
	assertValues(t, []float64{2.1, nan}, column(t, table, "Gas_Price"))
	assertValues(t, []float64{nan, 30}, column(t, table, "Oil_Price"))

	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], ErrMalformedPayload.Error())
}

func TestScrapedTableParser_AllAbsent(t *testing.T) {
	table, report, err := NewScrapedTableParser(testOptions(t)).Parse(context.Background())
	assert.ErrorIs(t, err, ErrSourceAbsent)
	assert.True(t, table.IsEmpty())
	assert.Len(t, report.Files, 3)
}

func TestScrapedTableParser_EmptyMeasureDropped(t *testing.T) {
	opts := testOptions(t)
	writeRaw(t, opts.RawDir, config.GasolineRawFile, `[["header", "01/01", "1"]]`)
	writeRaw(t, opts.RawDir, config.CrudeRawFile, `[["2019-May", "05/06", "61.9"]]`)

	table, _, err := NewScrapedTableParser(opts).Parse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Oil_Price"}, table.Columns())
}

func TestRowYear(t *testing.T) {
	tests := []struct {
		header any
		year   int
		ok     bool
	}{
		{"Oct-2023", 2023, true},
		{"2023-Oct", 2023, true},
		{"2019 Jan", 2019, true},
		{"2021-07", 2021, true},
		{"2021-07-05", 2021, true},
		{"07/05/2021", 2021, true},
		{"2018", 2018, true},
		{"Week of", 0, false},
		{"", 0, false},
		{2023.0, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		year, ok := rowYear(tt.header)
		assert.Equalf(t, tt.ok, ok, "%v", tt.header)
		assert.Equalf(t, tt.year, year, "%v", tt.header)
	}
}
