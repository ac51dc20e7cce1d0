package dataprocessing

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrocli/internal/config"
	"macrocli/internal/timeseries"
)

func seriesTable(name string, start time.Time, values ...float64) *timeseries.Table {
	tbl := timeseries.NewTable()
	m := start
	for _, v := range values {
		tbl.Set(m, name, v)
		m = timeseries.NextMonth(m)
	}
	return tbl
}

func TestAligner_DisjointTables(t *testing.T) {
	opts := testOptions(t)
	a := seriesTable("A", month(2016, time.January), 1, 2, 3)
	b := seriesTable("B", month(2016, time.June), 10, 20)
	c := seriesTable("C", month(2017, time.January), 100)

	final, err := NewAligner(opts.Window, opts.Logger).Align(a, b, c)
	require.NoError(t, err)

	assert.Equal(t, 6, final.Len())
	assert.Equal(t, []string{"A", "B", "C"}, final.Columns())
	assertValues(t, []float64{1, 2, 3, 3, 3, 3}, column(t, final, "A"))
	assertValues(t, []float64{10, 10, 10, 10, 20, 20}, column(t, final, "B"))
	assertValues(t, []float64{100, 100, 100, 100, 100, 100}, column(t, final, "C"))
}

func TestAligner_RestrictsBeforeInterpolating(t *testing.T) {
	opts := testOptions(t)
	a := seriesTable("A", month(2015, time.November), 0, nan, nan, 9, nan, 15)

	final, err := NewAligner(opts.Window, opts.Logger).Align(a)
	require.NoError(t, err)

	assert.Equal(t, month(2016, time.January), final.Months()[0])
	assertValues(t, []float64{9, 9, 12, 15}, column(t, final, "A"))
}

func TestAligner_NoMissingCellsInObservedColumns(t *testing.T) {
	opts := testOptions(t)
	a := seriesTable("A", month(2016, time.January), nan, 1, nan, nan, 4, nan)
	b := seriesTable("B", month(2016, time.March), nan, nan)

	final, err := NewAligner(opts.Window, opts.Logger).Align(a, b)
	require.NoError(t, err)

	for _, v := range column(t, final, "A") {
		assert.False(t, math.IsNaN(v))
	}
	for _, v := range column(t, final, "B") {
		assert.True(t, math.IsNaN(v), "a column without observations stays missing")
	}
}

func TestAligner_OrderIndependent(t *testing.T) {
	opts := testOptions(t)
	a := seriesTable("A", month(2016, time.January), 1, nan, 3)
	b := seriesTable("B", month(2016, time.February), 5, nan, 7)
	aligner := NewAligner(opts.Window, opts.Logger)

	ab, err := aligner.Align(a, b)
	require.NoError(t, err)
	ba, err := aligner.Align(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab.Months(), ba.Months())
	assert.ElementsMatch(t, ab.Columns(), ba.Columns())
	for _, c := range ab.Columns() {
		assertValues(t, column(t, ab, c), column(t, ba, c))
	}
}

func TestAligner_AllEmpty(t *testing.T) {
	opts := testOptions(t)
	final, err := NewAligner(opts.Window, opts.Logger).Align(nil, timeseries.NewTable())
	assert.ErrorIs(t, err, ErrMergeFailure)
	assert.Nil(t, final)

	_, err = NewAligner(opts.Window, opts.Logger).Align()
	assert.ErrorIs(t, err, ErrMergeFailure)
}

func TestAligner_DuplicateColumn(t *testing.T) {
	opts := testOptions(t)
	_, err := NewAligner(opts.Window, opts.Logger).Align(
		seriesTable("A", month(2016, time.January), 1),
		seriesTable("A", month(2016, time.February), 2),
	)
	assert.ErrorIs(t, err, timeseries.ErrDuplicateColumn)
}

func TestAligner_AlignSourcesCanonicalOrder(t *testing.T) {
	opts := testOptions(t)
	final, err := NewAligner(opts.Window, opts.Logger).AlignSources(map[Source]*timeseries.Table{
		SourceNews:  seriesTable("News_Total_Counting", month(2016, time.January), 3),
		SourceCPI:   seriesTable("CPI_Total", month(2016, time.January), 240),
		SourceLabor: timeseries.NewTable(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CPI_Total", "News_Total_Counting"}, final.Columns())
}

func TestPipeline_ParsersThenAligner(t *testing.T) {
	opts := testOptions(t)
	writeRaw(t, opts.RawDir, config.GasolineRawFile, `[["2016-Jan", "01/04", "2.0"], ["2016-Mar", "03/07", "2.4"]]`)
	writeRaw(t, opts.RawDir, config.UnemploymentTotalRawFile, "Year,Jan,Feb,Mar\n2016,4.9,5.0,5.1\n")

	tables := make(map[Source]*timeseries.Table)
	for _, source := range Sources() {
		parser, err := NewParser(source, opts)
		require.NoError(t, err)
		assert.Equal(t, source, parser.Source())

		table, _, err := parser.Parse(context.Background())
		if source == SourceCPI || source == SourceNews {
			assert.ErrorIs(t, err, ErrSourceAbsent)
		} else {
			assert.NoError(t, err)
		}
		tables[source] = table
	}

	final, err := NewAligner(opts.Window, opts.Logger).AlignSources(tables)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gas_Price", "Unemp_Total"}, final.Columns())
	assertValues(t, []float64{2.0, 2.2, 2.4}, column(t, final, "Gas_Price"))
	assertValues(t, []float64{4.9, 5.0, 5.1}, column(t, final, "Unemp_Total"))
}

func TestParseSource(t *testing.T) {
	s, err := ParseSource("energy")
	require.NoError(t, err)
	assert.Equal(t, SourceEnergy, s)
	assert.Equal(t, config.CleanEnergyFile, s.OutputFile())

	_, err = ParseSource("weather")
	assert.Error(t, err)
}
