package dataprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrocli/internal/config"
)

const laborHeader = " Year ,Jan,Feb,Mar,Apr,May,Jun,Jul,Aug,Sep,Oct,Nov,Dec, HALF1 ,Annual\n"

func TestMatrixMelter_MeltsMonthColumnsOnly(t *testing.T) {
	opts := testOptions(t)
	writeRaw(t, opts.RawDir, config.UnemploymentTotalRawFile, laborHeader+
		"2016,4.9,4.9,5.0,5.1,4.8,4.9,4.8,4.9,5.0,4.9,4.7,4.7,999,888\n"+
		"2017,4.7,4.6,-,4.4,4.4,4.3,4.3,4.4,4.3,4.2,4.2,4.1,999,888\n")

	table, report, err := NewMatrixMelter(opts).Parse(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Unemp_Total"}, table.Columns())
	assert.Equal(t, 24, table.Len())
	assert.Equal(t, month(2016, time.January), table.Months()[0])
	assert.Equal(t, month(2017, time.December), table.Months()[23])

	values := column(t, table, "Unemp_Total")
	for i, v := range values {
		assert.NotEqual(t, 999.0, v, "row %d", i)
		assert.NotEqual(t, 888.0, v, "row %d", i)
	}
	assertValues(t, []float64{4.7, 4.6, nan, 4.4}, values[12:16])

	assert.Equal(t, 2, report.Parsed)
}

func TestMatrixMelter_SkipsBadYearRows(t *testing.T) {
	opts := testOptions(t)
	writeRaw(t, opts.RawDir, config.UnemploymentWomenRawFile,
		"Year,Jan,Feb\n"+
			"2019,3.9,3.8\n"+
			"P : preliminary,,\n"+
			"2019.5,1,1\n"+
			"2020,3.6\n")

	table, report, err := NewMatrixMelter(opts).Parse(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		month(2019, time.January), month(2019, time.February),
		month(2020, time.January), month(2020, time.February),
	}, table.Months())
	assertValues(t, []float64{3.9, 3.8, 3.6, nan}, column(t, table, "Unemp_Women"))
	assert.Equal(t, 2, report.Parsed)
	assert.Equal(t, 2, report.Skipped)
}

func TestMatrixMelter_JoinsAndRestricts(t *testing.T) {
	opts := testOptions(t)
	writeRaw(t, opts.RawDir, config.UnemploymentTotalRawFile, "Year,Jan\n2015,5.7\n2016,4.9\n")
	writeRaw(t, opts.RawDir, config.UnemploymentWomenRawFile, "Year,Jan\n2016,4.8\n")
	writeRaw(t, opts.RawDir, config.UnemploymentMenRawFile, "Jahr,Jan\n2016,5.0\n")

	table, report, err := NewMatrixMelter(opts).Parse(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Unemp_Total", "Unemp_Women"}, table.Columns())
	assert.Equal(t, []time.Time{month(2016, time.January)}, table.Months())
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "missing Year column")
}

func TestMatrixMelter_AllAbsent(t *testing.T) {
	table, report, err := NewMatrixMelter(testOptions(t)).Parse(context.Background())
	assert.ErrorIs(t, err, ErrSourceAbsent)
	assert.True(t, table.IsEmpty())
	assert.Len(t, report.Issues, 3)
}

func TestMeltRow(t *testing.T) {
	header := []string{"Year", "Jan", "Note", "Feb"}

	row, ok := meltRow(header, 0, []string{"2018", "4.1", "x", " 4.0 "}).Get()
	require.True(t, ok)
	assert.Equal(t, 2018, row.Year)
	assert.Len(t, row.Values, 2)
	assert.Equal(t, 4.1, row.Values[time.January])
	assert.Equal(t, 4.0, row.Values[time.February])

	res := meltRow(header, 0, []string{"abc"})
	_, ok = res.Get()
	assert.False(t, ok)
	assert.Contains(t, res.Reason(), "invalid Year")
}
