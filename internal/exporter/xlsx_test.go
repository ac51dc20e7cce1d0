package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"macrocli/internal/config"
	"macrocli/internal/files"
)

func TestWorkbookWriter(t *testing.T) {
	dir := t.TempDir()
	writer := NewWorkbookWriter(files.NewManager(&config.Paths{ProcessedDir: dir}, nil), nil)

	summary := Sheet{
		Name:   "Summary",
		Header: []string{"column", "mean"},
		Rows:   [][]any{{"CPI_Total", 237.0135}, {"Gas_Price", 2.0}},
	}
	require.NoError(t, writer.WriteWorkbook(config.FinalWorkbookFile, sampleTable(), summary))

	f, err := excelize.OpenFile(filepath.Join(dir, config.FinalWorkbookFile))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DatasetSheet, "Summary"}, f.GetSheetList())

	rows, err := f.GetRows(DatasetSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "CPI_Total", "Gas_Price", "CPI_Total_YoY"}, rows[0])
	assert.Equal(t, "2016-01-01", rows[1][0])
	assert.Equal(t, "236.916", rows[1][1])

	blank, err := f.GetCellValue(DatasetSheet, "C3")
	require.NoError(t, err)
	assert.Empty(t, blank, "missing values stay blank")

	summaryRows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summaryRows, 3)
	assert.Equal(t, "Gas_Price", summaryRows[2][0])
}
