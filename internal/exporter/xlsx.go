package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/xuri/excelize/v2"

	"macrocli/internal/files"
	"macrocli/internal/timeseries"
)

// DatasetSheet is the name of the sheet holding the table rows.
const DatasetSheet = "Dataset"

// Sheet is an extra worksheet appended after the dataset.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// WorkbookWriter renders tables into Excel workbooks
type WorkbookWriter struct {
	manager *files.Manager
	logger  *slog.Logger
}

// NewWorkbookWriter creates a workbook writer resolving relative names with manager
func NewWorkbookWriter(manager *files.Manager, logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{manager: manager, logger: logger}
}

// WriteWorkbook writes t to the Dataset sheet followed by the extra sheets
func (w *WorkbookWriter) WriteWorkbook(name string, t *timeseries.Table, extra ...Sheet) error {
	err := w.manager.WriteAtomic(name, func(out io.Writer) error {
		return EncodeWorkbook(out, t, extra...)
	})
	if err != nil {
		return fmt.Errorf("failed to write workbook %s: %w", name, err)
	}

	w.logger.Info("workbook_written",
		slog.String("file", name),
		slog.Int("rows", t.Len()),
		slog.Int("sheets", 1+len(extra)))
	return nil
}

// EncodeWorkbook builds the workbook in memory and writes it to out
func EncodeWorkbook(out io.Writer, t *timeseries.Table, extra ...Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DatasetSheet); err != nil {
		return fmt.Errorf("failed to name dataset sheet: %w", err)
	}

	columns := t.Columns()
	header := make([]any, 0, len(columns)+1)
	header = append(header, DateColumn)
	for _, c := range columns {
		header = append(header, c)
	}
	if err := setRow(f, DatasetSheet, 1, header); err != nil {
		return err
	}

	for i, m := range t.Months() {
		row := t.Row(i)
		cells := make([]any, 0, len(columns)+1)
		cells = append(cells, formatDate(m))
		for _, c := range columns {
			cells = append(cells, cellValue(row[c]))
		}
		if err := setRow(f, DatasetSheet, i+2, cells); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(DatasetSheet, "A", "A", 12); err != nil {
		return fmt.Errorf("failed to size date column: %w", err)
	}

	for _, sheet := range extra {
		if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet.Name, err)
		}
		headerCells := make([]any, len(sheet.Header))
		for i, h := range sheet.Header {
			headerCells[i] = h
		}
		if err := setRow(f, sheet.Name, 1, headerCells); err != nil {
			return err
		}
		for i, r := range sheet.Rows {
			cells := make([]any, len(r))
			for j, v := range r {
				if fv, ok := v.(float64); ok {
					v = cellValue(fv)
				}
				cells[j] = v
			}
			if err := setRow(f, sheet.Name, i+2, cells); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to encode workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// cellValue leaves missing and non-finite values as blank cells
func cellValue(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
