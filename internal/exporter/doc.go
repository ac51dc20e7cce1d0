// Package exporter writes and reads the processed monthly tables.
//
// CSVWriter persists a timeseries.Table as CSV with a leading date column,
// replacing the target file atomically. StreamWriter encodes rows onto any
// io.Writer, which the HTTP API uses for downloads. ReadTable loads a
// processed CSV back into a table. WorkbookWriter renders a table and extra
// sheets into an Excel workbook.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(paths, logger)
//	err := writer.WriteTable(config.FinalDatasetFile, table)
//
//	table, err := exporter.ReadTable(paths.FinalDataset)
package exporter
