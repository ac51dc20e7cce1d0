package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"macrocli/internal/config"
	"macrocli/internal/files"
	"macrocli/internal/timeseries"
)

// CSVWriter persists tables into the processed directory
type CSVWriter struct {
	paths   *config.Paths
	manager *files.Manager
	logger  *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, manager: files.NewManager(paths, logger), logger: logger}
}

// WriteOptions configures CSV encoding
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteTable writes t to name, relative to the processed directory unless absolute.
// The previous file is replaced only when the whole table was written.
func (w *CSVWriter) WriteTable(name string, t *timeseries.Table) error {
	return w.WriteTableWithOptions(name, t, WriteOptions{})
}

// WriteTableWithOptions writes t to name with the given options
func (w *CSVWriter) WriteTableWithOptions(name string, t *timeseries.Table, options WriteOptions) error {
	err := w.manager.WriteAtomic(name, func(out io.Writer) error {
		return EncodeTable(out, t, options)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	w.logger.Info("table_written",
		slog.String("file", name),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.Columns())))
	return nil
}

// EncodeTable writes the header and every row of t to out
func EncodeTable(out io.Writer, t *timeseries.Table, options WriteOptions) error {
	sw, err := NewStreamWriter(out, t.Columns(), options)
	if err != nil {
		return err
	}
	months := t.Months()
	for i, m := range months {
		if err := sw.WriteRow(m, t.Row(i)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return sw.Close()
}

// StreamWriter encodes table rows one at a time
type StreamWriter struct {
	writer  *csv.Writer
	columns []string
	record  []string
}

// NewStreamWriter writes the header row and returns a writer for the rows
func NewStreamWriter(out io.Writer, columns []string, options WriteOptions) (*StreamWriter, error) {
	if options.BOMPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	header := append([]string{DateColumn}, columns...)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	return &StreamWriter{
		writer:  writer,
		columns: columns,
		record:  make([]string, len(header)),
	}, nil
}

// WriteRow writes one month; columns absent from row are written empty
func (s *StreamWriter) WriteRow(month time.Time, row map[string]float64) error {
	s.record[0] = formatDate(month)
	for i, c := range s.columns {
		v, ok := row[c]
		if !ok {
			s.record[i+1] = ""
			continue
		}
		s.record[i+1] = formatValue(v)
	}
	return s.writer.Write(s.record)
}

// Close flushes buffered rows
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	return s.writer.Error()
}
