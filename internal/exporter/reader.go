package exporter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"macrocli/internal/timeseries"
)

// ReadTable loads a processed CSV file
func ReadTable(path string) (*timeseries.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := DecodeTable(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return t, nil
}

// DecodeTable parses CSV with a leading date column into a table.
// Empty cells are missing values. Rows are sorted by month regardless of input order.
func DecodeTable(in io.Reader) (*timeseries.Table, error) {
	br := bufio.NewReader(in)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	header, err := reader.Read()
	if err == io.EOF {
		return timeseries.NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) == 0 || strings.TrimSpace(header[0]) != DateColumn {
		return nil, fmt.Errorf("first column must be %q", DateColumn)
	}
	columns := header[1:]

	t := timeseries.NewTable()
	for _, c := range columns {
		if t.HasColumn(c) {
			return nil, fmt.Errorf("%w: %s", timeseries.ErrDuplicateColumn, c)
		}
		if err := t.AddColumn(c, nil); err != nil {
			return nil, err
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		month, err := timeseries.ParseMonth(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for i, c := range columns {
			t.Set(month, c, parseValue(record[i+1]))
		}
	}
	return t, nil
}
