package timeseries

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"
)

// ErrDuplicateColumn is returned when two joined tables carry the same column.
var ErrDuplicateColumn = errors.New("duplicate column")

// Table is a month-indexed set of named float64 columns.
// The month index is unique and strictly increasing. Every column has one
// value per month; math.NaN() marks a missing cell.
type Table struct {
	months  []time.Time
	columns []string
	data    map[string][]float64
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{data: make(map[string][]float64)}
}

// Len returns the number of months in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.months)
}

// IsEmpty reports whether the table has no rows or no columns.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.months) == 0 || len(t.columns) == 0
}

// Months returns a copy of the month index.
func (t *Table) Months() []time.Time {
	if t == nil {
		return nil
	}
	return slices.Clone(t.months)
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.columns)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.data[name]
	return ok
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	values, ok := t.data[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(values), true
}

// Value returns the cell at month and column. Missing rows or columns yield NaN, false.
func (t *Table) Value(month time.Time, column string) (float64, bool) {
	if t == nil {
		return math.NaN(), false
	}
	i, found := t.find(MonthStart(month))
	values, ok := t.data[column]
	if !found || !ok {
		return math.NaN(), false
	}
	return values[i], !math.IsNaN(values[i])
}

// Set writes a value, adding the month row and the column when they are new.
func (t *Table) Set(month time.Time, column string, value float64) {
	i := t.ensureMonth(MonthStart(month))
	t.ensureColumn(column)
	t.data[column][i] = value
}

// AddColumn appends a column aligned with the current month index.
func (t *Table) AddColumn(name string, values []float64) error {
	if len(values) != len(t.months) {
		return fmt.Errorf("column %s has %d values, table has %d months", name, len(values), len(t.months))
	}
	if _, exists := t.data[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
	}
	t.columns = append(t.columns, name)
	t.data[name] = slices.Clone(values)
	return nil
}

// Row returns the values of row i keyed by column name.
func (t *Table) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(t.columns))
	for _, c := range t.columns {
		row[c] = t.data[c][i]
	}
	return row
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := NewTable()
	if t == nil {
		return out
	}
	out.months = slices.Clone(t.months)
	out.columns = slices.Clone(t.columns)
	for c, values := range t.data {
		out.data[c] = slices.Clone(values)
	}
	return out
}

// Select returns a table with only the named columns that exist, in the given order.
func (t *Table) Select(columns ...string) *Table {
	out := NewTable()
	out.months = slices.Clone(t.months)
	for _, c := range columns {
		if values, ok := t.data[c]; ok && !slices.Contains(out.columns, c) {
			out.columns = append(out.columns, c)
			out.data[c] = slices.Clone(values)
		}
	}
	return out
}

// Restrict keeps only the months inside w.
func (t *Table) Restrict(w Window) *Table {
	out := NewTable()
	if t == nil {
		return out
	}
	out.columns = slices.Clone(t.columns)
	for _, c := range t.columns {
		out.data[c] = []float64{}
	}
	for i, m := range t.months {
		if !w.Contains(m) {
			continue
		}
		out.months = append(out.months, m)
		for _, c := range t.columns {
			out.data[c] = append(out.data[c], t.data[c][i])
		}
	}
	return out
}

// DropEmptyColumns removes columns whose every cell is missing.
func (t *Table) DropEmptyColumns() *Table {
	keep := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if slices.ContainsFunc(t.data[c], func(v float64) bool { return !math.IsNaN(v) }) {
			keep = append(keep, c)
		}
	}
	return t.Select(keep...)
}

func (t *Table) find(month time.Time) (int, bool) {
	i := sort.Search(len(t.months), func(i int) bool { return !t.months[i].Before(month) })
	return i, i < len(t.months) && t.months[i].Equal(month)
}

func (t *Table) ensureMonth(month time.Time) int {
	i, found := t.find(month)
	if found {
		return i
	}
	t.months = slices.Insert(t.months, i, month)
	for _, c := range t.columns {
		t.data[c] = slices.Insert(t.data[c], i, math.NaN())
	}
	return i
}

func (t *Table) ensureColumn(name string) {
	if _, ok := t.data[name]; ok {
		return
	}
	values := make([]float64, len(t.months))
	for i := range values {
		values[i] = math.NaN()
	}
	t.columns = append(t.columns, name)
	t.data[name] = values
}
