package timeseries

import (
	"fmt"
	"math"
)

// OuterJoin merges tables on the month index. The result holds every month seen by
// any input; each column is populated only where its own table had a row.
//
// Columns keep the order in which they first appear across the inputs. The column
// set and every cell value are the same whatever the input order, because a column
// name may belong to one input only; a repeated name returns ErrDuplicateColumn.
// Nil and empty tables are ignored.
func OuterJoin(tables ...*Table) (*Table, error) {
	out := NewTable()
	owner := make(map[string]int)

	for ti, t := range tables {
		if t.IsEmpty() {
			continue
		}
		for _, c := range t.columns {
			if prev, dup := owner[c]; dup {
				return nil, fmt.Errorf("%w: %s in tables %d and %d", ErrDuplicateColumn, c, prev, ti)
			}
			owner[c] = ti
		}
		for _, m := range t.months {
			out.ensureMonth(m)
		}
	}

	for ti, t := range tables {
		if t.IsEmpty() {
			continue
		}
		for _, c := range t.columns {
			if owner[c] != ti {
				continue
			}
			out.ensureColumn(c)
			dst := out.data[c]
			for i, m := range t.months {
				j, _ := out.find(m)
				dst[j] = t.data[c][i]
			}
		}
	}
	return out, nil
}

// Interpolate fills missing cells of every column by linear interpolation over row
// positions. Gaps before the first or after the last observation take the nearest
// observed value. A column with no observation at all is left untouched.
// Interpolating an already complete table returns an identical table.
func Interpolate(t *Table) *Table {
	out := t.Clone()
	for _, c := range out.columns {
		fillLinear(out.data[c])
	}
	return out
}

func fillLinear(values []float64) {
	prev := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		switch {
		case prev == -1:
			for j := 0; j < i; j++ {
				values[j] = v
			}
		case i-prev > 1:
			step := (v - values[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				values[j] = values[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
	if prev == -1 {
		return
	}
	for j := prev + 1; j < len(values); j++ {
		values[j] = values[prev]
	}
}
