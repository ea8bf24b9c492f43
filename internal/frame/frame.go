// Package frame provides the in-memory table model shared by every pipeline
// stage: an ordered set of named columns plus positional rows.
//
// Ownership contract:
//   - Input frames are treated as immutable snapshots. Transformations return
//     a derived frame and never write through to their input.
//   - A nil cell means "missing". Parsers map empty fields to nil so that
//     null accounting is uniform across sources.
package frame

import "fmt"

// Frame is a positional table: Rows[i][j] is the value of Columns[j] in row i.
type Frame struct {
	Columns []string
	Rows    [][]any

	colIdx map[string]int
}

// New returns an empty frame with the given column order.
func New(columns []string) *Frame {
	f := &Frame{Columns: append([]string(nil), columns...)}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.colIdx = make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		f.colIdx[c] = i
	}
}

// ColumnIndex returns the position of a column, or -1 if absent.
func (f *Frame) ColumnIndex(name string) int {
	if f.colIdx == nil {
		f.reindex()
	}
	if i, ok := f.colIdx[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the frame carries the named column.
func (f *Frame) HasColumn(name string) bool { return f.ColumnIndex(name) >= 0 }

// RowCount returns the number of rows.
func (f *Frame) RowCount() int { return len(f.Rows) }

// AppendRow adds a row. The row length must match the column count.
func (f *Frame) AppendRow(row []any) error {
	if len(row) != len(f.Columns) {
		return fmt.Errorf("frame: row has %d values, frame has %d columns", len(row), len(f.Columns))
	}
	f.Rows = append(f.Rows, row)
	return nil
}

// Clone returns a deep copy: new row slices, new column slice.
// Cell values themselves are shared (they are never mutated in place).
func (f *Frame) Clone() *Frame {
	out := New(f.Columns)
	out.Rows = make([][]any, len(f.Rows))
	for i, r := range f.Rows {
		out.Rows[i] = append([]any(nil), r...)
	}
	return out
}

// DropColumns returns a derived frame without the named columns.
// Unknown names are ignored.
func (f *Frame) DropColumns(names ...string) *Frame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	keep := make([]int, 0, len(f.Columns))
	cols := make([]string, 0, len(f.Columns))
	for i, c := range f.Columns {
		if drop[c] {
			continue
		}
		keep = append(keep, i)
		cols = append(cols, c)
	}

	out := New(cols)
	out.Rows = make([][]any, len(f.Rows))
	for i, r := range f.Rows {
		nr := make([]any, len(keep))
		for j, src := range keep {
			nr[j] = r[src]
		}
		out.Rows[i] = nr
	}
	return out
}

// NullFraction returns the fraction of nil cells in the column at index ci.
// An empty frame reports 0 (a column with no rows carries no evidence of
// being empty).
func (f *Frame) NullFraction(ci int) float64 {
	if len(f.Rows) == 0 {
		return 0
	}
	nulls := 0
	for _, r := range f.Rows {
		if r[ci] == nil {
			nulls++
		}
	}
	return float64(nulls) / float64(len(f.Rows))
}
