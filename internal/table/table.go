package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field is a single cell. Valid is false when the cell is missing.
type Field struct {
	// Value is the cell text exactly as it appeared in the input.
	Value string

	// Valid reports whether the cell holds a value.
	Valid bool
}

// Present returns a Field holding v.
func Present(v string) Field {
	return Field{Value: v, Valid: true}
}

// Missing returns a missing Field.
func Missing() Field {
	return Field{}
}

// Table is an ordered collection of rows sharing one header.
// Filtering methods never modify the receiver; they return a new Table
// that shares no row slices with it.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Field
}

// New creates an empty Table with the given column names.
// Names are used as-is; duplicates resolve to the first occurrence on lookup.
func New(columns []string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]Field, 0),
	}
	for i, name := range t.columns {
		if _, ok := t.index[name]; !ok {
			t.index[name] = i
		}
	}
	return t
}

// Append adds a row to the end of the table.
func (t *Table) Append(row []Field) error {
	if len(row) != len(t.columns) {
		return fmt.Errorf("%w: got %d fields, want %d", ErrRowLength, len(row), len(t.columns))
	}
	t.rows = append(t.rows, append([]Field(nil), row...))
	return nil
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) []Field {
	return append([]Field(nil), t.rows[i]...)
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Where returns a new Table containing the rows for which keep returns true,
// in their original order.
func (t *Table) Where(keep func(row []Field) bool) *Table {
	out := t.empty()
	for _, row := range t.rows {
		if keep(row) {
			out.rows = append(out.rows, append([]Field(nil), row...))
		}
	}
	return out
}

// Between returns the rows whose value in column lies within [lo, hi].
// Rows with a missing value in column are dropped. If lo > hi, or either
// bound is NaN, the result is empty; that is not an error.
func (t *Table) Between(column string, lo, hi float64) (*Table, error) {
	idx, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	mask := make([]bool, len(t.rows))
	for i, row := range t.rows {
		f := row[idx]
		if !f.Valid {
			continue
		}
		v, err := parseFloat(f.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q, row %d: %q", ErrNotNumeric, column, i+1, f.Value)
		}
		mask[i] = lo <= v && v <= hi
	}

	out := t.empty()
	for i, row := range t.rows {
		if mask[i] {
			out.rows = append(out.rows, append([]Field(nil), row...))
		}
	}
	return out, nil
}

// DropMissing returns the rows that have a value in every column.
func (t *Table) DropMissing() *Table {
	return t.Where(func(row []Field) bool {
		for _, f := range row {
			if !f.Valid {
				return false
			}
		}
		return true
	})
}

// CountMissing returns the number of missing cells per column, keyed by column name.
func (t *Table) CountMissing() map[string]int {
	counts := make(map[string]int, len(t.columns))
	for _, row := range t.rows {
		for i, f := range row {
			if !f.Valid {
				counts[t.columns[i]]++
			}
		}
	}
	return counts
}

// empty returns a Table with the same header and no rows.
func (t *Table) empty() *Table {
	return &Table{
		columns: t.columns,
		index:   t.index,
		rows:    make([][]Field, 0),
	}
}

// parseFloat parses a numeric cell. Surrounding whitespace is ignored.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN(), err
	}
	return v, nil
}
