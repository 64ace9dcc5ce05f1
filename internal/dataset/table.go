package dataset

import (
	"fmt"
)

// Table is an ordered-column table of survey responses. Column order is
// significant (it drives export order) and every row remembers the workbook
// row it came from so errors and QA output can point back at the source.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
	srcRows []int
}

// New creates an empty table with the given column order.
func New(columns []string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		index[name] = i
	}
	return &Table{
		columns: append([]string(nil), columns...),
		index:   index,
	}, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AppendRow adds a row. srcRow is the 1-based workbook row the data came
// from; tests may pass any positive number.
func (t *Table) AppendRow(srcRow int, cells []Value) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.columns))
	}
	t.rows = append(t.rows, append([]Value(nil), cells...))
	t.srcRows = append(t.srcRows, srcRow)
	return nil
}

// SourceRow returns the workbook row number for data row i.
func (t *Table) SourceRow(i int) int {
	return t.srcRows[i]
}

// Value returns the cell at row i in the named column.
func (t *Table) Value(i int, column string) (Value, bool) {
	j, ok := t.index[column]
	if !ok {
		return Value{}, false
	}
	return t.rows[i][j], true
}

// Set rewrites the cell at row i in the named column.
func (t *Table) Set(i int, column string, v Value) error {
	j, ok := t.index[column]
	if !ok {
		return fmt.Errorf("no column %q", column)
	}
	t.rows[i][j] = v
	return nil
}

// AddColumn appends a new column filled with the given value.
func (t *Table) AddColumn(name string, fill Value) error {
	if name == "" {
		return fmt.Errorf("column name is empty")
	}
	if _, dup := t.index[name]; dup {
		return fmt.Errorf("duplicate column %q", name)
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], fill)
	}
	return nil
}

// RenameColumn renames a column in place, preserving its position.
func (t *Table) RenameColumn(oldName, newName string) error {
	j, ok := t.index[oldName]
	if !ok {
		return fmt.Errorf("no column %q", oldName)
	}
	if newName == "" {
		return fmt.Errorf("column name is empty")
	}
	if _, dup := t.index[newName]; dup && newName != oldName {
		return fmt.Errorf("duplicate column %q", newName)
	}
	delete(t.index, oldName)
	t.index[newName] = j
	t.columns[j] = newName
	return nil
}

// Select returns a new table holding the named columns in the given order.
// Every named column must exist; columns not named are dropped.
func (t *Table) Select(columns []string) (*Table, error) {
	out, err := New(columns)
	if err != nil {
		return nil, err
	}
	src := make([]int, len(columns))
	for i, name := range columns {
		j, ok := t.index[name]
		if !ok {
			return nil, fmt.Errorf("no column %q", name)
		}
		src[i] = j
	}
	for r, row := range t.rows {
		cells := make([]Value, len(columns))
		for i, j := range src {
			cells[i] = row[j]
		}
		if err := out.AppendRow(t.srcRows[r], cells); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Filter splits the table into kept and rejected rows, preserving order and
// provenance. keep is called with the data row index.
func (t *Table) Filter(keep func(i int) bool) (kept, rejected *Table) {
	kept = t.emptyCopy()
	rejected = t.emptyCopy()
	for i, row := range t.rows {
		dst := kept
		if !keep(i) {
			dst = rejected
		}
		dst.rows = append(dst.rows, append([]Value(nil), row...))
		dst.srcRows = append(dst.srcRows, t.srcRows[i])
	}
	return kept, rejected
}

// emptyCopy returns a rowless table with the same columns.
func (t *Table) emptyCopy() *Table {
	out, _ := New(t.columns)
	return out
}
