// Package table provides the read-only table abstraction the window engine consumes:
// an ordered set of equally long, named Arrow-backed columns.
package table

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/windowagg/internal/errors"
)

// Column provides a type-erased interface for a series of any element type
type Column interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
}

// Table represents an ordered collection of equally long columns.
// A Table does not own its columns; callers release them.
type Table struct {
	columns map[string]Column
	order   []string // Maintains column order
	rows    int
}

// New creates a table, checking that every column has the same number of rows
// and that no name repeats.
func New(columns ...Column) (*Table, error) {
	t := &Table{
		columns: make(map[string]Column, len(columns)),
		order:   make([]string, 0, len(columns)),
	}

	for i, c := range columns {
		if i == 0 {
			t.rows = c.Len()
		}
		if c.Len() != t.rows {
			return nil, errors.NewInvalidParameterError("NewTable",
				fmt.Sprintf("column '%s' has %d rows, expected %d", c.Name(), c.Len(), t.rows))
		}
		if _, dup := t.columns[c.Name()]; dup {
			return nil, errors.NewInvalidParameterError("NewTable",
				fmt.Sprintf("duplicate column name '%s'", c.Name()))
		}
		t.columns[c.Name()] = c
		t.order = append(t.order, c.Name())
	}

	return t, nil
}

// Columns returns the names of all columns in order
func (t *Table) Columns() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return t.rows
}

// Width returns the number of columns
func (t *Table) Width() int {
	return len(t.order)
}

// Column returns the column with the given name
func (t *Table) Column(name string) (Column, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// HasColumn checks if a column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// WithColumn returns a new table with c appended, or replacing the column of the same name.
// The receiver is left untouched.
func (t *Table) WithColumn(c Column) (*Table, error) {
	cols := make([]Column, 0, len(t.order)+1)
	replaced := false
	for _, name := range t.order {
		if name == c.Name() {
			cols = append(cols, c)
			replaced = true
			continue
		}
		cols = append(cols, t.columns[name])
	}
	if !replaced {
		cols = append(cols, c)
	}
	if len(t.order) > 0 && c.Len() != t.rows {
		return nil, errors.NewInvalidParameterError("WithColumn",
			fmt.Sprintf("column '%s' has %d rows, expected %d", c.Name(), c.Len(), t.rows))
	}
	return New(cols...)
}

// String returns a string representation of the table
func (t *Table) String() string {
	if len(t.order) == 0 {
		return "Table[empty]"
	}

	parts := []string{fmt.Sprintf("Table[%dx%d]", t.Len(), t.Width())}
	for _, name := range t.order {
		parts = append(parts, fmt.Sprintf("  %s: %s", name, t.columns[name].DataType().String()))
	}
	return strings.Join(parts, "\n")
}
