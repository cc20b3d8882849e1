// Package dataset holds the in-memory table types the pipeline passes between
// stages. A Raw table is untyped cells straight from a source; a Table is the
// validated, typed form. Stages never mutate a table they were given; every
// transformation produces a new value.
package dataset

import (
	"fmt"
	"strconv"
)

// Raw is an unvalidated table: a header and rows of string cells, exactly as
// a source delivered them.
type Raw struct {
	Header []string
	Rows   [][]string
}

// Kind is the physical storage type of a validated column.
type Kind uint8

const (
	Numeric Kind = iota
	Categorical
)

// Column is one typed column of a validated table. Floats is populated for
// Numeric columns, Strings for Categorical ones; Missing marks cells that were
// empty in the source. Callers treat the slices as read-only.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
	Missing []bool
}

// CategoryAt returns the cell at row i as a category label. Numeric columns
// use a canonical formatting so integer-coded categoricals round-trip stably.
func (c Column) CategoryAt(i int) string {
	if c.Kind == Numeric {
		return strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
	}
	return c.Strings[i]
}

// Table is a validated columnar table with uniform row count.
type Table struct {
	cols  []Column
	index map[string]int
	rows  int
}

// NewTable builds a table from typed columns, rejecting duplicate names and
// uneven column lengths.
func NewTable(cols []Column) (*Table, error) {
	t := &Table{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("dataset: duplicate column %q", c.Name)
		}
		n := len(c.Missing)
		switch c.Kind {
		case Numeric:
			if len(c.Floats) != n {
				return nil, fmt.Errorf("dataset: column %q has %d values for %d rows", c.Name, len(c.Floats), n)
			}
		case Categorical:
			if len(c.Strings) != n {
				return nil, fmt.Errorf("dataset: column %q has %d values for %d rows", c.Name, len(c.Strings), n)
			}
		}
		if i == 0 {
			t.rows = n
		} else if n != t.rows {
			return nil, fmt.Errorf("dataset: column %q has %d rows, want %d", c.Name, n, t.rows)
		}
		t.index[c.Name] = i
	}
	return t, nil
}

// Rows returns the row count.
func (t *Table) Rows() int { return t.rows }

// Column looks a column up by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// Columns returns the columns in schema order.
func (t *Table) Columns() []Column { return t.cols }

// Select returns a new table restricted to rows whose index appears in idx,
// in idx order. Used by the split stage; the receiver is left untouched.
func (t *Table) Select(idx []int) *Table {
	cols := make([]Column, len(t.cols))
	for ci, c := range t.cols {
		nc := Column{Name: c.Name, Kind: c.Kind, Missing: make([]bool, len(idx))}
		if c.Kind == Numeric {
			nc.Floats = make([]float64, len(idx))
		} else {
			nc.Strings = make([]string, len(idx))
		}
		for i, ri := range idx {
			nc.Missing[i] = c.Missing[ri]
			if c.Kind == Numeric {
				nc.Floats[i] = c.Floats[ri]
			} else {
				nc.Strings[i] = c.Strings[ri]
			}
		}
		cols[ci] = nc
	}
	nt, _ := NewTable(cols)
	return nt
}
