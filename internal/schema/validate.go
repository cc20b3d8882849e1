package schema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"churnpipe/internal/dataset"
)

// Violation describes one failed rule on one column, aggregated over rows.
type Violation struct {
	Column   string `json:"column"`
	Rule     string `json:"rule"` // missing | type | null | allowed | range
	Detail   string `json:"detail"`
	Count    int    `json:"count"`
	FirstRow int    `json:"first_row"`
}

// ValidationError reports every violated column at once, so a caller can
// surface the full picture instead of fixing one column per attempt.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Column, v.Detail)
	}
	return fmt.Sprintf("schema validation failed (%d violations): %s",
		len(e.Violations), strings.Join(parts, "; "))
}

// Columns returns the distinct violated column names in schema order.
func (e *ValidationError) Columns() []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range e.Violations {
		if !seen[v.Column] {
			seen[v.Column] = true
			out = append(out, v.Column)
		}
	}
	return out
}

// collector aggregates per-(column, rule) counts while keeping the first
// offending row and value for the message.
type collector struct {
	order []string
	byKey map[string]*Violation
}

func (c *collector) add(col, rule, detail string, row int) {
	key := col + "\x00" + rule
	if v, ok := c.byKey[key]; ok {
		v.Count++
		return
	}
	if c.byKey == nil {
		c.byKey = map[string]*Violation{}
	}
	c.byKey[key] = &Violation{Column: col, Rule: rule, Detail: detail, Count: 1, FirstRow: row}
	c.order = append(c.order, key)
}

func (c *collector) err() error {
	if len(c.order) == 0 {
		return nil
	}
	vs := make([]Violation, len(c.order))
	for i, key := range c.order {
		vs[i] = *c.byKey[key]
	}
	return &ValidationError{Violations: vs}
}

// Validate checks raw against s and returns the typed table on success. It is
// a pure function: all violations across all columns are gathered before
// returning, and neither input is modified. Header columns the schema does
// not declare are dropped.
func Validate(raw dataset.Raw, s *Schema) (*dataset.Table, error) {
	pos := make(map[string]int, len(raw.Header))
	for i, name := range raw.Header {
		pos[name] = i
	}

	viol := &collector{}
	cols := make([]dataset.Column, 0, len(s.Columns))

	for _, def := range s.Columns {
		at, present := pos[def.Name]
		if !present {
			viol.add(def.Name, "missing", "column not present", 0)
			continue
		}
		cols = append(cols, validateColumn(def, at, raw.Rows, viol))
	}

	if err := viol.err(); err != nil {
		return nil, err
	}
	return dataset.NewTable(cols)
}

func validateColumn(def Column, at int, rows [][]string, viol *collector) dataset.Column {
	n := len(rows)
	col := dataset.Column{Name: def.Name, Missing: make([]bool, n)}
	if def.Type.Numeric() {
		col.Kind = dataset.Numeric
		col.Floats = make([]float64, n)
	} else {
		col.Kind = dataset.Categorical
		col.Strings = make([]string, n)
	}

	allowed := map[string]bool{}
	for _, a := range def.Allowed {
		allowed[a] = true
	}

	for i, row := range rows {
		var cell string
		if at < len(row) {
			cell = row[at]
		}
		if strings.TrimSpace(cell) == "" {
			col.Missing[i] = true
			if !def.Nullable {
				viol.add(def.Name, "null", "null value in non-nullable column", i)
			}
			continue
		}

		var canonical string
		switch def.Type {
		case TypeInt, TypeFloat:
			f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				viol.add(def.Name, "type", fmt.Sprintf("value %q is not coercible to %s", cell, def.Type), i)
				continue
			}
			if def.Type == TypeInt && f != math.Trunc(f) {
				viol.add(def.Name, "type", fmt.Sprintf("value %q is not an integer", cell), i)
				continue
			}
			if def.Min != nil && f < *def.Min {
				viol.add(def.Name, "range", fmt.Sprintf("value %v below minimum %v", f, *def.Min), i)
				continue
			}
			if def.Max != nil && f > *def.Max {
				viol.add(def.Name, "range", fmt.Sprintf("value %v above maximum %v", f, *def.Max), i)
				continue
			}
			col.Floats[i] = f
			canonical = strconv.FormatFloat(f, 'g', -1, 64)
		case TypeBool:
			b, err := strconv.ParseBool(strings.TrimSpace(cell))
			if err != nil {
				viol.add(def.Name, "type", fmt.Sprintf("value %q is not coercible to bool", cell), i)
				continue
			}
			canonical = strconv.FormatBool(b)
			col.Strings[i] = canonical
		default:
			canonical = cell
			col.Strings[i] = cell
		}

		if len(allowed) > 0 && !allowed[canonical] {
			viol.add(def.Name, "allowed",
				fmt.Sprintf("value %q not in allowed set %v", canonical, sortedKeys(allowed)), i)
		}
	}
	return col
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
