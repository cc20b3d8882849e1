package dataset

import (
	"fmt"
	"strconv"
)

// FromRecords converts JSON-style records into a Raw table using the given
// column order. Absent keys and nulls become empty cells; numbers and bools
// are rendered in the same canonical form CategoryAt uses.
func FromRecords(records []map[string]any, columns []string) Raw {
	raw := Raw{Header: columns, Rows: make([][]string, len(records))}
	for i, rec := range records {
		row := make([]string, len(columns))
		for j, name := range columns {
			row[j] = cellString(rec[name])
		}
		raw.Rows[i] = row
	}
	return raw
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
