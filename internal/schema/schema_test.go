package schema

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ParsesColumnsInOrder(t *testing.T) {
	dir := t.TempDir()
	doc := []byte(`schema_version: v1
columns:
  - name: customer_id
    type: string
  - name: tenure
    type: int
    min: 0
  - name: monthly_charges
    type: float
    min: 0
  - name: contract
    type: string
    allowed: [month-to-month, one-year, two-year]
  - name: churn
    type: string
    allowed: ["yes", "no"]
`)
	path := filepath.Join(dir, "schema.yml")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Columns) != 5 {
		t.Fatalf("want 5 columns, got %d", len(s.Columns))
	}
	if s.Columns[1].Name != "tenure" || s.Columns[1].Type != TypeInt {
		t.Fatalf("want tenure int at position 1, got %s %s", s.Columns[1].Name, s.Columns[1].Type)
	}
	if s.Columns[1].Min == nil || *s.Columns[1].Min != 0 {
		t.Fatalf("want tenure min 0, got %v", s.Columns[1].Min)
	}
	col, ok := s.Column("contract")
	if !ok {
		t.Fatal("want contract column to resolve by name")
	}
	if len(col.Allowed) != 3 {
		t.Fatalf("want 3 allowed contract values, got %d", len(col.Allowed))
	}
}

func TestParse_RejectsUnsupportedSchemaVersion(t *testing.T) {
	_, err := Parse([]byte(`schema_version: v999
columns:
  - name: a
    type: string
`))
	if err == nil {
		t.Fatal("expected error for unsupported schema_version")
	}
}

func TestParse_RejectsDuplicateColumns(t *testing.T) {
	_, err := Parse([]byte(`schema_version: v1
columns:
  - name: a
    type: string
  - name: a
    type: int
`))
	if err == nil {
		t.Fatal("expected error for duplicate column name")
	}
}

func TestParse_RejectsBoundsOnNonNumeric(t *testing.T) {
	_, err := Parse([]byte(`schema_version: v1
columns:
  - name: a
    type: string
    min: 1
`))
	if err == nil {
		t.Fatal("expected error for min on string column")
	}
}

func TestParse_RejectsInvertedBounds(t *testing.T) {
	_, err := Parse([]byte(`schema_version: v1
columns:
  - name: a
    type: float
    min: 10
    max: 1
`))
	if err == nil {
		t.Fatal("expected error for min greater than max")
	}
}

func TestParse_RejectsUnknownType(t *testing.T) {
	_, err := Parse([]byte(`schema_version: v1
columns:
  - name: a
    type: decimal
`))
	if err == nil {
		t.Fatal("expected error for unknown column type")
	}
}
