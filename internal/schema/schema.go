package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const SupportedSchema = "v1"

// Type is the declared value type of a column.
type Type string

const (
	TypeString Type = "string"
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeBool   Type = "bool"
)

// Numeric reports whether the type coerces to float64 storage.
func (t Type) Numeric() bool { return t == TypeInt || t == TypeFloat }

// Column declares one field of the expected table: its type, whether rows may
// omit it, and any value constraints.
type Column struct {
	Name     string   `yaml:"name"`
	Type     Type     `yaml:"type"`
	Nullable bool     `yaml:"nullable"`
	Allowed  []string `yaml:"allowed"`
	Min      *float64 `yaml:"min"`
	Max      *float64 `yaml:"max"`
}

// Schema is an ordered set of column definitions. Immutable after load.
type Schema struct {
	Columns []Column

	index map[string]int
}

type file struct {
	SchemaVersion string   `yaml:"schema_version"`
	Columns       []Column `yaml:"columns"`
}

// Load reads a schema document from a YAML file.
func Load(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse builds a Schema from YAML bytes, validating schema_version and the
// internal consistency of every column definition.
func Parse(raw []byte) (*Schema, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if f.SchemaVersion == "" {
		f.SchemaVersion = SupportedSchema
	}
	if f.SchemaVersion != SupportedSchema {
		return nil, fmt.Errorf("schema: schema_version %q not supported (want %q)", f.SchemaVersion, SupportedSchema)
	}
	return New(f.Columns)
}

// New builds a Schema from column definitions, enforcing the same consistency
// rules as Parse.
func New(columns []Column) (*Schema, error) {
	s := &Schema{Columns: columns, index: make(map[string]int, len(columns))}
	if len(s.Columns) == 0 {
		return nil, fmt.Errorf("schema: no columns declared")
	}
	for i, c := range s.Columns {
		if c.Name == "" {
			return nil, fmt.Errorf("schema: column %d has no name", i)
		}
		if _, dup := s.index[c.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate column %q", c.Name)
		}
		switch c.Type {
		case TypeString, TypeInt, TypeFloat, TypeBool:
		case "":
			return nil, fmt.Errorf("schema: column %q has no type", c.Name)
		default:
			return nil, fmt.Errorf("schema: column %q has unknown type %q", c.Name, c.Type)
		}
		if (c.Min != nil || c.Max != nil) && !c.Type.Numeric() {
			return nil, fmt.Errorf("schema: column %q declares bounds but is not numeric", c.Name)
		}
		if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
			return nil, fmt.Errorf("schema: column %q has min %v above max %v", c.Name, *c.Min, *c.Max)
		}
		s.index[c.Name] = i
	}
	return s, nil
}

// Column returns the definition for name, if declared.
func (s *Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.Columns[i], true
}

// Names returns column names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}
