package schema

import "strings"

// Relationship cardinalities.
const (
	OneToOne   = "one-to-one"
	OneToMany  = "one-to-many"
	ManyToOne  = "many-to-one"
	ManyToMany = "many-to-many"
)

// Schema is the root of the canonical, dialect-neutral schema model.
type Schema struct {
	Database      Database
	Tables        []Table
	Relationships []Relationship
	SeedData      map[string][]SeedRow
}

// Database holds schema-level metadata.
type Database struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	ExtractedAt string `json:"extracted_at,omitempty"`
}

// Table represents a database table. Columns keep declaration order,
// which is the order DDL emission uses.
type Table struct {
	Name        string
	Description string
	Columns     []Column
	Indexes     []Index
}

// Column represents a table column.
//
// HasDefault distinguishes "no default" from an explicit null default,
// which a single JSON field cannot express through omission alone.
type Column struct {
	Name          string
	Type          string
	PrimaryKey    bool
	AutoIncrement bool
	Nullable      bool
	Unique        bool
	HasDefault    bool
	Default       any
	Values        []string // ENUM members, in declaration order
	Check         string   // opaque CHECK expression recovered on extraction
}

// Index represents a table index.
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// Relationship represents a declared foreign key relationship between
// two table.column endpoints.
type Relationship struct {
	Name     string `json:"name,omitempty"`
	From     string `json:"from"`
	To       string `json:"to"`
	Type     string `json:"type,omitempty"`
	OnDelete string `json:"on_delete,omitempty"`
	OnUpdate string `json:"on_update,omitempty"`
}

// SeedRow is one untyped row of seed data, keyed by column name.
type SeedRow map[string]any

// Table returns the table with the given name, or nil.
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// PrimaryKey returns the names of all columns flagged as primary key,
// in declaration order.
func (t *Table) PrimaryKey() []string {
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// AutoIncrementColumn returns the auto-increment primary key column, or nil.
func (t *Table) AutoIncrementColumn() *Column {
	for i := range t.Columns {
		if t.Columns[i].PrimaryKey && t.Columns[i].AutoIncrement {
			return &t.Columns[i]
		}
	}
	return nil
}

// IsEnum reports whether the column carries the first-class ENUM type.
func (c *Column) IsEnum() bool {
	return BaseType(c.Type) == "ENUM"
}

// SplitRef splits a "table.column" reference into its parts.
func SplitRef(ref string) (table, column string, ok bool) {
	parts := strings.SplitN(ref, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Equal reports whether two table definitions are structurally identical:
// same columns in the same order with the same constraints, and the same
// indexes. Descriptions are ignored.
func (t *Table) Equal(other *Table) bool {
	if t.Name != other.Name || len(t.Columns) != len(other.Columns) || len(t.Indexes) != len(other.Indexes) {
		return false
	}
	for i := range t.Columns {
		if !t.Columns[i].Equal(&other.Columns[i]) {
			return false
		}
	}
	for i := range t.Indexes {
		a, b := t.Indexes[i], other.Indexes[i]
		if a.Name != b.Name || a.Unique != b.Unique || !equalStrings(a.Columns, b.Columns) {
			return false
		}
	}
	return true
}

// Equal reports whether two column definitions are structurally identical.
func (c *Column) Equal(other *Column) bool {
	return c.Name == other.Name &&
		c.Type == other.Type &&
		c.PrimaryKey == other.PrimaryKey &&
		c.AutoIncrement == other.AutoIncrement &&
		c.Nullable == other.Nullable &&
		c.Unique == other.Unique &&
		c.HasDefault == other.HasDefault &&
		literalEqual(c.Default, other.Default) &&
		equalStrings(c.Values, other.Values) &&
		c.Check == other.Check
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// literalEqual compares default literals loosely across numeric
// representations: JSON decoding yields float64 while catalog extraction
// yields int64.
func literalEqual(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	return aok && bok && af == bf
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
