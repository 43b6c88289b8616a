// Package merge combines modular schema fragments into one schema.
package merge

import (
	"fmt"

	"github.com/skjelbred/schemakit/internal/schema"
)

// ConflictError reports an irreconcilable collision between inputs.
type ConflictError struct {
	Table  string
	Detail string
}

func (e *ConflictError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("merge conflict on table %q: %s", e.Table, e.Detail)
	}
	return fmt.Sprintf("merge conflict: %s", e.Detail)
}

// Merge unions the given schemas in order. Same-named tables must be
// structurally identical; the first one seen wins and later identical
// copies are dropped. Relationships and seed rows are concatenated.
// Database metadata comes from the first schema.
func Merge(schemas []*schema.Schema) (*schema.Schema, error) {
	if len(schemas) == 0 {
		return nil, fmt.Errorf("nothing to merge")
	}

	merged := &schema.Schema{
		Database: schemas[0].Database,
	}

	tableIndex := map[string]schema.Table{}
	relNames := map[string]bool{}

	for _, s := range schemas {
		for i := range s.Tables {
			t := &s.Tables[i]
			existing, ok := tableIndex[t.Name]
			if !ok {
				merged.Tables = append(merged.Tables, *t)
				tableIndex[t.Name] = *t
				continue
			}
			if detail := describeDifference(&existing, t); detail != "" {
				return nil, &ConflictError{Table: t.Name, Detail: detail}
			}
		}

		for _, rel := range s.Relationships {
			if relNames[rel.Name] {
				return nil, &ConflictError{Detail: fmt.Sprintf("duplicate relationship name %q", rel.Name)}
			}
			relNames[rel.Name] = true
			merged.Relationships = append(merged.Relationships, rel)
		}

		for tableName, rows := range s.SeedData {
			if merged.SeedData == nil {
				merged.SeedData = map[string][]schema.SeedRow{}
			}
			merged.SeedData[tableName] = append(merged.SeedData[tableName], rows...)
		}
	}

	return merged, nil
}

// describeDifference returns an empty string when the two definitions
// are structurally identical, otherwise a message naming the first
// point of divergence.
func describeDifference(a, b *schema.Table) string {
	if a.Equal(b) {
		return ""
	}
	if len(a.Columns) != len(b.Columns) {
		return fmt.Sprintf("definitions have %d and %d columns", len(a.Columns), len(b.Columns))
	}
	for i := range a.Columns {
		ca, cb := &a.Columns[i], &b.Columns[i]
		if ca.Name != cb.Name {
			return fmt.Sprintf("column %d is %q in one definition and %q in the other", i, ca.Name, cb.Name)
		}
		if !ca.Equal(cb) {
			return fmt.Sprintf("column %q differs (%s vs %s)", ca.Name, describeColumn(ca), describeColumn(cb))
		}
	}
	return "index or description mismatch"
}

func describeColumn(c *schema.Column) string {
	s := c.Type
	if c.PrimaryKey {
		s += " primary_key"
	}
	if c.AutoIncrement {
		s += " auto_increment"
	}
	if !c.Nullable {
		s += " not_null"
	}
	if c.Unique {
		s += " unique"
	}
	if c.HasDefault {
		s += fmt.Sprintf(" default=%v", c.Default)
	}
	return s
}
