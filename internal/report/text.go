// Package report renders schemas and operation results as text or
// markdown for humans. JSON stays the machine format; these renderings
// are for CLI output and per-table documentation files.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/skjelbred/schemakit/internal/schema"
)

// TextFormatter formats a schema as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(s *schema.Schema) error {
	for i := range s.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		f.formatTable(s, &s.Tables[i])
	}
	return nil
}

func (f *TextFormatter) formatTable(s *schema.Schema, table *schema.Table) {
	pkStr := ""
	if pk := table.PrimaryKey(); len(pk) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(pk, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Name, pkStr)

	for i := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(&table.Columns[i]))
	}

	if rels := outgoingRelationships(s, table.Name); len(rels) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, rel := range rels {
			_, _ = fmt.Fprintf(f.writer, "    → %s (%s)\n", rel.To, rel.Type)
		}
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, idx := range table.Indexes {
			unique := ""
			if idx.Unique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), unique)
		}
	}
}

func (f *TextFormatter) formatColumn(col *schema.Column) string {
	parts := []string{col.Name + ":"}

	typeStr := col.Type
	if len(col.Values) > 0 {
		typeStr = fmt.Sprintf("%s (%s)", col.Type, strings.Join(col.Values, "|"))
	}
	parts = append(parts, typeStr)

	if col.Unique {
		parts = append(parts, "UNIQUE")
	}
	if !col.Nullable && !col.PrimaryKey {
		parts = append(parts, "NOT NULL")
	}
	if col.AutoIncrement {
		parts = append(parts, "AUTOINCREMENT")
	}
	if col.HasDefault {
		parts = append(parts, fmt.Sprintf("DEFAULT %v", col.Default))
	}

	return strings.Join(parts, " ")
}

// outgoingRelationships returns the relationships whose from side
// lives in the named table, in declaration order.
func outgoingRelationships(s *schema.Schema, tableName string) []schema.Relationship {
	var out []schema.Relationship
	for _, rel := range s.Relationships {
		from, _, ok := schema.SplitRef(rel.From)
		if ok && from == tableName {
			out = append(out, rel)
		}
	}
	return out
}

// incomingRelationships returns the relationships whose to side lives
// in the named table.
func incomingRelationships(s *schema.Schema, tableName string) []schema.Relationship {
	var in []schema.Relationship
	for _, rel := range s.Relationships {
		to, _, ok := schema.SplitRef(rel.To)
		if ok && to == tableName {
			in = append(in, rel)
		}
	}
	return in
}
