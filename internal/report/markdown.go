package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/skjelbred/schemakit/internal/schema"
)

// MarkdownFormatter formats a schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(s *schema.Schema) error {
	title := s.Database.Name
	if title == "" {
		title = "Database Schema"
	}
	_, _ = fmt.Fprintf(f.writer, "# %s\n\n", title)
	if s.Database.Description != "" {
		_, _ = fmt.Fprintf(f.writer, "%s\n\n", s.Database.Description)
	}

	for i := range s.Tables {
		f.formatTable(s, &s.Tables[i])
	}
	return nil
}

// FormatTable formats a single table (used by the multi-file writer)
func (f *MarkdownFormatter) FormatTable(s *schema.Schema, table *schema.Table) {
	f.formatTable(s, table)
}

func (f *MarkdownFormatter) formatTable(s *schema.Schema, table *schema.Table) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)
	if table.Description != "" {
		_, _ = fmt.Fprintf(f.writer, "%s\n\n", table.Description)
	}

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)

	for i := range table.Columns {
		col := &table.Columns[i]
		typeStr := col.Type
		if len(col.Values) > 0 {
			typeStr = fmt.Sprintf("%s (%s)", col.Type, strings.Join(col.Values, "|"))
		}

		constraintStr := formatConstraints(col)
		if constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, typeStr, constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, typeStr)
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if rels := outgoingRelationships(s, table.Name); len(rels) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, rel := range rels {
			_, fromCol, _ := schema.SplitRef(rel.From)
			_, _ = fmt.Fprintf(f.writer, "- %s → %s (%s)\n", fromCol, rel.To, rel.Type)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Indexes")
		_, _ = fmt.Fprintln(f.writer)
		for _, idx := range table.Indexes {
			if idx.Unique {
				_, _ = fmt.Fprintf(f.writer, "- %s on (%s), unique\n", idx.Name, strings.Join(idx.Columns, ", "))
			} else {
				_, _ = fmt.Fprintf(f.writer, "- %s on (%s)\n", idx.Name, strings.Join(idx.Columns, ", "))
			}
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func formatConstraints(col *schema.Column) string {
	var constraints []string

	if col.PrimaryKey {
		constraints = append(constraints, "PK")
	}
	if col.AutoIncrement {
		constraints = append(constraints, "AUTOINCREMENT")
	}
	if col.Unique {
		constraints = append(constraints, "UNIQUE")
	}
	if !col.Nullable && !col.PrimaryKey {
		constraints = append(constraints, "NOT NULL")
	}
	if col.HasDefault {
		constraints = append(constraints, fmt.Sprintf("DEFAULT %v", col.Default))
	}
	if col.Check != "" {
		constraints = append(constraints, fmt.Sprintf("CHECK(%s)", col.Check))
	}

	return strings.Join(constraints, ", ")
}
