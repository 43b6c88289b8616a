package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/skjelbred/schemakit/internal/schema"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"
)

// MultiFileFormatter writes a schema to one file per table in a
// directory, plus an overview file.
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes the schema to multiple files
func (f *MultiFileFormatter) Format(s *schema.Schema) error {
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(s); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for i := range s.Tables {
		if err := f.writeTableFile(s, &s.Tables[i]); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", s.Tables[i].Name, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeOverview(s *schema.Schema) error {
	ext := f.fileExtension()
	filename := filepath.Join(f.OutputDir, "_overview"+ext)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	// Sort tables alphabetically for the overview
	sorted := make([]schema.Table, len(s.Tables))
	copy(sorted, s.Tables)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	if f.OutputFormat == formatMarkdown {
		_, _ = fmt.Fprintf(file, "# Schema Overview\n\n")
		_, _ = fmt.Fprintf(file, "Each table has a corresponding file: `<table_name>%s`\n\n", ext)
		_, _ = fmt.Fprintf(file, "## Tables\n\n")
		for i := range sorted {
			_, _ = fmt.Fprintf(file, "- **%s**%s\n", sorted[i].Name, referenceSuffix(s, sorted[i].Name))
		}
		return nil
	}

	_, _ = fmt.Fprintf(file, "SCHEMA OVERVIEW\n")
	_, _ = fmt.Fprintf(file, "Each table has a file: <table_name>%s\n\n", ext)
	for i := range sorted {
		_, _ = fmt.Fprintf(file, "%s%s\n", sorted[i].Name, referenceSuffix(s, sorted[i].Name))
	}
	return nil
}

// referenceSuffix lists the tables a table references, for the
// overview line.
func referenceSuffix(s *schema.Schema, tableName string) string {
	rels := outgoingRelationships(s, tableName)
	if len(rels) == 0 {
		return ""
	}
	targets := make([]string, 0, len(rels))
	for _, rel := range rels {
		if to, _, ok := schema.SplitRef(rel.To); ok {
			targets = append(targets, to)
		}
	}
	return fmt.Sprintf(" (references: %s)", strings.Join(targets, ", "))
}

// writeTableFile writes a single table to its own file
func (f *MultiFileFormatter) writeTableFile(s *schema.Schema, table *schema.Table) error {
	ext := f.fileExtension()
	filename := filepath.Join(f.OutputDir, table.Name+ext)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if f.OutputFormat == formatMarkdown {
		md := NewMarkdownFormatter(file)
		md.FormatTable(s, table)

		if incoming := incomingRelationships(s, table.Name); len(incoming) > 0 {
			_, _ = fmt.Fprintf(file, "### Referenced by\n\n")
			for _, rel := range incoming {
				_, toCol, _ := schema.SplitRef(rel.To)
				_, _ = fmt.Fprintf(file, "- %s → %s (%s)\n", rel.From, toCol, rel.Type)
			}
			_, _ = fmt.Fprintln(file)
		}
		return nil
	}

	tf := NewTextFormatter(file)
	tf.formatTable(s, table)
	return nil
}

func (f *MultiFileFormatter) fileExtension() string {
	if f.OutputFormat == formatMarkdown {
		return ".md"
	}
	return ".txt"
}
