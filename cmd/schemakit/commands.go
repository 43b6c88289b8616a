package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skjelbred/schemakit"
	"github.com/skjelbred/schemakit/internal/report"
	"github.com/skjelbred/schemakit/internal/schema"
)

var (
	generateDialect string
	generateOutput  string

	extractURL      string
	extractDDLFile  string
	extractTables   string
	extractSchemaNm string
	extractOutput   string
	extractDocsDir  string
	extractFormat   string

	mergeOutput string

	createDBPath string

	compareURL    string
	compareSchema string
)

var generateCmd = &cobra.Command{
	Use:   "generate <schema.json>",
	Short: "Generate SQL DDL from a schema file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := schemakit.LoadSchema(args[0])
		if err != nil {
			return err
		}

		dialect := generateDialect
		if dialect == "" {
			dialect = viper.GetString("dialect")
		}
		sql, err := schemakit.GenerateSQL(s, dialect)
		if err != nil {
			return err
		}
		return writeOutput(generateOutput, sql)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a schema from a live database or a DDL file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		url := extractURL
		if url == "" {
			url = viper.GetString("database.url")
		}

		var s *schema.Schema
		var err error
		switch {
		case extractDDLFile != "":
			data, readErr := os.ReadFile(extractDDLFile)
			if readErr != nil {
				return fmt.Errorf("failed to read DDL file: %w", readErr)
			}
			s, err = schemakit.ExtractFromDDL(string(data))
		case url != "":
			s, err = schemakit.ExtractSchema(ctx, url, &schemakit.Options{
				Tables:     splitTables(extractTables),
				SchemaName: extractSchemaNm,
			})
		default:
			return fmt.Errorf("one of --url or --ddl must be specified")
		}
		if err != nil {
			return err
		}

		if extractDocsDir != "" {
			return schemakit.DocumentSchema(s, &schemakit.OutputOptions{OutputDir: extractDocsDir})
		}

		switch extractFormat {
		case "json":
			if extractOutput != "" {
				return schemakit.WriteSchema(s, extractOutput)
			}
			data, err := schemaJSON(s)
			if err != nil {
				return err
			}
			return writeOutput("", data)
		case "text":
			return formatTo(extractOutput, func(w *os.File) error {
				return report.NewTextFormatter(w).Format(s)
			})
		case "markdown":
			return formatTo(extractOutput, func(w *os.File) error {
				return report.NewMarkdownFormatter(w).Format(s)
			})
		}
		return fmt.Errorf("invalid format: %s (must be json, text, or markdown)", extractFormat)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <schema.json>",
	Short: "Validate a schema and report all findings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := schemakit.LoadSchema(args[0])
		if err != nil {
			return err
		}

		result := schemakit.ValidateSchema(s)
		report.WriteValidation(os.Stdout, result)
		if !result.Valid() {
			return fmt.Errorf("schema has %d error(s)", result.Errors)
		}
		return nil
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge <schema.json> [schema.json...]",
	Short: "Merge schema fragments into one schema",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas := make([]*schema.Schema, 0, len(args))
		for _, path := range args {
			s, err := schemakit.LoadSchema(path)
			if err != nil {
				return err
			}
			schemas = append(schemas, s)
		}

		merged, err := schemakit.MergeSchemas(schemas)
		if err != nil {
			return err
		}
		if mergeOutput != "" {
			return schemakit.WriteSchema(merged, mergeOutput)
		}
		data, err := schemaJSON(merged)
		if err != nil {
			return err
		}
		return writeOutput("", data)
	},
}

var createCmd = &cobra.Command{
	Use:   "create <schema.json>",
	Short: "Create a SQLite database file from a schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := schemakit.LoadSchema(args[0])
		if err != nil {
			return err
		}

		path := createDBPath
		if path == "" {
			path = strings.TrimSuffix(s.Database.Name, ".db") + ".db"
		}

		result, err := schemakit.CreateDatabase(context.Background(), s, path)
		if err != nil {
			return err
		}
		report.WriteMaterialization(os.Stdout, result)
		if result.Failed > 0 {
			return fmt.Errorf("%d statement(s) failed", result.Failed)
		}
		return nil
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <model.go> [model.go...]",
	Short: "Compare GORM model sources against a schema",
	Long: `Compare statically parses the given model source files and diffs them
against a schema, taken from --schema (a JSON file) or --url (a live
database). Renames are never inferred: a renamed table reports as one
missing plus one extra entry.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var s *schema.Schema
		var err error
		switch {
		case compareSchema != "":
			s, err = schemakit.LoadSchema(compareSchema)
		case compareURL != "":
			s, err = schemakit.ExtractSchema(context.Background(), compareURL, nil)
		default:
			return fmt.Errorf("one of --schema or --url must be specified")
		}
		if err != nil {
			return err
		}

		diff, err := schemakit.CompareModels(s, args)
		if err != nil {
			return err
		}
		report.WriteDiff(os.Stdout, diff)
		if !diff.InSync() {
			return fmt.Errorf("models and schema have drifted")
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateDialect, "dialect", "d", "", "Target dialect: sqlite, postgresql, or mysql (default: the schema's database.type)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output file (default: stdout)")
	_ = viper.BindPFlag("dialect", generateCmd.Flags().Lookup("dialect"))

	extractCmd.Flags().StringVar(&extractURL, "url", "", "Database URL (sqlite://, postgres://, or mysql://)")
	extractCmd.Flags().StringVar(&extractDDLFile, "ddl", "", "Parse a DDL file instead of connecting to a database")
	extractCmd.Flags().StringVarP(&extractTables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	extractCmd.Flags().StringVarP(&extractSchemaNm, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output file (default: stdout)")
	extractCmd.Flags().StringVar(&extractDocsDir, "docs-dir", "", "Write markdown documentation files to this directory instead")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "json", "Output format: json, text, or markdown")
	_ = viper.BindPFlag("database.url", extractCmd.Flags().Lookup("url"))

	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Output file (default: stdout)")

	createCmd.Flags().StringVar(&createDBPath, "db", "", "Database file path (default: <database name>.db)")

	compareCmd.Flags().StringVar(&compareURL, "url", "", "Database URL to extract the schema from")
	compareCmd.Flags().StringVar(&compareSchema, "schema", "", "Schema JSON file to compare against")
}

func splitTables(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func schemaJSON(s *schema.Schema) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode schema: %w", err)
	}
	return string(data), nil
}

func writeOutput(path, content string) error {
	if path == "" {
		fmt.Print(content)
		if !strings.HasSuffix(content, "\n") {
			fmt.Println()
		}
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func formatTo(path string, format func(*os.File) error) error {
	if path == "" {
		return format(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
		}
	}()
	return format(f)
}
