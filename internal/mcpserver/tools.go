package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/skjelbred/schemakit"
	"github.com/skjelbred/schemakit/internal/schema"
)

// getOptionalString extracts an optional string argument from the request.
func getOptionalString(req mcp.CallToolRequest, key string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	val, ok := args[key].(string)
	if !ok {
		return ""
	}
	return val
}

func parseSchemaArg(req mcp.CallToolRequest) (*schema.Schema, *mcp.CallToolResult, error) {
	raw, err := req.RequireString("schema")
	if err != nil {
		return nil, nil, err
	}
	s, err := schemakit.ParseSchema([]byte(raw))
	if err != nil {
		return nil, errorResult("invalid_schema", err.Error()), nil
	}
	return s, nil, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) registerSchemaToSQL() {
	tool := mcp.NewTool(
		"schema_to_sql",
		mcp.WithDescription(
			"Convert a JSON database schema into executable SQL DDL. "+
				"Returns CREATE TABLE statements in dependency order, deferred "+
				"foreign key constraints, CREATE INDEX statements, and seed INSERTs. "+
				"Dialects: sqlite, postgresql, mysql.",
		),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Schema JSON document")),
		mcp.WithString("dialect", mcp.Description("Target dialect; defaults to the schema's database.type")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.addTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sc, errRes, err := parseSchemaArg(req)
		if err != nil || errRes != nil {
			return errRes, err
		}
		dialect := getOptionalString(req, "dialect")

		sql, err := schemakit.GenerateSQL(sc, dialect)
		if err != nil {
			return errorResult("generation_failed", err.Error()), nil
		}
		s.logger.Info("generated SQL", zap.String("dialect", dialect), zap.Int("tables", len(sc.Tables)))
		return mcp.NewToolResultText(sql), nil
	})
}

func (s *Server) registerCreateDatabase() {
	tool := mcp.NewTool(
		"create_database",
		mcp.WithDescription(
			"Create a SQLite database file from a JSON schema, including seed "+
				"data. Each statement commits individually; the result lists every "+
				"statement outcome, so partial failures are visible, not fatal.",
		),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Schema JSON document")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Filesystem path for the database file")),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.addTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sc, errRes, err := parseSchemaArg(req)
		if err != nil || errRes != nil {
			return errRes, err
		}
		path, err := req.RequireString("path")
		if err != nil {
			return nil, err
		}

		report, err := schemakit.CreateDatabase(ctx, sc, path)
		if err != nil {
			return errorResult("materialization_failed", err.Error()), nil
		}
		s.logger.Info("created database",
			zap.String("path", path),
			zap.Int("applied", report.Applied),
			zap.Int("failed", report.Failed))
		return jsonResult(report), nil
	})
}

func (s *Server) registerExtractSchema() {
	tool := mcp.NewTool(
		"extract_schema",
		mcp.WithDescription(
			"Extract a JSON schema from a live database (sqlite://path, "+
				"postgres://..., mysql://...) or from raw DDL text. Provide either "+
				"database_url or ddl.",
		),
		mcp.WithString("database_url", mcp.Description("Database connection URL")),
		mcp.WithString("ddl", mcp.Description("Raw DDL text to parse instead of a live database")),
		mcp.WithString("tables", mcp.Description("Comma-separated table names to include (live extraction only)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.addTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		databaseURL := getOptionalString(req, "database_url")
		ddl := getOptionalString(req, "ddl")

		var sc *schema.Schema
		var err error
		switch {
		case databaseURL != "":
			sc, err = schemakit.ExtractSchema(ctx, databaseURL, &schemakit.Options{
				Tables: splitList(getOptionalString(req, "tables")),
			})
		case ddl != "":
			sc, err = schemakit.ExtractFromDDL(ddl)
		default:
			return errorResult("invalid_parameters", "either database_url or ddl is required"), nil
		}
		if err != nil {
			return errorResult("extraction_failed", err.Error()), nil
		}
		s.logger.Info("extracted schema", zap.Int("tables", len(sc.Tables)))
		return jsonResult(sc), nil
	})
}

func (s *Server) registerValidateSchema() {
	tool := mcp.NewTool(
		"validate_schema",
		mcp.WithDescription(
			"Validate a JSON schema. Returns every finding tagged error or "+
				"warning in one pass; never fails on a broken schema.",
		),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Schema JSON document")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.addTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sc, errRes, err := parseSchemaArg(req)
		if err != nil || errRes != nil {
			return errRes, err
		}
		result := schemakit.ValidateSchema(sc)
		s.logger.Info("validated schema", zap.Int("errors", result.Errors), zap.Int("warnings", result.Warnings))
		return jsonResult(result), nil
	})
}

func (s *Server) registerMergeSchemas() {
	tool := mcp.NewTool(
		"merge_schemas",
		mcp.WithDescription(
			"Merge multiple JSON schemas into one. Identical duplicate tables "+
				"deduplicate; conflicting definitions fail naming the table and column.",
		),
		mcp.WithString("schemas", mcp.Required(), mcp.Description("JSON array of schema documents")),
	)

	s.addTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("schemas")
		if err != nil {
			return nil, err
		}
		var docs []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &docs); err != nil {
			return errorResult("invalid_parameters", "schemas must be a JSON array: "+err.Error()), nil
		}
		schemas := make([]*schema.Schema, 0, len(docs))
		for _, doc := range docs {
			sc, err := schemakit.ParseSchema(doc)
			if err != nil {
				return errorResult("invalid_schema", err.Error()), nil
			}
			schemas = append(schemas, sc)
		}

		merged, err := schemakit.MergeSchemas(schemas)
		if err != nil {
			return errorResult("merge_conflict", err.Error()), nil
		}
		s.logger.Info("merged schemas", zap.Int("inputs", len(schemas)), zap.Int("tables", len(merged.Tables)))
		return jsonResult(merged), nil
	})
}

func (s *Server) registerCompareModels() {
	tool := mcp.NewTool(
		"compare_models",
		mcp.WithDescription(
			"Compare GORM-style model source files against a JSON schema. "+
				"Reports tables missing in the database, tables without a model, "+
				"and per-table column differences. Static analysis only; the "+
				"source is never executed.",
		),
		mcp.WithString("schema", mcp.Required(), mcp.Description("Schema JSON document")),
		mcp.WithString("files", mcp.Required(), mcp.Description("Comma-separated model source file paths")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.addTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sc, errRes, err := parseSchemaArg(req)
		if err != nil || errRes != nil {
			return errRes, err
		}
		rawFiles, err := req.RequireString("files")
		if err != nil {
			return nil, err
		}
		files := splitList(rawFiles)
		if len(files) == 0 {
			return errorResult("invalid_parameters", "at least one model source file is required"), nil
		}

		diff, err := schemakit.CompareModels(sc, files)
		if err != nil {
			return errorResult("comparison_failed", err.Error()), nil
		}
		s.logger.Info("compared models", zap.Int("files", len(files)), zap.Bool("in_sync", diff.InSync()))
		return jsonResult(diff), nil
	})
}
