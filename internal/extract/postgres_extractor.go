package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/skjelbred/schemakit/internal/schema"
)

// PostgresExtractor handles schema extraction from PostgreSQL.
type PostgresExtractor struct {
	client *PostgresClient
	schema string
}

// NewPostgresExtractor creates a new PostgreSQL schema extractor
func NewPostgresExtractor(client *PostgresClient, schemaName string) *PostgresExtractor {
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
	}
}

// ExtractSchema extracts the complete schema for specified tables.
// If tables is empty, extracts all tables in the schema.
func (e *PostgresExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	s := &schema.Schema{
		Database: schema.Database{
			Name:        e.schema,
			Type:        "postgresql",
			Version:     "1.0.0",
			Description: fmt.Sprintf("Schema extracted from PostgreSQL schema %q", e.schema),
			ExtractedAt: time.Now().Format(time.RFC3339),
		},
	}

	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	for _, tableName := range tableNames {
		table, rels, err := e.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		s.Tables = append(s.Tables, *table)
		s.Relationships = append(s.Relationships, rels...)
	}

	return s, nil
}

// getTableNames returns the list of tables to extract
func (e *PostgresExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

func (e *PostgresExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, []schema.Relationship, error) {
	table := &schema.Table{Name: tableName}

	columns, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns

	pk, err := e.extractPrimaryKey(ctx, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract primary key: %w", err)
	}
	for _, name := range pk {
		if col := table.Column(name); col != nil {
			col.PrimaryKey = true
			col.Nullable = false
		}
	}

	rels, err := e.extractRelationships(ctx, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}

	indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes

	return table, rels, nil
}

// extractColumns extracts column information for a table. Native enum
// types come back as the first-class ENUM token with their member list.
func (e *PostgresExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.is_identity,
			CASE WHEN EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.constraint_column_usage ccu
					ON tc.constraint_name = ccu.constraint_name
					AND tc.table_schema = ccu.table_schema
				WHERE tc.table_schema = $1
					AND tc.table_name = $2
					AND tc.constraint_type = 'UNIQUE'
					AND ccu.column_name = c.column_name
			) THEN true ELSE false END as is_unique,
			c.udt_name,
			c.character_maximum_length
		FROM information_schema.columns c
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	var enumTypes []string
	enumTypeByColumn := make(map[string]string)

	for rows.Next() {
		var col schema.Column
		var nullable, isIdentity string
		var defaultVal *string
		var dataType, udtName string
		var charMaxLength *int

		if err := rows.Scan(&col.Name, &dataType, &nullable, &defaultVal, &isIdentity, &col.Unique, &udtName, &charMaxLength); err != nil {
			return nil, err
		}

		col.Nullable = (nullable == "YES")
		col.Type = canonicalPostgresType(dataType, udtName, charMaxLength)

		switch {
		case isIdentity == "YES":
			col.AutoIncrement = true
		case defaultVal != nil && len(*defaultVal) > 8 && (*defaultVal)[:8] == "nextval(":
			// serial columns carry a sequence default
			col.AutoIncrement = true
		case defaultVal != nil:
			col.HasDefault = true
			col.Default = parseDefaultLiteral(stripPgCast(*defaultVal))
		}

		if dataType == "USER-DEFINED" {
			enumTypes = append(enumTypes, udtName)
			enumTypeByColumn[col.Name] = udtName
			col.Type = "ENUM"
		}

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(enumTypes) > 0 {
		valuesByType, err := e.extractEnumValuesMap(ctx, enumTypes)
		if err != nil {
			return nil, err
		}
		for i := range columns {
			if typ, ok := enumTypeByColumn[columns[i].Name]; ok {
				columns[i].Values = valuesByType[typ]
			}
		}
	}

	return columns, nil
}

// stripPgCast drops a trailing ::type cast from a column default,
// which PostgreSQL appends to most literals.
func stripPgCast(def string) string {
	for i := 0; i+1 < len(def); i++ {
		if def[i] == ':' && def[i+1] == ':' {
			return def[:i]
		}
	}
	return def
}

// canonicalPostgresType maps information_schema type names back to
// canonical tokens, keeping varchar/char lengths.
func canonicalPostgresType(dataType, udtName string, charMaxLength *int) string {
	switch dataType {
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("VARCHAR(%d)", *charMaxLength)
		}
		return "VARCHAR"
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("CHAR(%d)", *charMaxLength)
		}
		return "CHAR"
	case "timestamp with time zone", "timestamp without time zone":
		return "TIMESTAMP"
	case "time with time zone", "time without time zone":
		return "TIME"
	case "double precision":
		return "FLOAT"
	case "USER-DEFINED":
		return canonicalType(udtName)
	default:
		return canonicalType(dataType)
	}
}

// extractEnumValuesMap extracts enum values for multiple enum types at once
func (e *PostgresExtractor) extractEnumValuesMap(ctx context.Context, enumTypeNames []string) (map[string][]string, error) {
	query := `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON t.typnamespace = n.oid
		WHERE n.nspname = $1 AND t.typname = ANY($2)
		ORDER BY t.typname, e.enumsortorder
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, enumTypeNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var typName, enumLabel string
		if err := rows.Scan(&typName, &enumLabel); err != nil {
			return nil, err
		}
		result[typName] = append(result[typName], enumLabel)
	}

	return result, rows.Err()
}

// extractPrimaryKey extracts primary key columns
func (e *PostgresExtractor) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = $1
			AND table_name = $2
			AND constraint_name IN (
				SELECT constraint_name
				FROM information_schema.table_constraints
				WHERE table_schema = $1
					AND table_name = $2
					AND constraint_type = 'PRIMARY KEY'
			)
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var colName string
		if err := rows.Scan(&colName); err != nil {
			return nil, err
		}
		pk = append(pk, colName)
	}

	return pk, rows.Err()
}

// extractRelationships recovers relationships from declared foreign keys
func (e *PostgresExtractor) extractRelationships(ctx context.Context, tableName string) ([]schema.Relationship, error) {
	query := `
		SELECT
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []schema.Relationship
	for rows.Next() {
		var fromCol, targetTable, targetCol string
		if err := rows.Scan(&fromCol, &targetTable, &targetCol); err != nil {
			return nil, err
		}
		rels = append(rels, schema.Relationship{
			Name: relationshipName(tableName, targetTable),
			From: fmt.Sprintf("%s.%s", tableName, fromCol),
			To:   fmt.Sprintf("%s.%s", targetTable, targetCol),
			Type: schema.ManyToOne,
		})
	}

	return rels, rows.Err()
}

// extractIndexes extracts index information
func (e *PostgresExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)) AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		if err := rows.Scan(&idx.Name, &idx.Unique, &idx.Columns); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}
