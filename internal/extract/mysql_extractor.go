package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/skjelbred/schemakit/internal/schema"
)

// MySQLExtractor handles schema extraction from MySQL.
type MySQLExtractor struct {
	client   *MySQLClient
	database string
}

// NewMySQLExtractor creates a new MySQL schema extractor
func NewMySQLExtractor(client *MySQLClient, database string) *MySQLExtractor {
	return &MySQLExtractor{
		client:   client,
		database: database,
	}
}

// ExtractSchema extracts the complete schema for specified tables.
// If tables is empty, extracts all tables in the database.
func (e *MySQLExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	s := &schema.Schema{
		Database: schema.Database{
			Name:        e.database,
			Type:        "mysql",
			Version:     "1.0.0",
			Description: fmt.Sprintf("Schema extracted from MySQL database %q", e.database),
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
func (e *MySQLExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.database)
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

func (e *MySQLExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, []schema.Relationship, error) {
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

// extractColumns extracts column information for a table. MySQL stores
// enum members in column_type, so they round-trip without CHECK parsing.
func (e *MySQLExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			column_type,
			is_nullable,
			column_default,
			extra,
			column_key,
			character_maximum_length
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.database, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var dataType, columnType, nullable, extra, columnKey string
		var defaultVal *string
		var charMaxLength *int64

		if err := rows.Scan(&col.Name, &dataType, &columnType, &nullable, &defaultVal, &extra, &columnKey, &charMaxLength); err != nil {
			return nil, err
		}

		col.Nullable = (nullable == "YES")
		col.Unique = (columnKey == "UNI")
		col.AutoIncrement = strings.Contains(extra, "auto_increment")

		if dataType == "enum" {
			col.Type = "ENUM"
			col.Values = parseMySQLEnumValues(columnType)
		} else {
			col.Type = canonicalMySQLType(dataType, charMaxLength)
		}

		if defaultVal != nil && !col.AutoIncrement {
			col.HasDefault = true
			col.Default = parseDefaultLiteral(*defaultVal)
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// parseMySQLEnumValues parses values out of enum('a','b','c')
func parseMySQLEnumValues(columnType string) []string {
	open := strings.Index(columnType, "(")
	close := strings.LastIndex(columnType, ")")
	if open < 0 || close <= open {
		return nil
	}
	var values []string
	for _, m := range enumValueRe.FindAllStringSubmatch(columnType[open+1:close], -1) {
		values = append(values, strings.ReplaceAll(m[1], "''", "'"))
	}
	return values
}

// canonicalMySQLType maps information_schema data_type values to
// canonical tokens, keeping varchar/char lengths.
func canonicalMySQLType(dataType string, charMaxLength *int64) string {
	switch strings.ToLower(dataType) {
	case "varchar":
		if charMaxLength != nil {
			return fmt.Sprintf("VARCHAR(%d)", *charMaxLength)
		}
		return "VARCHAR"
	case "char":
		if charMaxLength != nil {
			return fmt.Sprintf("CHAR(%d)", *charMaxLength)
		}
		return "CHAR"
	case "tinyint":
		// tinyint(1) is the MySQL boolean convention, but the width is
		// not reported here; keep the integer family
		return "SMALLINT"
	case "int", "mediumint":
		return "INTEGER"
	default:
		return canonicalType(dataType)
	}
}

// extractPrimaryKey extracts primary key columns
func (e *MySQLExtractor) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.database, tableName)
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
func (e *MySQLExtractor) extractRelationships(ctx context.Context, tableName string) ([]schema.Relationship, error) {
	query := `
		SELECT
			column_name,
			referenced_table_name,
			referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND referenced_table_name IS NOT NULL
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.database, tableName)
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

// extractIndexes extracts index information, skipping the primary key
// index MySQL reports under the reserved name PRIMARY
func (e *MySQLExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT
			index_name,
			non_unique,
			GROUP_CONCAT(column_name ORDER BY seq_in_index) AS column_names
		FROM information_schema.statistics
		WHERE table_schema = ?
			AND table_name = ?
			AND index_name != 'PRIMARY'
		GROUP BY index_name, non_unique
		ORDER BY index_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.database, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		var nonUnique int
		var columnNames string
		if err := rows.Scan(&idx.Name, &nonUnique, &columnNames); err != nil {
			return nil, err
		}
		idx.Unique = (nonUnique == 0)
		idx.Columns = strings.Split(columnNames, ",")
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}
