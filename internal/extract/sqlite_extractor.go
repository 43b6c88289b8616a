package extract

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/skjelbred/schemakit/internal/schema"
)

// SQLiteExtractor handles schema extraction from a live SQLite database.
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractSchema extracts the complete schema for specified tables.
// If tables is empty, extracts all tables in the database.
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, path string, tables []string) (*schema.Schema, error) {
	s := &schema.Schema{
		Database: schema.Database{
			Name:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Type:        "sqlite",
			Version:     "1.0.0",
			Description: fmt.Sprintf("Schema extracted from %s", path),
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
func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

// extractTable extracts all information for a single table, including
// the relationships its declared foreign keys prove.
func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, []schema.Relationship, error) {
	table := &schema.Table{Name: tableName}

	createSQL, err := e.createStatement(ctx, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read create statement: %w", err)
	}

	columns, err := e.extractColumns(ctx, tableName, createSQL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns

	if err := e.applyUniqueConstraints(ctx, table); err != nil {
		return nil, nil, fmt.Errorf("failed to extract unique constraints: %w", err)
	}

	indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes

	rels, err := e.extractRelationships(ctx, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}

	return table, rels, nil
}

// createStatement reads the stored CREATE TABLE text, the only place
// SQLite keeps CHECK constraints and the AUTOINCREMENT keyword.
func (e *SQLiteExtractor) createStatement(ctx context.Context, tableName string) (string, error) {
	var createSQL sql.NullString
	err := e.client.GetDB().QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, tableName,
	).Scan(&createSQL)
	if err != nil {
		return "", err
	}
	return createSQL.String, nil
}

// extractColumns extracts column information for a table
func (e *SQLiteExtractor) extractColumns(ctx context.Context, tableName, createSQL string) ([]schema.Column, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", tableName)

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}

		col := schema.Column{
			Name:       name,
			Type:       canonicalType(colType),
			Nullable:   notNull == 0,
			PrimaryKey: pk > 0,
		}
		// Primary keys are never nullable, whatever PRAGMA says about
		// the rowid alias.
		if col.PrimaryKey {
			col.Nullable = false
			col.AutoIncrement = hasAutoincrement(createSQL, name)
		}

		if defaultValue.Valid {
			col.HasDefault = true
			col.Default = parseDefaultLiteral(defaultValue.String)
		}

		// Reverse the ENUM-as-CHECK encoding.
		if values := enumValuesFromCreateSQL(createSQL, name); len(values) > 0 {
			col.Type = "ENUM"
			col.Values = values
		} else if check := opaqueCheckFor(createSQL, name); check != "" {
			col.Check = check
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// hasAutoincrement reports whether the named column's definition
// carries the AUTOINCREMENT keyword.
func hasAutoincrement(createSQL, columnName string) bool {
	pattern := fmt.Sprintf(`(?i)(?:^|[(,\s])"?%s"?\s+INTEGER\s+PRIMARY\s+KEY\s+AUTOINCREMENT`, regexp.QuoteMeta(columnName))
	return regexp.MustCompile(pattern).MatchString(createSQL)
}

var anyCheckRe = regexp.MustCompile(`(?i)CHECK\s*\(`)

// opaqueCheckFor returns a CHECK expression attached to the column that
// is not the ENUM encoding, so it can surface as a validation warning
// instead of disappearing.
func opaqueCheckFor(createSQL, columnName string) string {
	for _, loc := range anyCheckRe.FindAllStringIndex(createSQL, -1) {
		expr, ok := balancedParen(createSQL[loc[1]-1:])
		if !ok {
			continue
		}
		inner := strings.TrimSpace(expr[1 : len(expr)-1])
		first := strings.FieldsFunc(inner, func(r rune) bool {
			return r == ' ' || r == '(' || r == '<' || r == '>' || r == '=' || r == '!'
		})
		if len(first) == 0 || strings.Trim(first[0], `"`) != columnName {
			continue
		}
		if enumValuesFromCheck(columnName, inner) != nil {
			continue
		}
		return inner
	}
	return ""
}

// balancedParen returns the parenthesized group starting at s[0] == '('.
func balancedParen(s string) (string, bool) {
	depth := 0
	inQuote := false
	for i, r := range s {
		switch {
		case inQuote:
			if r == '\'' {
				inQuote = false
			}
		case r == '\'':
			inQuote = true
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// applyUniqueConstraints marks columns covered by a single-column
// unique constraint the engine materialized as an automatic index.
// Named unique indexes stay in the index list instead.
func (e *SQLiteExtractor) applyUniqueConstraints(ctx context.Context, table *schema.Table) error {
	query := fmt.Sprintf("PRAGMA index_list(%s)", table.Name)
	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	type autoIndex struct {
		name   string
		origin string
	}
	var autos []autoIndex
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return err
		}
		if unique == 1 && origin == "u" && strings.HasPrefix(name, "sqlite_autoindex") {
			autos = append(autos, autoIndex{name: name, origin: origin})
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, ai := range autos {
		cols, err := e.indexColumns(ctx, ai.name)
		if err != nil {
			return err
		}
		if len(cols) != 1 {
			continue
		}
		if col := table.Column(cols[0]); col != nil {
			col.Unique = true
		}
	}
	return nil
}

// extractIndexes extracts explicitly created indexes, skipping the
// automatic ones backing PRIMARY KEY and UNIQUE constraints.
func (e *SQLiteExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", tableName)

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type listed struct {
		name   string
		unique bool
	}
	var names []listed
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		if strings.HasPrefix(name, "sqlite_autoindex") {
			continue
		}
		names = append(names, listed{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []schema.Index
	for _, l := range names {
		columns, err := e.indexColumns(ctx, l.name)
		if err != nil {
			return nil, err
		}
		if len(columns) > 0 {
			indexes = append(indexes, schema.Index{
				Name:    l.name,
				Unique:  l.unique,
				Columns: columns,
			})
		}
	}
	return indexes, nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA index_info(%s)", indexName)
	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString
		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}
	return columns, rows.Err()
}

// extractRelationships recovers relationships from declared foreign
// keys only; nothing is inferred.
func (e *SQLiteExtractor) extractRelationships(ctx context.Context, tableName string) ([]schema.Relationship, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", tableName)

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []schema.Relationship

	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, toCol, onUpdate, onDelete, match string

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		rel := schema.Relationship{
			Name: relationshipName(tableName, targetTable),
			From: fmt.Sprintf("%s.%s", tableName, fromCol),
			To:   fmt.Sprintf("%s.%s", targetTable, toCol),
			Type: schema.ManyToOne,
		}
		if !strings.EqualFold(onDelete, "NO ACTION") && onDelete != "" {
			rel.OnDelete = onDelete
		}
		if !strings.EqualFold(onUpdate, "NO ACTION") && onUpdate != "" {
			rel.OnUpdate = onUpdate
		}

		rels = append(rels, rel)
	}

	return rels, rows.Err()
}
