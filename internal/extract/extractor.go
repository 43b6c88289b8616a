// Package extract recovers a schema model from a live database catalog
// or from raw DDL text.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/skjelbred/schemakit/internal/schema"
)

// Error reports an unparsable statement or catalog shape.
type Error struct {
	Statement string
	Detail    string
}

func (e *Error) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("extraction failed on %q: %s", truncate(e.Statement, 80), e.Detail)
	}
	return "extraction failed: " + e.Detail
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

// relationshipName is the deterministic name given to relationships
// recovered from declared foreign keys.
func relationshipName(fromTable, toTable string) string {
	return fmt.Sprintf("%s_to_%s", fromTable, toTable)
}

var enumValueRe = regexp.MustCompile(`'((?:[^']|'')*)'`)

// enumValuesFromCheck recognizes the CHECK expression form
// "col IN ('a', 'b')" and returns the member list in declared order, or
// nil when the expression is something else. Quoting is normalized:
// doubled quotes inside members collapse back to one.
func enumValuesFromCheck(columnName, checkExpr string) []string {
	pattern := fmt.Sprintf(`(?i)^\s*"?%s"?\s+IN\s*\(\s*([^)]+)\)\s*$`, regexp.QuoteMeta(columnName))
	m := regexp.MustCompile(pattern).FindStringSubmatch(checkExpr)
	if m == nil {
		return nil
	}
	var values []string
	for _, v := range enumValueRe.FindAllStringSubmatch(m[1], -1) {
		values = append(values, strings.ReplaceAll(v[1], "''", "'"))
	}
	return values
}

// enumValuesFromCreateSQL scans a full CREATE TABLE statement for the
// ENUM CHECK pattern attached to the given column.
func enumValuesFromCreateSQL(createSQL, columnName string) []string {
	pattern := fmt.Sprintf(`(?i)CHECK\s*\(\s*"?%s"?\s+IN\s*\(\s*([^)]+)\)\s*\)`, regexp.QuoteMeta(columnName))
	m := regexp.MustCompile(pattern).FindStringSubmatch(createSQL)
	if m == nil {
		return nil
	}
	var values []string
	for _, v := range enumValueRe.FindAllStringSubmatch(m[1], -1) {
		values = append(values, strings.ReplaceAll(v[1], "''", "'"))
	}
	return values
}

// parseDefaultLiteral converts a catalog default-value string into a
// typed literal: quoted text unwraps, integers and floats parse to
// numbers, CURRENT_TIMESTAMP stays symbolic.
func parseDefaultLiteral(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "NULL") {
		return nil
	}
	if strings.HasPrefix(raw, "'") && strings.HasSuffix(raw, "'") && len(raw) >= 2 {
		return strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
	}
	if strings.EqualFold(raw, "CURRENT_TIMESTAMP") {
		return "CURRENT_TIMESTAMP"
	}
	if strings.EqualFold(raw, "TRUE") {
		return true
	}
	if strings.EqualFold(raw, "FALSE") {
		return false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// canonicalType maps an engine type name back to the canonical token.
// Size specifiers on VARCHAR/CHAR/DECIMAL survive the mapping.
func canonicalType(engineType string) string {
	base := schema.BaseType(engineType)
	args := schema.TypeArgs(engineType)
	var token string
	switch base {
	case "INT", "INTEGER", "INT4", "SERIAL", "TINYINT", "MEDIUMINT":
		token = "INTEGER"
	case "BIGINT", "INT8", "BIGSERIAL":
		token = "BIGINT"
	case "SMALLINT", "INT2":
		token = "SMALLINT"
	case "REAL", "FLOAT4":
		token = "REAL"
	case "FLOAT", "DOUBLE", "FLOAT8":
		token = "FLOAT"
	case "DECIMAL", "NUMERIC":
		token = "DECIMAL"
	case "VARCHAR", "NVARCHAR", "CHARACTER":
		token = "VARCHAR"
	case "CHAR", "BPCHAR":
		token = "CHAR"
	case "TEXT", "CLOB", "LONGTEXT", "MEDIUMTEXT", "TINYTEXT":
		token = "TEXT"
	case "BOOLEAN", "BOOL":
		token = "BOOLEAN"
	case "DATETIME":
		token = "DATETIME"
	case "DATE":
		token = "DATE"
	case "TIMESTAMP", "TIMESTAMPTZ":
		token = "TIMESTAMP"
	case "TIME", "TIMETZ":
		token = "TIME"
	case "JSON", "JSONB":
		token = "JSON"
	case "BLOB", "BYTEA", "BINARY", "VARBINARY", "LONGBLOB":
		token = "BLOB"
	case "ENUM":
		return "ENUM"
	default:
		token = base
	}
	if args != "" && (token == "VARCHAR" || token == "CHAR" || token == "DECIMAL") {
		return fmt.Sprintf("%s(%s)", token, args)
	}
	return token
}
