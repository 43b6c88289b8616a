package dialect

import (
	"fmt"
	"strings"

	"github.com/skjelbred/schemakit/internal/schema"
)

// SQLite is the only dialect with full round-trip support: generated
// DDL can be materialized and extracted back into the same model.
type SQLite struct{}

func (d *SQLite) Name() string { return "sqlite" }

func (d *SQLite) TypeName(col *schema.Column) (string, error) {
	base := schema.BaseType(col.Type)
	switch base {
	case "INTEGER", "INT", "BIGINT", "SMALLINT":
		// The rowid alias (and AUTOINCREMENT) only works on the exact
		// spelling INTEGER, so all integer tokens collapse to it.
		return "INTEGER", nil
	case "REAL", "FLOAT", "DOUBLE":
		return "REAL", nil
	case "DECIMAL", "NUMERIC":
		if args := schema.TypeArgs(col.Type); args != "" {
			return fmt.Sprintf("DECIMAL(%s)", args), nil
		}
		return "DECIMAL", nil
	case "VARCHAR", "CHAR":
		if args := schema.TypeArgs(col.Type); args != "" {
			return fmt.Sprintf("%s(%s)", base, args), nil
		}
		return base, nil
	case "TEXT":
		return "TEXT", nil
	case "BOOLEAN":
		return "BOOLEAN", nil
	case "DATETIME", "DATE", "TIMESTAMP", "TIME":
		return base, nil
	case "JSON":
		// SQLite stores JSON as TEXT.
		return "TEXT", nil
	case "ENUM":
		// No native enum; rendered as TEXT plus a CHECK constraint.
		return "TEXT", nil
	case "BLOB":
		return "BLOB", nil
	}
	return "", unknownType(d, col)
}

func (d *SQLite) PrimaryKeyClause(col *schema.Column) string {
	if col.AutoIncrement {
		return "PRIMARY KEY AUTOINCREMENT"
	}
	return "PRIMARY KEY"
}

func (d *SQLite) EnumAsCheck() bool { return true }

func (d *SQLite) InsertIgnoreQuery(table string, cols []string) string {
	vals := placeholders(len(cols), d.Placeholder)
	return fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), vals)
}

func (d *SQLite) InsertIgnoreSQL(table string, cols, values []string) string {
	return fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(values, ", "))
}

func (d *SQLite) Placeholder(index int) string { return "?" }

func (d *SQLite) Literal(v any) string {
	if b, ok := v.(bool); ok {
		if b {
			return "1"
		}
		return "0"
	}
	return literal(v)
}

func placeholders(n int, ph func(int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = ph(i + 1)
	}
	return strings.Join(parts, ", ")
}
