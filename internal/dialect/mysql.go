package dialect

import (
	"fmt"
	"strings"

	"github.com/skjelbred/schemakit/internal/schema"
)

// MySQL generates DDL text only. It is the one engine here with a
// native ENUM type, so the CHECK-constraint encoding is skipped.
type MySQL struct{}

func (d *MySQL) Name() string { return "mysql" }

func (d *MySQL) TypeName(col *schema.Column) (string, error) {
	base := schema.BaseType(col.Type)
	switch base {
	case "INTEGER", "INT":
		return "INT", nil
	case "BIGINT", "SMALLINT":
		return base, nil
	case "REAL", "DOUBLE":
		return "DOUBLE", nil
	case "FLOAT":
		return "FLOAT", nil
	case "DECIMAL", "NUMERIC":
		if args := schema.TypeArgs(col.Type); args != "" {
			return fmt.Sprintf("DECIMAL(%s)", args), nil
		}
		return "DECIMAL", nil
	case "VARCHAR":
		if args := schema.TypeArgs(col.Type); args != "" {
			return fmt.Sprintf("VARCHAR(%s)", args), nil
		}
		// MySQL requires a length.
		return "VARCHAR(255)", nil
	case "CHAR":
		if args := schema.TypeArgs(col.Type); args != "" {
			return fmt.Sprintf("CHAR(%s)", args), nil
		}
		return "CHAR(1)", nil
	case "TEXT":
		return "TEXT", nil
	case "BOOLEAN":
		return "BOOLEAN", nil
	case "DATETIME", "DATE", "TIMESTAMP", "TIME":
		return base, nil
	case "JSON":
		return "JSON", nil
	case "ENUM":
		if len(col.Values) == 0 {
			return "", fmt.Errorf("ENUM column %q has no values", col.Name)
		}
		return fmt.Sprintf("ENUM(%s)", enumList(col.Values)), nil
	case "BLOB":
		return "BLOB", nil
	}
	return "", unknownType(d, col)
}

func (d *MySQL) PrimaryKeyClause(col *schema.Column) string {
	if col.AutoIncrement {
		return "PRIMARY KEY AUTO_INCREMENT"
	}
	return "PRIMARY KEY"
}

func (d *MySQL) EnumAsCheck() bool { return false }

func (d *MySQL) InsertIgnoreQuery(table string, cols []string) string {
	vals := placeholders(len(cols), d.Placeholder)
	return fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), vals)
}

func (d *MySQL) InsertIgnoreSQL(table string, cols, values []string) string {
	return fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(values, ", "))
}

func (d *MySQL) Placeholder(index int) string { return "?" }

func (d *MySQL) Literal(v any) string {
	if b, ok := v.(bool); ok {
		if b {
			return "1"
		}
		return "0"
	}
	return literal(v)
}
