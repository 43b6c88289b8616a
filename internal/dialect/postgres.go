package dialect

import (
	"fmt"
	"strings"

	"github.com/skjelbred/schemakit/internal/schema"
)

// Postgres generates DDL text only; materialization and extraction of a
// live database still work through the extract package's pgx path.
type Postgres struct{}

func (d *Postgres) Name() string { return "postgresql" }

func (d *Postgres) TypeName(col *schema.Column) (string, error) {
	base := schema.BaseType(col.Type)
	switch base {
	case "INTEGER", "INT":
		return "INTEGER", nil
	case "BIGINT", "SMALLINT":
		return base, nil
	case "REAL":
		return "REAL", nil
	case "FLOAT", "DOUBLE":
		return "DOUBLE PRECISION", nil
	case "DECIMAL", "NUMERIC":
		if args := schema.TypeArgs(col.Type); args != "" {
			return fmt.Sprintf("NUMERIC(%s)", args), nil
		}
		return "NUMERIC", nil
	case "VARCHAR", "CHAR":
		if args := schema.TypeArgs(col.Type); args != "" {
			return fmt.Sprintf("%s(%s)", base, args), nil
		}
		return "TEXT", nil
	case "TEXT":
		return "TEXT", nil
	case "BOOLEAN":
		return "BOOLEAN", nil
	case "DATETIME", "TIMESTAMP":
		return "TIMESTAMP", nil
	case "DATE", "TIME":
		return base, nil
	case "JSON":
		return "JSONB", nil
	case "ENUM":
		// Encoded as TEXT + CHECK rather than CREATE TYPE so a single
		// CREATE TABLE statement stays self-contained.
		return "TEXT", nil
	case "BLOB":
		return "BYTEA", nil
	}
	return "", unknownType(d, col)
}

func (d *Postgres) PrimaryKeyClause(col *schema.Column) string {
	if col.AutoIncrement {
		return "PRIMARY KEY GENERATED BY DEFAULT AS IDENTITY"
	}
	return "PRIMARY KEY"
}

func (d *Postgres) EnumAsCheck() bool { return true }

func (d *Postgres) InsertIgnoreQuery(table string, cols []string) string {
	vals := placeholders(len(cols), d.Placeholder)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING", table, strings.Join(cols, ", "), vals)
}

func (d *Postgres) InsertIgnoreSQL(table string, cols, values []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING", table, strings.Join(cols, ", "), strings.Join(values, ", "))
}

func (d *Postgres) Placeholder(index int) string { return fmt.Sprintf("$%d", index) }

func (d *Postgres) Literal(v any) string {
	if b, ok := v.(bool); ok {
		if b {
			return "TRUE"
		}
		return "FALSE"
	}
	return literal(v)
}
