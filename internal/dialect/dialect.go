package dialect

import (
	"fmt"
	"strings"

	"github.com/skjelbred/schemakit/internal/schema"
)

// Dialect abstracts engine-specific SQL rendering. One strategy object
// per engine, selected once per operation; the generator never branches
// on dialect names itself.
type Dialect interface {
	Name() string

	// TypeName renders a canonical type token for this engine.
	// Returns an error for tokens the engine cannot express.
	TypeName(col *schema.Column) (string, error)

	// PrimaryKeyClause renders the inline primary key clause for a
	// single-column key, including the auto-increment keyword when the
	// column asks for one.
	PrimaryKeyClause(col *schema.Column) string

	// EnumAsCheck reports whether ENUM columns must be encoded as a
	// text column plus a CHECK (col IN (...)) constraint.
	EnumAsCheck() bool

	// InsertIgnoreQuery builds an idempotent single-row INSERT with
	// engine placeholders.
	InsertIgnoreQuery(table string, cols []string) string

	// InsertIgnoreSQL builds the same INSERT with pre-rendered literal
	// values, for text output.
	InsertIgnoreSQL(table string, cols, values []string) string

	// Placeholder returns the parameter marker for a 1-based index.
	Placeholder(index int) string

	// Literal renders a Go value as a SQL literal for DDL text
	// (DEFAULT clauses, seed statements rendered as text).
	Literal(v any) string
}

// Get returns the dialect strategy for a database.type value.
func Get(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3", "":
		return &SQLite{}, nil
	case "postgresql", "postgres":
		return &Postgres{}, nil
	case "mysql":
		return &MySQL{}, nil
	}
	return nil, fmt.Errorf("unsupported dialect %q (must be sqlite, postgresql, or mysql)", name)
}

// Ensure interface implementation
var _ Dialect = (*SQLite)(nil)
var _ Dialect = (*Postgres)(nil)
var _ Dialect = (*MySQL)(nil)

func unknownType(d Dialect, col *schema.Column) error {
	return fmt.Errorf("type %q has no %s rendering", col.Type, d.Name())
}

// quoteString renders a single-quoted SQL string literal with embedded
// quotes doubled.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// literal is the rendering shared by all three engines; booleans are
// the only divergence and each dialect handles them before delegating.
func literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		if strings.EqualFold(val, "CURRENT_TIMESTAMP") {
			return "CURRENT_TIMESTAMP"
		}
		return quoteString(val)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// enumList renders ENUM members as a quoted, comma-separated list in
// declaration order.
func enumList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteString(v)
	}
	return strings.Join(quoted, ", ")
}

// EnumCheckClause renders the CHECK constraint that encodes an ENUM
// column on engines without a native enum type. The member order is
// preserved exactly so extraction can reverse the encoding.
func EnumCheckClause(col *schema.Column) string {
	return fmt.Sprintf("CHECK (%s IN (%s))", col.Name, enumList(col.Values))
}
