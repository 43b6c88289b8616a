package schema

import (
	"regexp"
	"strings"
)

// Family groups canonical type tokens for compatibility checks. The
// Validator and Comparator compare families, never raw type text, so a
// VARCHAR(50) model field and a TEXT database column still match.
type Family string

const (
	FamilyInteger  Family = "integer"
	FamilyDecimal  Family = "decimal"
	FamilyText     Family = "text"
	FamilyBoolean  Family = "boolean"
	FamilyDatetime Family = "datetime"
	FamilyEnum     Family = "enum"
	FamilyJSON     Family = "json"
	FamilyBlob     Family = "blob"
	FamilyUnknown  Family = "unknown"
)

// families maps each canonical type token to its family. Read-only
// after package init; every other package resolves types through it.
var families = map[string]Family{
	"INTEGER":   FamilyInteger,
	"INT":       FamilyInteger,
	"BIGINT":    FamilyInteger,
	"SMALLINT":  FamilyInteger,
	"REAL":      FamilyDecimal,
	"FLOAT":     FamilyDecimal,
	"DOUBLE":    FamilyDecimal,
	"DECIMAL":   FamilyDecimal,
	"NUMERIC":   FamilyDecimal,
	"VARCHAR":   FamilyText,
	"CHAR":      FamilyText,
	"TEXT":      FamilyText,
	"BOOLEAN":   FamilyBoolean,
	"DATETIME":  FamilyDatetime,
	"DATE":      FamilyDatetime,
	"TIMESTAMP": FamilyDatetime,
	"TIME":      FamilyDatetime,
	"ENUM":      FamilyEnum,
	"JSON":      FamilyJSON,
	"BLOB":      FamilyBlob,
}

var sizeSpec = regexp.MustCompile(`^([A-Za-z]+)\s*\(([^)]*)\)$`)

// BaseType strips a size specifier from a type token: VARCHAR(255)
// becomes VARCHAR. The token is upper-cased for lookup.
func BaseType(typ string) string {
	t := strings.ToUpper(strings.TrimSpace(typ))
	if m := sizeSpec.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	return t
}

// TypeArgs returns the parenthesized argument text of a type token, if
// any: VARCHAR(255) yields "255".
func TypeArgs(typ string) string {
	t := strings.TrimSpace(typ)
	if m := sizeSpec.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[2])
	}
	return ""
}

// FamilyOf resolves a type token (with or without a size specifier) to
// its family. Unregistered tokens report FamilyUnknown.
func FamilyOf(typ string) Family {
	if f, ok := families[BaseType(typ)]; ok {
		return f
	}
	return FamilyUnknown
}

// KnownType reports whether the token is registered.
func KnownType(typ string) bool {
	_, ok := families[BaseType(typ)]
	return ok
}

// Compatible reports whether two type tokens belong to the same family.
// Unknown tokens are never compatible with anything, including each
// other, so static-parse ambiguity surfaces instead of silently passing.
func Compatible(a, b string) bool {
	fa, fb := FamilyOf(a), FamilyOf(b)
	if fa == FamilyUnknown || fb == FamilyUnknown {
		return false
	}
	// ENUM columns are physically text in most engines; treat the two
	// families as interchangeable for comparison purposes.
	if (fa == FamilyEnum && fb == FamilyText) || (fa == FamilyText && fb == FamilyEnum) {
		return true
	}
	return fa == fb
}
