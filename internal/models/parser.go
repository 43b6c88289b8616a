// Package models statically extracts table shapes from GORM-style
// model source files and diffs them against a schema. Parsing never
// executes the source; fields whose column type cannot be resolved
// from the AST are marked unknown rather than guessed.
package models

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// UnknownType marks a column whose type could not be resolved
// statically.
const UnknownType = "unknown"

// ModelDescriptor is the comparable shape of one model struct. It is
// deliberately looser than a schema column: static parsing recovers
// names and type families, not constraint fidelity.
type ModelDescriptor struct {
	Name      string            `json:"name"`
	TableName string            `json:"table_name"`
	Columns   map[string]string `json:"columns"`
	File      string            `json:"file"`
}

// ParseFiles parses every given Go source file and returns the model
// descriptors found, in declaration order per file.
func ParseFiles(paths []string) ([]ModelDescriptor, error) {
	var all []ModelDescriptor
	for _, path := range paths {
		descriptors, err := parseFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		all = append(all, descriptors...)
	}
	return all, nil
}

func parseFile(path string) ([]ModelDescriptor, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	tableNames := tableNameMethods(file)

	var descriptors []ModelDescriptor
	ast.Inspect(file, func(n ast.Node) bool {
		typeSpec, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		structType, ok := typeSpec.Type.(*ast.StructType)
		if !ok {
			return true
		}

		name := typeSpec.Name.Name
		d := ModelDescriptor{
			Name:    name,
			Columns: map[string]string{},
			File:    path,
		}
		if table, ok := tableNames[name]; ok {
			d.TableName = table
		} else {
			d.TableName = inflection.Plural(toSnakeCase(name))
		}

		for _, field := range structType.Fields.List {
			addField(&d, field)
		}
		descriptors = append(descriptors, d)
		return true
	})

	return descriptors, nil
}

// tableNameMethods collects `func (X) TableName() string` methods that
// return a single string literal, the GORM override for table naming.
func tableNameMethods(file *ast.File) map[string]string {
	names := map[string]string{}
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Name.Name != "TableName" || fn.Recv == nil || len(fn.Recv.List) == 0 {
			continue
		}
		recv := receiverName(fn.Recv.List[0].Type)
		if recv == "" {
			continue
		}
		lit := singleStringReturn(fn)
		if lit != "" {
			names[recv] = lit
		}
	}
	return names
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name
		}
	}
	return ""
}

func singleStringReturn(fn *ast.FuncDecl) string {
	if fn.Body == nil || len(fn.Body.List) != 1 {
		return ""
	}
	ret, ok := fn.Body.List[0].(*ast.ReturnStmt)
	if !ok || len(ret.Results) != 1 {
		return ""
	}
	lit, ok := ret.Results[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return ""
	}
	return strings.Trim(lit.Value, `"`)
}

// addField maps one struct field to a column entry. Embedded fields
// and gorm:"-" fields are skipped; association fields (struct or slice
// of struct types) do not map to columns and are skipped too.
func addField(d *ModelDescriptor, field *ast.Field) {
	if len(field.Names) == 0 {
		return
	}
	tag := gormTag(field)
	if tag["-"] == "-" {
		return
	}

	colType, isColumn := columnType(field.Type, tag)
	if !isColumn {
		return
	}

	for _, name := range field.Names {
		if !name.IsExported() {
			continue
		}
		colName := tag["column"]
		if colName == "" {
			colName = toSnakeCase(name.Name)
		}
		d.Columns[colName] = colType
	}
}

// gormTag parses the gorm struct tag into key/value pairs; bare flags
// map to themselves.
func gormTag(field *ast.Field) map[string]string {
	out := map[string]string{}
	if field.Tag == nil {
		return out
	}
	raw := strings.Trim(field.Tag.Value, "`")
	value, ok := lookupTag(raw, "gorm")
	if !ok {
		return out
	}
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if k, v, found := strings.Cut(part, ":"); found {
			out[strings.ToLower(k)] = v
		} else {
			out[strings.ToLower(part)] = part
		}
	}
	return out
}

// lookupTag extracts one conventional key from a raw struct tag
// string, the same way reflect.StructTag does.
func lookupTag(tag, key string) (string, bool) {
	for tag != "" {
		tag = strings.TrimLeft(tag, " ")
		i := strings.Index(tag, ":")
		if i < 0 {
			break
		}
		name := tag[:i]
		rest := tag[i+1:]
		if len(rest) == 0 || rest[0] != '"' {
			break
		}
		end := strings.Index(rest[1:], `"`)
		if end < 0 {
			break
		}
		value := rest[1 : end+1]
		if name == key {
			return value, true
		}
		tag = rest[end+2:]
	}
	return "", false
}

// columnType resolves a field's canonical column type. The second
// return is false for association fields that do not map to a column.
func columnType(expr ast.Expr, tag map[string]string) (string, bool) {
	if t := tag["type"]; t != "" {
		return strings.ToUpper(t), true
	}

	switch t := expr.(type) {
	case *ast.Ident:
		if canonical, ok := goTypeTokens[t.Name]; ok {
			return canonical, true
		}
		// Named type declared in the same file: a struct is an
		// association, a named basic type resolves to its underlying
		// type, anything else stays unknown.
		if t.Obj != nil {
			if ts, ok := t.Obj.Decl.(*ast.TypeSpec); ok {
				switch u := ts.Type.(type) {
				case *ast.StructType:
					return "", false
				case *ast.Ident:
					if canonical, ok := goTypeTokens[u.Name]; ok {
						return canonical, true
					}
				}
			}
		}
		return UnknownType, true
	case *ast.StarExpr:
		return columnType(t.X, tag)
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			full := pkg.Name + "." + t.Sel.Name
			if canonical, ok := goTypeTokens[full]; ok {
				return canonical, true
			}
		}
		return UnknownType, true
	case *ast.ArrayType:
		if ident, ok := t.Elt.(*ast.Ident); ok && ident.Name == "byte" {
			return "BLOB", true
		}
		// Slice of models: a has-many association, not a column.
		return "", false
	}
	return UnknownType, true
}

var goTypeTokens = map[string]string{
	"int":            "INTEGER",
	"int8":           "INTEGER",
	"int16":          "INTEGER",
	"int32":          "INTEGER",
	"int64":          "INTEGER",
	"uint":           "INTEGER",
	"uint8":          "INTEGER",
	"uint16":         "INTEGER",
	"uint32":         "INTEGER",
	"uint64":         "INTEGER",
	"string":         "TEXT",
	"bool":           "BOOLEAN",
	"float32":        "REAL",
	"float64":        "REAL",
	"time.Time":      "DATETIME",
	"sql.NullString": "TEXT",
	"sql.NullInt64":  "INTEGER",
	"sql.NullBool":   "BOOLEAN",
	"sql.NullTime":   "DATETIME",
}

func toSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && !unicode.IsUpper(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
