// Package generate turns a schema model into an ordered sequence of
// executable SQL statements for a target dialect.
package generate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/skjelbred/schemakit/internal/dialect"
	"github.com/skjelbred/schemakit/internal/schema"
)

// Kind classifies a generated statement.
type Kind string

const (
	KindCreateTable Kind = "create_table"
	KindAlterTable  Kind = "alter_table"
	KindCreateIndex Kind = "create_index"
	KindInsert      Kind = "insert"
)

// Statement is one complete, independently executable SQL statement,
// without a trailing semicolon.
type Statement struct {
	Kind  Kind
	Table string
	SQL   string
}

// Error reports an unrenderable type or unresolvable reference found
// during generation.
type Error struct {
	Table  string
	Column string
	Detail string
}

func (e *Error) Error() string {
	loc := e.Table
	if e.Column != "" {
		loc += "." + e.Column
	}
	if loc != "" {
		return fmt.Sprintf("generation failed at %s: %s", loc, e.Detail)
	}
	return "generation failed: " + e.Detail
}

// foreignKey is a relationship resolved onto the table that carries the
// referencing column.
type foreignKey struct {
	name     string
	column   string
	refTable string
	refCol   string
	onDelete string
	onUpdate string
}

// Generate renders the schema as CREATE TABLE statements in dependency
// order, then deferred ALTER TABLE constraints, then CREATE INDEX
// statements, then one INSERT per seed row.
//
// Tables referenced as a relationship target are created before the
// tables that reference them; relationship cycles are broken by moving
// the cycle-closing foreign key out of its CREATE TABLE into an ALTER
// TABLE appended after all tables exist.
func Generate(s *schema.Schema, dialectName string) ([]Statement, error) {
	d, err := dialect.Get(dialectName)
	if err != nil {
		return nil, &Error{Detail: err.Error()}
	}

	fks, err := resolveForeignKeys(s)
	if err != nil {
		return nil, err
	}

	ordered, deferred := orderTables(s, fks)

	var stmts []Statement
	var alters []Statement
	for _, t := range ordered {
		inline, moved := splitDeferred(fks[t.Name], deferred[t.Name])
		sql, err := createTableSQL(d, t, inline)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, Statement{Kind: KindCreateTable, Table: t.Name, SQL: sql})
		for _, fk := range moved {
			alters = append(alters, Statement{
				Kind:  KindAlterTable,
				Table: t.Name,
				SQL:   alterAddForeignKeySQL(t.Name, fk),
			})
		}
	}
	stmts = append(stmts, alters...)

	for _, t := range ordered {
		for _, idx := range t.Indexes {
			stmts = append(stmts, Statement{
				Kind:  KindCreateIndex,
				Table: t.Name,
				SQL:   createIndexSQL(d, t.Name, idx),
			})
		}
	}

	inserts, err := seedInsertSQL(d, s)
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, inserts...)

	return stmts, nil
}

// Script renders the statements as a commented SQL script, one
// statement per line group, the way the schema file documents it.
func Script(s *schema.Schema, dialectName string) (string, error) {
	stmts, err := Generate(s, dialectName)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	desc := s.Database.Description
	if desc == "" {
		desc = "Database Schema"
	}
	fmt.Fprintf(&b, "-- %s\n", desc)
	fmt.Fprintf(&b, "-- Database: %s\n", s.Database.Name)
	if s.Database.Version != "" {
		fmt.Fprintf(&b, "-- Version: %s\n", s.Database.Version)
	}
	fmt.Fprintf(&b, "-- Dialect: %s\n", dialectName)

	var prev Kind
	for _, st := range stmts {
		if st.Kind != prev {
			b.WriteString("\n")
			switch st.Kind {
			case KindCreateTable:
				b.WriteString("-- ===== TABLES =====\n")
			case KindAlterTable:
				b.WriteString("-- ===== DEFERRED CONSTRAINTS =====\n")
			case KindCreateIndex:
				b.WriteString("-- ===== INDEXES =====\n")
			case KindInsert:
				b.WriteString("-- ===== SEED DATA =====\n")
			}
			prev = st.Kind
		} else if st.Kind == KindCreateTable {
			b.WriteString("\n")
		}
		b.WriteString(st.SQL)
		b.WriteString(";\n")
	}
	return b.String(), nil
}

// resolveForeignKeys validates relationship endpoints and groups the
// resulting foreign keys by the table that carries them. many-to-many
// relationships are not expressible as one declared foreign key and
// generate nothing.
func resolveForeignKeys(s *schema.Schema) (map[string][]foreignKey, error) {
	fks := make(map[string][]foreignKey)
	for _, rel := range s.Relationships {
		fromTable, fromCol, ok := schema.SplitRef(rel.From)
		if !ok {
			return nil, &Error{Detail: fmt.Sprintf("relationship %q has malformed 'from' reference %q", rel.Name, rel.From)}
		}
		toTable, toCol, ok := schema.SplitRef(rel.To)
		if !ok {
			return nil, &Error{Detail: fmt.Sprintf("relationship %q has malformed 'to' reference %q", rel.Name, rel.To)}
		}
		ft := s.Table(fromTable)
		if ft == nil || ft.Column(fromCol) == nil {
			return nil, &Error{Table: fromTable, Column: fromCol, Detail: fmt.Sprintf("relationship %q references unknown column", rel.Name)}
		}
		tt := s.Table(toTable)
		if tt == nil || tt.Column(toCol) == nil {
			return nil, &Error{Table: toTable, Column: toCol, Detail: fmt.Sprintf("relationship %q references unknown column", rel.Name)}
		}
		if rel.Type == schema.ManyToMany {
			continue
		}
		name := rel.Name
		if name == "" {
			name = fmt.Sprintf("fk_%s_%s", fromTable, toTable)
		}
		fks[fromTable] = append(fks[fromTable], foreignKey{
			name:     name,
			column:   fromCol,
			refTable: toTable,
			refCol:   toCol,
			onDelete: rel.OnDelete,
			onUpdate: rel.OnUpdate,
		})
	}
	return fks, nil
}

// orderTables sorts tables so referenced tables come first. Ties break
// alphabetically. When a dependency cycle stalls the sort, the
// alphabetically first remaining table is emitted anyway and its
// unsatisfiable foreign keys are marked deferred.
func orderTables(s *schema.Schema, fks map[string][]foreignKey) (ordered []*schema.Table, deferred map[string]map[string]bool) {
	deferred = make(map[string]map[string]bool)
	created := make(map[string]bool)

	remaining := make([]string, 0, len(s.Tables))
	for i := range s.Tables {
		remaining = append(remaining, s.Tables[i].Name)
	}
	sort.Strings(remaining)

	satisfied := func(name string) bool {
		for _, fk := range fks[name] {
			if fk.refTable != name && !created[fk.refTable] && !deferred[name][fk.name] {
				return false
			}
		}
		return true
	}

	for len(remaining) > 0 {
		emitted := false
		for i, name := range remaining {
			if satisfied(name) {
				ordered = append(ordered, s.Table(name))
				created[name] = true
				remaining = append(remaining[:i], remaining[i+1:]...)
				emitted = true
				break
			}
		}
		if emitted {
			continue
		}
		// Cycle: defer the blocked foreign keys of the first remaining
		// table and retry.
		name := remaining[0]
		if deferred[name] == nil {
			deferred[name] = make(map[string]bool)
		}
		for _, fk := range fks[name] {
			if fk.refTable != name && !created[fk.refTable] {
				deferred[name][fk.name] = true
			}
		}
	}
	return ordered, deferred
}

func splitDeferred(all []foreignKey, deferredNames map[string]bool) (inline, moved []foreignKey) {
	for _, fk := range all {
		if deferredNames[fk.name] {
			moved = append(moved, fk)
		} else {
			inline = append(inline, fk)
		}
	}
	return inline, moved
}

func createTableSQL(d dialect.Dialect, t *schema.Table, fks []foreignKey) (string, error) {
	pk := t.PrimaryKey()
	composite := len(pk) > 1

	var lines []string
	for i := range t.Columns {
		col := &t.Columns[i]
		def, err := columnSQL(d, t.Name, col, composite)
		if err != nil {
			return "", err
		}
		lines = append(lines, "    "+def)
	}
	if composite {
		lines = append(lines, fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}
	for _, fk := range fks {
		clause := fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s(%s)", fk.column, fk.refTable, fk.refCol)
		if fk.onDelete != "" {
			clause += " ON DELETE " + fk.onDelete
		}
		if fk.onUpdate != "" {
			clause += " ON UPDATE " + fk.onUpdate
		}
		lines = append(lines, clause)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", t.Name, strings.Join(lines, ",\n")), nil
}

func columnSQL(d dialect.Dialect, tableName string, col *schema.Column, compositePK bool) (string, error) {
	if col.IsEnum() && len(col.Values) == 0 {
		return "", &Error{Table: tableName, Column: col.Name, Detail: "ENUM column has no values"}
	}
	typeName, err := d.TypeName(col)
	if err != nil {
		return "", &Error{Table: tableName, Column: col.Name, Detail: err.Error()}
	}

	parts := []string{col.Name, typeName}
	if col.PrimaryKey && !compositePK {
		parts = append(parts, d.PrimaryKeyClause(col))
	}
	if !col.Nullable && !col.PrimaryKey {
		parts = append(parts, "NOT NULL")
	}
	if col.Unique {
		parts = append(parts, "UNIQUE")
	}
	if col.HasDefault {
		parts = append(parts, "DEFAULT "+d.Literal(col.Default))
	}
	if col.IsEnum() && d.EnumAsCheck() {
		parts = append(parts, dialect.EnumCheckClause(col))
	} else if col.Check != "" {
		parts = append(parts, fmt.Sprintf("CHECK (%s)", col.Check))
	}
	return strings.Join(parts, " "), nil
}

func alterAddForeignKeySQL(table string, fk foreignKey) string {
	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		table, fk.name, fk.column, fk.refTable, fk.refCol)
	if fk.onDelete != "" {
		sql += " ON DELETE " + fk.onDelete
	}
	if fk.onUpdate != "" {
		sql += " ON UPDATE " + fk.onUpdate
	}
	return sql
}

func createIndexSQL(d dialect.Dialect, table string, idx schema.Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	// MySQL has no IF NOT EXISTS for indexes.
	ifNotExists := "IF NOT EXISTS "
	if d.Name() == "mysql" {
		ifNotExists = ""
	}
	return fmt.Sprintf("CREATE %sINDEX %s%s ON %s (%s)", unique, ifNotExists, idx.Name, table, strings.Join(idx.Columns, ", "))
}

// seedInsertSQL renders one INSERT per seed row, tables alphabetically,
// rows in declaration order. Row values follow the owning table's
// column declaration order so output is deterministic.
func seedInsertSQL(d dialect.Dialect, s *schema.Schema) ([]Statement, error) {
	if len(s.SeedData) == 0 {
		return nil, nil
	}
	tables := make([]string, 0, len(s.SeedData))
	for name := range s.SeedData {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	var stmts []Statement
	for _, name := range tables {
		t := s.Table(name)
		if t == nil {
			return nil, &Error{Table: name, Detail: "seed data references unknown table"}
		}
		for _, row := range s.SeedData[name] {
			cols, vals := orderedRow(d, t, row)
			stmts = append(stmts, Statement{Kind: KindInsert, Table: name, SQL: d.InsertIgnoreSQL(name, cols, vals)})
		}
	}
	return stmts, nil
}

// orderedRow returns the row's columns and rendered literals, declared
// columns first in table order, then any unknown keys alphabetically.
// Unknown keys still render so materialization can report the failing
// statement instead of silently dropping data.
func orderedRow(d dialect.Dialect, t *schema.Table, row schema.SeedRow) (cols, vals []string) {
	for _, c := range t.Columns {
		if v, ok := row[c.Name]; ok {
			cols = append(cols, c.Name)
			vals = append(vals, d.Literal(v))
		}
	}
	var extras []string
	for k := range row {
		if t.Column(k) == nil {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		cols = append(cols, k)
		vals = append(vals, d.Literal(row[k]))
	}
	return cols, vals
}
