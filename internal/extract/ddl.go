package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/skjelbred/schemakit/internal/schema"
)

// ParseDDL parses raw DDL text into a schema model. Statement
// boundaries come from a quote- and comment-aware scanner rather than a
// naive split, since CREATE TABLE bodies and CHECK expressions can
// carry semicolons inside string literals and commas inside parens.
//
// Recognized statements: CREATE TABLE, CREATE INDEX, ALTER TABLE ...
// ADD CONSTRAINT ... FOREIGN KEY, and INSERT (captured as seed data).
// Anything else fails with an *Error naming the statement.
func ParseDDL(text string) (*schema.Schema, error) {
	s := &schema.Schema{
		Database: schema.Database{
			Name:        "extracted",
			Type:        "sqlite",
			Version:     "1.0.0",
			Description: "Schema extracted from DDL text",
		},
	}

	for _, stmt := range SplitStatements(text) {
		upper := strings.ToUpper(stmt)
		switch {
		case strings.HasPrefix(upper, "CREATE TABLE"):
			if err := parseCreateTable(s, stmt); err != nil {
				return nil, err
			}
		case strings.HasPrefix(upper, "CREATE INDEX"), strings.HasPrefix(upper, "CREATE UNIQUE INDEX"):
			if err := parseCreateIndex(s, stmt); err != nil {
				return nil, err
			}
		case strings.HasPrefix(upper, "ALTER TABLE"):
			if err := parseAlterTable(s, stmt); err != nil {
				return nil, err
			}
		case strings.HasPrefix(upper, "INSERT"):
			if err := parseInsert(s, stmt); err != nil {
				return nil, err
			}
		default:
			return nil, &Error{Statement: stmt, Detail: "unrecognized statement"}
		}
	}
	return s, nil
}

// SplitStatements splits SQL text into statements on semicolons that
// sit outside string literals, dropping -- comments and blank pieces.
func SplitStatements(text string) []string {
	var stmts []string
	var cur strings.Builder

	for _, line := range strings.Split(text, "\n") {
		line = stripLineComment(line)
		for _, r := range line {
			if r == ';' && !insideQuote(cur.String()) {
				if s := strings.TrimSpace(cur.String()); s != "" {
					stmts = append(stmts, s)
				}
				cur.Reset()
				continue
			}
			cur.WriteRune(r)
		}
		cur.WriteRune('\n')
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

// stripLineComment removes a -- comment unless the dashes sit inside a
// string literal.
func stripLineComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\'':
			inQuote = !inQuote
		case !inQuote && line[i] == '-' && i+1 < len(line) && line[i+1] == '-':
			return line[:i]
		}
	}
	return line
}

func insideQuote(s string) bool {
	return strings.Count(s, "'")%2 == 1
}

var createTableRe = regexp.MustCompile(`(?is)^CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?"?(\w+)"?\s*\((.*)\)\s*$`)

func parseCreateTable(s *schema.Schema, stmt string) error {
	m := createTableRe.FindStringSubmatch(stmt)
	if m == nil {
		return &Error{Statement: stmt, Detail: "malformed CREATE TABLE"}
	}
	table := schema.Table{Name: m[1]}

	for _, item := range splitTopLevel(m[2], ',') {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		upper := strings.ToUpper(item)
		switch {
		case strings.HasPrefix(upper, "CONSTRAINT"):
			// CONSTRAINT <name> <definition>: strip the name and retry.
			rest := strings.TrimSpace(item[len("CONSTRAINT"):])
			fields := strings.Fields(rest)
			if len(fields) < 2 {
				return &Error{Statement: stmt, Detail: "malformed CONSTRAINT clause"}
			}
			trimmed := strings.TrimSpace(rest[len(fields[0]):])
			if err := parseTableConstraint(s, &table, trimmed, stmt); err != nil {
				return err
			}
		case strings.HasPrefix(upper, "FOREIGN KEY"),
			strings.HasPrefix(upper, "PRIMARY KEY"),
			strings.HasPrefix(upper, "UNIQUE"),
			strings.HasPrefix(upper, "CHECK"):
			if err := parseTableConstraint(s, &table, item, stmt); err != nil {
				return err
			}
		default:
			col, rel, err := parseColumnDef(table.Name, item, stmt)
			if err != nil {
				return err
			}
			table.Columns = append(table.Columns, *col)
			if rel != nil {
				s.Relationships = append(s.Relationships, *rel)
			}
		}
	}

	s.Tables = append(s.Tables, table)
	return nil
}

var foreignKeyRe = regexp.MustCompile(`(?i)^FOREIGN\s+KEY\s*\(\s*"?(\w+)"?\s*\)\s*REFERENCES\s+"?(\w+)"?\s*\(\s*"?(\w+)"?\s*\)(.*)$`)

func parseTableConstraint(s *schema.Schema, table *schema.Table, item, stmt string) error {
	upper := strings.ToUpper(item)
	switch {
	case strings.HasPrefix(upper, "FOREIGN KEY"):
		m := foreignKeyRe.FindStringSubmatch(item)
		if m == nil {
			return &Error{Statement: stmt, Detail: "malformed FOREIGN KEY clause"}
		}
		rel := schema.Relationship{
			Name: relationshipName(table.Name, m[2]),
			From: fmt.Sprintf("%s.%s", table.Name, m[1]),
			To:   fmt.Sprintf("%s.%s", m[2], m[3]),
			Type: schema.ManyToOne,
		}
		applyReferentialActions(&rel, m[4])
		s.Relationships = append(s.Relationships, rel)
	case strings.HasPrefix(upper, "PRIMARY KEY"):
		for _, name := range parenList(item) {
			if col := table.Column(name); col != nil {
				col.PrimaryKey = true
				col.Nullable = false
			}
		}
	case strings.HasPrefix(upper, "UNIQUE"):
		names := parenList(item)
		if len(names) == 1 {
			if col := table.Column(names[0]); col != nil {
				col.Unique = true
			}
		} else if len(names) > 1 {
			table.Indexes = append(table.Indexes, schema.Index{
				Name:    fmt.Sprintf("uq_%s_%s", table.Name, strings.Join(names, "_")),
				Columns: names,
				Unique:  true,
			})
		}
	case strings.HasPrefix(upper, "CHECK"):
		expr, ok := balancedParen(item[strings.Index(item, "("):])
		if !ok {
			return &Error{Statement: stmt, Detail: "unbalanced CHECK expression"}
		}
		inner := strings.TrimSpace(expr[1 : len(expr)-1])
		attachCheck(table, inner)
	}
	return nil
}

// attachCheck binds a table-level CHECK to the column its expression
// leads with, reversing the ENUM encoding when it matches.
func attachCheck(table *schema.Table, inner string) {
	fields := strings.FieldsFunc(inner, func(r rune) bool {
		return r == ' ' || r == '(' || r == '<' || r == '>' || r == '=' || r == '!'
	})
	if len(fields) == 0 {
		return
	}
	col := table.Column(strings.Trim(fields[0], `"`))
	if col == nil {
		return
	}
	if values := enumValuesFromCheck(col.Name, inner); values != nil {
		col.Type = "ENUM"
		col.Values = values
		return
	}
	col.Check = inner
}

var referencesRe = regexp.MustCompile(`(?i)REFERENCES\s+"?(\w+)"?\s*\(\s*"?(\w+)"?\s*\)(.*)$`)

// parseColumnDef parses one column definition item. A trailing inline
// REFERENCES clause yields a relationship as well.
func parseColumnDef(tableName, item, stmt string) (*schema.Column, *schema.Relationship, error) {
	toks := tokenize(item)
	if len(toks) < 2 {
		return nil, nil, &Error{Statement: stmt, Detail: fmt.Sprintf("malformed column definition %q", item)}
	}

	col := &schema.Column{Name: strings.Trim(toks[0], `"`)}

	// The type token may carry an attached size group.
	typ := toks[1]
	i := 2
	if i < len(toks) && strings.HasPrefix(toks[i], "(") {
		typ += toks[i]
		i++
	}
	col.Type = canonicalType(typ)

	// MySQL native enum carries its values in the type itself.
	if schema.BaseType(col.Type) == "ENUM" {
		for _, v := range enumValueRe.FindAllStringSubmatch(typ, -1) {
			col.Values = append(col.Values, strings.ReplaceAll(v[1], "''", "'"))
		}
		col.Type = "ENUM"
	}

	var rel *schema.Relationship
	notNullSeen := false
	for i < len(toks) {
		upper := strings.ToUpper(toks[i])
		switch {
		case upper == "PRIMARY" && i+1 < len(toks) && strings.ToUpper(toks[i+1]) == "KEY":
			col.PrimaryKey = true
			i += 2
			if i < len(toks) {
				next := strings.ToUpper(toks[i])
				if next == "AUTOINCREMENT" || next == "AUTO_INCREMENT" {
					col.AutoIncrement = true
					i++
				} else if next == "GENERATED" {
					// GENERATED BY DEFAULT AS IDENTITY
					col.AutoIncrement = true
					for i < len(toks) && strings.ToUpper(toks[i]) != "IDENTITY" {
						i++
					}
					i++
				}
			}
		case upper == "AUTO_INCREMENT" || upper == "AUTOINCREMENT":
			col.AutoIncrement = true
			i++
		case upper == "NOT" && i+1 < len(toks) && strings.ToUpper(toks[i+1]) == "NULL":
			notNullSeen = true
			i += 2
		case upper == "NULL":
			i++
		case upper == "UNIQUE":
			col.Unique = true
			i++
		case upper == "DEFAULT" && i+1 < len(toks):
			col.HasDefault = true
			col.Default = parseDefaultLiteral(toks[i+1])
			i += 2
		case upper == "CHECK" && i+1 < len(toks) && strings.HasPrefix(toks[i+1], "("):
			inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(toks[i+1], "("), ")"))
			if values := enumValuesFromCheck(col.Name, inner); values != nil {
				col.Type = "ENUM"
				col.Values = values
			} else {
				col.Check = inner
			}
			i += 2
		case upper == "REFERENCES":
			rest := strings.Join(toks[i:], " ")
			m := referencesRe.FindStringSubmatch(rest)
			if m == nil {
				return nil, nil, &Error{Statement: stmt, Detail: fmt.Sprintf("malformed REFERENCES clause in %q", item)}
			}
			rel = &schema.Relationship{
				Name: relationshipName(tableName, m[1]),
				From: fmt.Sprintf("%s.%s", tableName, col.Name),
				To:   fmt.Sprintf("%s.%s", m[1], m[2]),
				Type: schema.ManyToOne,
			}
			applyReferentialActions(rel, m[3])
			i = len(toks)
		default:
			i++
		}
	}

	col.Nullable = !col.PrimaryKey && !notNullSeen
	return col, rel, nil
}

var (
	onDeleteRe = regexp.MustCompile(`(?i)ON\s+DELETE\s+(CASCADE|SET\s+NULL|SET\s+DEFAULT|RESTRICT|NO\s+ACTION)`)
	onUpdateRe = regexp.MustCompile(`(?i)ON\s+UPDATE\s+(CASCADE|SET\s+NULL|SET\s+DEFAULT|RESTRICT|NO\s+ACTION)`)
)

func applyReferentialActions(rel *schema.Relationship, tail string) {
	if m := onDeleteRe.FindStringSubmatch(tail); m != nil && !strings.EqualFold(m[1], "NO ACTION") {
		rel.OnDelete = strings.ToUpper(strings.Join(strings.Fields(m[1]), " "))
	}
	if m := onUpdateRe.FindStringSubmatch(tail); m != nil && !strings.EqualFold(m[1], "NO ACTION") {
		rel.OnUpdate = strings.ToUpper(strings.Join(strings.Fields(m[1]), " "))
	}
}

var createIndexRe = regexp.MustCompile(`(?is)^CREATE\s+(UNIQUE\s+)?INDEX\s+(?:IF\s+NOT\s+EXISTS\s+)?"?(\w+)"?\s+ON\s+"?(\w+)"?\s*\(([^)]*)\)\s*$`)

func parseCreateIndex(s *schema.Schema, stmt string) error {
	m := createIndexRe.FindStringSubmatch(stmt)
	if m == nil {
		return &Error{Statement: stmt, Detail: "malformed CREATE INDEX"}
	}
	table := s.Table(m[3])
	if table == nil {
		return &Error{Statement: stmt, Detail: fmt.Sprintf("index on unknown table %q", m[3])}
	}
	var cols []string
	for _, c := range strings.Split(m[4], ",") {
		cols = append(cols, strings.Trim(strings.TrimSpace(c), `"`))
	}
	table.Indexes = append(table.Indexes, schema.Index{
		Name:    m[2],
		Columns: cols,
		Unique:  m[1] != "",
	})
	return nil
}

var alterFKRe = regexp.MustCompile(`(?is)^ALTER\s+TABLE\s+"?(\w+)"?\s+ADD\s+CONSTRAINT\s+"?(\w+)"?\s+(FOREIGN\s+KEY.*)$`)

func parseAlterTable(s *schema.Schema, stmt string) error {
	m := alterFKRe.FindStringSubmatch(stmt)
	if m == nil {
		return &Error{Statement: stmt, Detail: "unsupported ALTER TABLE form"}
	}
	table := s.Table(m[1])
	if table == nil {
		return &Error{Statement: stmt, Detail: fmt.Sprintf("ALTER TABLE on unknown table %q", m[1])}
	}
	fk := foreignKeyRe.FindStringSubmatch(strings.TrimSpace(m[3]))
	if fk == nil {
		return &Error{Statement: stmt, Detail: "malformed FOREIGN KEY clause"}
	}
	rel := schema.Relationship{
		Name: m[2],
		From: fmt.Sprintf("%s.%s", table.Name, fk[1]),
		To:   fmt.Sprintf("%s.%s", fk[2], fk[3]),
		Type: schema.ManyToOne,
	}
	applyReferentialActions(&rel, fk[4])
	s.Relationships = append(s.Relationships, rel)
	return nil
}

var insertRe = regexp.MustCompile(`(?is)^INSERT\s+(?:OR\s+IGNORE\s+|IGNORE\s+)?INTO\s+"?(\w+)"?\s*\(([^)]*)\)\s*VALUES\s*(\(.*)$`)

func parseInsert(s *schema.Schema, stmt string) error {
	m := insertRe.FindStringSubmatch(stmt)
	if m == nil {
		return &Error{Statement: stmt, Detail: "malformed INSERT"}
	}
	group, ok := balancedParen(m[3])
	if !ok {
		return &Error{Statement: stmt, Detail: "unbalanced VALUES list"}
	}

	var cols []string
	for _, c := range strings.Split(m[2], ",") {
		cols = append(cols, strings.Trim(strings.TrimSpace(c), `"`))
	}
	vals := splitTopLevel(group[1:len(group)-1], ',')
	if len(cols) != len(vals) {
		return &Error{Statement: stmt, Detail: "column/value count mismatch"}
	}

	row := schema.SeedRow{}
	for i, v := range vals {
		row[cols[i]] = parseDefaultLiteral(v)
	}
	if s.SeedData == nil {
		s.SeedData = make(map[string][]schema.SeedRow)
	}
	s.SeedData[m[1]] = append(s.SeedData[m[1]], row)
	return nil
}

// parenList returns the comma-separated identifiers inside the first
// balanced paren group of the clause, unquoted and trimmed.
func parenList(item string) []string {
	start := strings.Index(item, "(")
	if start < 0 {
		return nil
	}
	group, ok := balancedParen(item[start:])
	if !ok {
		return nil
	}
	var names []string
	for _, part := range strings.Split(group[1:len(group)-1], ",") {
		if name := strings.Trim(strings.TrimSpace(part), `"`); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// splitTopLevel splits on sep outside parens and string literals.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	var cur strings.Builder
	depth := 0
	inQuote := false
	for _, r := range s {
		switch {
		case inQuote:
			cur.WriteRune(r)
			if r == '\'' {
				inQuote = false
			}
		case r == '\'':
			inQuote = true
			cur.WriteRune(r)
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			depth--
			cur.WriteRune(r)
		case r == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if t := strings.TrimSpace(cur.String()); t != "" {
		parts = append(parts, t)
	}
	return parts
}

// tokenize splits a column definition into tokens: words, quoted
// string literals, and balanced paren groups each come back whole.
func tokenize(s string) []string {
	var toks []string
	i := 0
	for i < len(s) {
		switch {
		case s[i] == ' ' || s[i] == '\t' || s[i] == '\n':
			i++
		case s[i] == '(':
			group, ok := balancedParen(s[i:])
			if !ok {
				toks = append(toks, s[i:])
				return toks
			}
			toks = append(toks, group)
			i += len(group)
		case s[i] == '\'':
			j := i + 1
			for j < len(s) {
				if s[j] == '\'' {
					if j+1 < len(s) && s[j+1] == '\'' {
						j += 2
						continue
					}
					break
				}
				j++
			}
			if j < len(s) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		default:
			j := i
			for j < len(s) && s[j] != ' ' && s[j] != '\t' && s[j] != '\n' && s[j] != '(' && s[j] != '\'' {
				j++
			}
			// Keep an attached size group with its word: VARCHAR(255)
			if j < len(s) && s[j] == '(' {
				if group, ok := balancedParen(s[j:]); ok {
					toks = append(toks, s[i:j]+group)
					i = j + len(group)
					continue
				}
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}
