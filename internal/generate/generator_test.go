package generate

import (
	"errors"
	"strings"
	"testing"

	"github.com/skjelbred/schemakit/internal/schema"
)

func blogSchema() *schema.Schema {
	return &schema.Schema{
		Database: schema.Database{Name: "blog"},
		Tables: []schema.Table{
			{
				Name: "posts",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "author_id", Type: "INTEGER"},
					{Name: "title", Type: "VARCHAR(200)"},
				},
				Indexes: []schema.Index{
					{Name: "idx_posts_author_id", Columns: []string{"author_id"}},
				},
			},
			{
				Name: "authors",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "name", Type: "VARCHAR(100)"},
				},
			},
		},
		Relationships: []schema.Relationship{
			{Name: "posts_to_authors", From: "posts.author_id", To: "authors.id", Type: schema.ManyToOne, OnDelete: "CASCADE"},
		},
	}
}

func TestGenerateDependencyOrder(t *testing.T) {
	stmts, err := Generate(blogSchema(), "sqlite")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var tables []string
	for _, st := range stmts {
		if st.Kind == KindCreateTable {
			tables = append(tables, st.Table)
		}
	}
	if len(tables) != 2 || tables[0] != "authors" || tables[1] != "posts" {
		t.Errorf("Expected authors before posts, got %v", tables)
	}
}

func TestGenerateForeignKeyClause(t *testing.T) {
	stmts, err := Generate(blogSchema(), "sqlite")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	posts := findStatement(stmts, KindCreateTable, "posts")
	if posts == nil {
		t.Fatal("No CREATE TABLE for posts")
	}
	want := "FOREIGN KEY (author_id) REFERENCES authors(id) ON DELETE CASCADE"
	if !strings.Contains(posts.SQL, want) {
		t.Errorf("Expected %q in:\n%s", want, posts.SQL)
	}
}

func TestGenerateCycleDefersConstraint(t *testing.T) {
	s := &schema.Schema{
		Database: schema.Database{Name: "cyclic"},
		Tables: []schema.Table{
			{
				Name: "employees",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "team_id", Type: "INTEGER", Nullable: true},
				},
			},
			{
				Name: "teams",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "lead_id", Type: "INTEGER", Nullable: true},
				},
			},
		},
		Relationships: []schema.Relationship{
			{Name: "employees_to_teams", From: "employees.team_id", To: "teams.id", Type: schema.ManyToOne},
			{Name: "teams_to_employees", From: "teams.lead_id", To: "employees.id", Type: schema.ManyToOne},
		},
	}

	stmts, err := Generate(s, "postgresql")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var creates, alters int
	for _, st := range stmts {
		switch st.Kind {
		case KindCreateTable:
			creates++
		case KindAlterTable:
			alters++
			if !strings.Contains(st.SQL, "ADD CONSTRAINT") {
				t.Errorf("ALTER statement missing ADD CONSTRAINT: %s", st.SQL)
			}
		}
	}
	if creates != 2 {
		t.Errorf("Expected 2 CREATE TABLE statements, got %d", creates)
	}
	if alters != 1 {
		t.Errorf("Expected 1 deferred ALTER TABLE statement, got %d", alters)
	}

	// The second table can reference the first inline; only the
	// cycle-closing constraint moves.
	first := findStatement(stmts, KindCreateTable, "employees")
	if first == nil {
		t.Fatal("employees should be created first (alphabetical tiebreak)")
	}
	if strings.Contains(first.SQL, "FOREIGN KEY") {
		t.Errorf("Cycle-closing constraint should not be inline:\n%s", first.SQL)
	}
	second := findStatement(stmts, KindCreateTable, "teams")
	if second == nil || !strings.Contains(second.SQL, "FOREIGN KEY (lead_id) REFERENCES employees(id)") {
		t.Errorf("teams should keep its foreign key inline:\n%v", second)
	}
}

func TestGenerateSelfReference(t *testing.T) {
	s := &schema.Schema{
		Database: schema.Database{Name: "tree"},
		Tables: []schema.Table{
			{
				Name: "categories",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "parent_id", Type: "INTEGER", Nullable: true},
				},
			},
		},
		Relationships: []schema.Relationship{
			{Name: "categories_to_categories", From: "categories.parent_id", To: "categories.id", Type: schema.ManyToOne},
		},
	}

	stmts, err := Generate(s, "sqlite")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("Expected 1 statement, got %d", len(stmts))
	}
	if !strings.Contains(stmts[0].SQL, "FOREIGN KEY (parent_id) REFERENCES categories(id)") {
		t.Errorf("Self-reference should stay inline:\n%s", stmts[0].SQL)
	}
}

func TestGenerateCompositePrimaryKey(t *testing.T) {
	s := &schema.Schema{
		Database: schema.Database{Name: "junction"},
		Tables: []schema.Table{
			{
				Name: "post_tags",
				Columns: []schema.Column{
					{Name: "post_id", Type: "INTEGER", PrimaryKey: true},
					{Name: "tag_id", Type: "INTEGER", PrimaryKey: true},
				},
			},
		},
	}

	stmts, err := Generate(s, "sqlite")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	sql := stmts[0].SQL
	if !strings.Contains(sql, "PRIMARY KEY (post_id, tag_id)") {
		t.Errorf("Expected table-level composite key in:\n%s", sql)
	}
	if strings.Contains(sql, "post_id INTEGER PRIMARY KEY") {
		t.Errorf("Composite key members should not carry inline PRIMARY KEY:\n%s", sql)
	}
}

func TestGenerateColumnClauses(t *testing.T) {
	s := &schema.Schema{
		Database: schema.Database{Name: "store"},
		Tables: []schema.Table{
			{
				Name: "users",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "email", Type: "VARCHAR(255)", Unique: true},
					{Name: "role", Type: "ENUM", Values: []string{"admin", "member"}, Nullable: true, HasDefault: true, Default: "member"},
					{Name: "age", Type: "INTEGER", Nullable: true, Check: "age >= 0"},
					{Name: "created_at", Type: "DATETIME", Nullable: true, HasDefault: true, Default: "CURRENT_TIMESTAMP"},
				},
			},
		},
	}

	stmts, err := Generate(s, "sqlite")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	sql := stmts[0].SQL

	for _, want := range []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"email VARCHAR(255) NOT NULL UNIQUE",
		"role TEXT DEFAULT 'member' CHECK (role IN ('admin', 'member'))",
		"age INTEGER CHECK (age >= 0)",
		"created_at DATETIME DEFAULT CURRENT_TIMESTAMP",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("Expected %q in:\n%s", want, sql)
		}
	}
}

func TestGenerateSeedInserts(t *testing.T) {
	s := blogSchema()
	s.SeedData = map[string][]schema.SeedRow{
		"posts":   {{"id": float64(1), "author_id": float64(1), "title": "Hello"}},
		"authors": {{"id": float64(1), "name": "Ada"}},
	}

	stmts, err := Generate(s, "sqlite")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var inserts []Statement
	for _, st := range stmts {
		if st.Kind == KindInsert {
			inserts = append(inserts, st)
		}
	}
	if len(inserts) != 2 {
		t.Fatalf("Expected 2 inserts, got %d", len(inserts))
	}
	// Tables alphabetically, values in column declaration order.
	if inserts[0].SQL != "INSERT OR IGNORE INTO authors (id, name) VALUES (1, 'Ada')" {
		t.Errorf("Unexpected first insert: %s", inserts[0].SQL)
	}
	if inserts[1].SQL != "INSERT OR IGNORE INTO posts (id, author_id, title) VALUES (1, 1, 'Hello')" {
		t.Errorf("Unexpected second insert: %s", inserts[1].SQL)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*schema.Schema)
		detail string
	}{
		{
			name: "enum without values",
			mutate: func(s *schema.Schema) {
				s.Tables[0].Columns = append(s.Tables[0].Columns, schema.Column{Name: "status", Type: "ENUM", Nullable: true})
			},
			detail: "ENUM column has no values",
		},
		{
			name: "relationship to unknown column",
			mutate: func(s *schema.Schema) {
				s.Relationships[0].To = "authors.ghost"
			},
			detail: "references unknown column",
		},
		{
			name: "malformed reference",
			mutate: func(s *schema.Schema) {
				s.Relationships[0].From = "no_dot"
			},
			detail: "malformed",
		},
		{
			name: "seed data for unknown table",
			mutate: func(s *schema.Schema) {
				s.SeedData = map[string][]schema.SeedRow{"ghosts": {{"id": 1}}}
			},
			detail: "unknown table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := blogSchema()
			tt.mutate(s)
			_, err := Generate(s, "sqlite")
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			var genErr *Error
			if !errors.As(err, &genErr) {
				t.Fatalf("Expected *Error, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("Expected %q in error %q", tt.detail, err.Error())
			}
		})
	}
}

func TestGenerateManyToManyIsDeclarative(t *testing.T) {
	s := blogSchema()
	s.Relationships = append(s.Relationships, schema.Relationship{
		Name: "posts_to_posts_related", From: "posts.id", To: "posts.id", Type: schema.ManyToMany,
	})

	stmts, err := Generate(s, "sqlite")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for _, st := range stmts {
		if strings.Contains(st.SQL, "posts_to_posts_related") {
			t.Errorf("many-to-many should not generate a constraint: %s", st.SQL)
		}
	}
}

func TestGenerateIndexDialects(t *testing.T) {
	stmts, err := Generate(blogSchema(), "mysql")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	idx := findStatement(stmts, KindCreateIndex, "posts")
	if idx == nil {
		t.Fatal("No CREATE INDEX statement for posts")
	}
	if strings.Contains(idx.SQL, "IF NOT EXISTS") {
		t.Errorf("MySQL index must not use IF NOT EXISTS: %s", idx.SQL)
	}

	stmts, err = Generate(blogSchema(), "sqlite")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	idx = findStatement(stmts, KindCreateIndex, "posts")
	if idx == nil || idx.SQL != "CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts (author_id)" {
		t.Errorf("Unexpected sqlite index statement: %v", idx)
	}
}

func TestScriptSections(t *testing.T) {
	s := blogSchema()
	s.Database.Version = "1.0.0"
	s.SeedData = map[string][]schema.SeedRow{
		"authors": {{"id": float64(1), "name": "Ada"}},
	}

	out, err := Script(s, "sqlite")
	if err != nil {
		t.Fatalf("Script failed: %v", err)
	}

	for _, want := range []string{
		"-- Database: blog",
		"-- Version: 1.0.0",
		"-- Dialect: sqlite",
		"-- ===== TABLES =====",
		"-- ===== INDEXES =====",
		"-- ===== SEED DATA =====",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in script:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(out), ";") {
		t.Error("Statements should be terminated with semicolons")
	}
}

func findStatement(stmts []Statement, kind Kind, table string) *Statement {
	for i := range stmts {
		if stmts[i].Kind == kind && stmts[i].Table == table {
			return &stmts[i]
		}
	}
	return nil
}
