package merge

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/skjelbred/schemakit/internal/schema"
)

func usersTable() schema.Table {
	return schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
			{Name: "email", Type: "VARCHAR(255)", Unique: true},
		},
	}
}

func TestMergeSingleSchemaIsIdentity(t *testing.T) {
	s := &schema.Schema{
		Database: schema.Database{Name: "app", Type: "sqlite"},
		Tables:   []schema.Table{usersTable()},
		Relationships: []schema.Relationship{
			{Name: "posts_to_users", From: "posts.user_id", To: "users.id", Type: schema.ManyToOne},
		},
		SeedData: map[string][]schema.SeedRow{
			"users": {{"email": "a@b.c"}},
		},
	}

	merged, err := Merge([]*schema.Schema{s})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !reflect.DeepEqual(merged, s) {
		t.Errorf("merge of a single schema changed it:\n got %+v\nwant %+v", merged, s)
	}
}

func TestMergeDisjointTables(t *testing.T) {
	a := &schema.Schema{
		Database: schema.Database{Name: "app", Type: "sqlite"},
		Tables:   []schema.Table{usersTable()},
	}
	b := &schema.Schema{
		Database: schema.Database{Name: "other", Type: "sqlite"},
		Tables: []schema.Table{
			{Name: "posts", Columns: []schema.Column{{Name: "id", Type: "INTEGER", PrimaryKey: true}}},
		},
	}

	merged, err := Merge([]*schema.Schema{a, b})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if len(merged.Tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(merged.Tables))
	}
	if merged.Database.Name != "app" {
		t.Errorf("expected metadata from the first schema, got %q", merged.Database.Name)
	}
}

func TestMergeDeduplicatesIdenticalTables(t *testing.T) {
	a := &schema.Schema{Tables: []schema.Table{usersTable()}}
	b := &schema.Schema{Tables: []schema.Table{usersTable()}}

	merged, err := Merge([]*schema.Schema{a, b})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if len(merged.Tables) != 1 {
		t.Errorf("expected identical tables to deduplicate, got %d tables", len(merged.Tables))
	}
}

func TestMergeConflictNamesTableAndColumn(t *testing.T) {
	a := &schema.Schema{Tables: []schema.Table{usersTable()}}
	conflicting := usersTable()
	conflicting.Columns[1].Type = "TEXT"
	b := &schema.Schema{Tables: []schema.Table{conflicting}}

	_, err := Merge([]*schema.Schema{a, b})
	if err == nil {
		t.Fatal("expected a conflict error")
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %T: %v", err, err)
	}
	if conflict.Table != "users" {
		t.Errorf("conflict names table %q, want users", conflict.Table)
	}
	if !strings.Contains(conflict.Detail, "email") {
		t.Errorf("conflict detail %q does not name the differing column", conflict.Detail)
	}
}

func TestMergeDuplicateRelationshipNames(t *testing.T) {
	rel := schema.Relationship{Name: "r1", From: "a.x", To: "b.y", Type: schema.ManyToOne}
	a := &schema.Schema{Relationships: []schema.Relationship{rel}}
	b := &schema.Schema{Relationships: []schema.Relationship{rel}}

	_, err := Merge([]*schema.Schema{a, b})
	if err == nil {
		t.Fatal("expected duplicate relationship name to fail")
	}
	if !strings.Contains(err.Error(), "r1") {
		t.Errorf("error %q does not name the duplicate relationship", err)
	}
}

func TestMergeConcatenatesSeedData(t *testing.T) {
	a := &schema.Schema{
		Tables:   []schema.Table{usersTable()},
		SeedData: map[string][]schema.SeedRow{"users": {{"email": "a@b.c"}}},
	}
	b := &schema.Schema{
		SeedData: map[string][]schema.SeedRow{"users": {{"email": "d@e.f"}}},
	}

	merged, err := Merge([]*schema.Schema{a, b})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if got := len(merged.SeedData["users"]); got != 2 {
		t.Errorf("expected 2 seed rows after concatenation, got %d", got)
	}
	if merged.SeedData["users"][0]["email"] != "a@b.c" || merged.SeedData["users"][1]["email"] != "d@e.f" {
		t.Errorf("seed rows out of input order: %+v", merged.SeedData["users"])
	}
}

func TestMergeEmptyInput(t *testing.T) {
	if _, err := Merge(nil); err == nil {
		t.Error("expected an error for empty input")
	}
}
