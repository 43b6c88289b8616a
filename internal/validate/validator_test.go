package validate

import (
	"testing"

	"github.com/skjelbred/schemakit/internal/schema"
)

func validSchema() *schema.Schema {
	return &schema.Schema{
		Database: schema.Database{Name: "test", Type: "sqlite"},
		Tables: []schema.Table{
			{
				Name: "users",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "email", Type: "VARCHAR(255)", Nullable: false, Unique: true},
					{Name: "status", Type: "ENUM", Nullable: true, Values: []string{"active", "banned"}, HasDefault: true, Default: "active"},
				},
			},
			{
				Name: "posts",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "user_id", Type: "INTEGER", Nullable: false},
				},
				Indexes: []schema.Index{
					{Name: "idx_posts_user_id", Columns: []string{"user_id"}},
				},
			},
		},
		Relationships: []schema.Relationship{
			{Name: "posts_to_users", From: "posts.user_id", To: "users.id", Type: schema.ManyToOne},
		},
	}
}

func TestValidateCleanSchema(t *testing.T) {
	result := Validate(validSchema())
	if !result.Valid() {
		t.Fatalf("expected valid schema, got findings: %+v", result.Findings)
	}
	if len(result.Findings) != 0 {
		t.Errorf("expected no findings, got %d: %+v", len(result.Findings), result.Findings)
	}
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*schema.Schema)
		rule     string
		severity Severity
	}{
		{
			name: "relationship unknown table",
			mutate: func(s *schema.Schema) {
				s.Relationships[0].To = "missing.id"
			},
			rule:     RuleRelationshipEndpoint,
			severity: SeverityError,
		},
		{
			name: "relationship unknown column",
			mutate: func(s *schema.Schema) {
				s.Relationships[0].From = "posts.nope"
			},
			rule:     RuleRelationshipEndpoint,
			severity: SeverityError,
		},
		{
			name: "relationship malformed ref",
			mutate: func(s *schema.Schema) {
				s.Relationships[0].From = "no_dot_here"
			},
			rule:     RuleRelationshipEndpoint,
			severity: SeverityError,
		},
		{
			name: "index unknown column",
			mutate: func(s *schema.Schema) {
				s.Tables[1].Indexes[0].Columns = []string{"ghost"}
			},
			rule:     RuleIndexColumn,
			severity: SeverityError,
		},
		{
			name: "duplicate index name",
			mutate: func(s *schema.Schema) {
				s.Tables[1].Indexes = append(s.Tables[1].Indexes, schema.Index{
					Name:    "idx_posts_user_id",
					Columns: []string{"id"},
				})
			},
			rule:     RuleIndexName,
			severity: SeverityError,
		},
		{
			name: "auto increment on text column",
			mutate: func(s *schema.Schema) {
				s.Tables[0].Columns[0].Type = "TEXT"
			},
			rule:     RulePrimaryKey,
			severity: SeverityError,
		},
		{
			name: "auto increment in composite key",
			mutate: func(s *schema.Schema) {
				s.Tables[0].Columns[1].PrimaryKey = true
				s.Tables[0].Columns[1].Nullable = false
			},
			rule:     RulePrimaryKey,
			severity: SeverityError,
		},
		{
			name: "nullable primary key",
			mutate: func(s *schema.Schema) {
				s.Tables[1].Columns[0].Nullable = true
			},
			rule:     RulePrimaryKey,
			severity: SeverityError,
		},
		{
			name: "enum without values",
			mutate: func(s *schema.Schema) {
				s.Tables[0].Columns[2].Values = nil
				s.Tables[0].Columns[2].HasDefault = false
				s.Tables[0].Columns[2].Default = nil
			},
			rule:     RuleEnumValues,
			severity: SeverityError,
		},
		{
			name: "enum default outside values",
			mutate: func(s *schema.Schema) {
				s.Tables[0].Columns[2].Default = "deleted"
			},
			rule:     RuleEnumDefault,
			severity: SeverityError,
		},
		{
			name: "relationship target not indexed",
			mutate: func(s *schema.Schema) {
				s.Relationships[0].To = "users.email"
				s.Tables[0].Columns[1].Unique = false
			},
			rule:     RuleTargetNotIndexed,
			severity: SeverityWarning,
		},
		{
			name: "camelCase table name",
			mutate: func(s *schema.Schema) {
				s.Tables[1].Name = "blogPosts"
				s.Relationships[0].From = "blogPosts.user_id"
			},
			rule:     RuleNaming,
			severity: SeverityWarning,
		},
		{
			name: "unknown type token",
			mutate: func(s *schema.Schema) {
				s.Tables[1].Columns[1].Type = "GEOMETRY"
			},
			rule:     RuleUnknownType,
			severity: SeverityError,
		},
		{
			name: "seed data for unknown table",
			mutate: func(s *schema.Schema) {
				s.SeedData = map[string][]schema.SeedRow{
					"ghosts": {{"name": "casper"}},
				}
			},
			rule:     RuleSeedData,
			severity: SeverityError,
		},
		{
			name: "seed row with unknown column",
			mutate: func(s *schema.Schema) {
				s.SeedData = map[string][]schema.SeedRow{
					"users": {{"email": "a@b.c", "nickname": "x"}},
				}
			},
			rule:     RuleSeedData,
			severity: SeverityError,
		},
		{
			name: "seed row missing required column",
			mutate: func(s *schema.Schema) {
				s.SeedData = map[string][]schema.SeedRow{
					"posts": {{"id": 1}},
				}
			},
			rule:     RuleSeedData,
			severity: SeverityError,
		},
		{
			name: "opaque check expression",
			mutate: func(s *schema.Schema) {
				s.Tables[1].Columns[1].Check = "user_id > 0"
			},
			rule:     RuleOpaqueCheck,
			severity: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSchema()
			tt.mutate(s)
			result := Validate(s)

			found := false
			for _, f := range result.Findings {
				if f.Rule == tt.rule && f.Severity == tt.severity {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected %s finding for rule %q, got: %+v", tt.severity, tt.rule, result.Findings)
			}
			if tt.severity == SeverityError && result.Valid() {
				t.Error("expected Valid() to be false")
			}
			if tt.severity == SeverityWarning && !result.Valid() {
				t.Errorf("warnings must not invalidate the schema, findings: %+v", result.Findings)
			}
		})
	}
}

func TestValidateReportsAllFindings(t *testing.T) {
	s := validSchema()
	s.Relationships[0].To = "missing.id"
	s.Tables[0].Columns[2].Values = nil
	s.Tables[1].Columns[1].Type = "GEOMETRY"

	result := Validate(s)
	if result.Errors < 3 {
		t.Errorf("expected at least 3 errors without short-circuit, got %d: %+v", result.Errors, result.Findings)
	}
}
