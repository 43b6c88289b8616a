package schema

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestBaseType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"INTEGER", "INTEGER"},
		{"varchar(255)", "VARCHAR"},
		{"DECIMAL(10,2)", "DECIMAL"},
		{" text ", "TEXT"},
		{"ENUM", "ENUM"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := BaseType(tt.input); got != tt.expected {
				t.Errorf("BaseType(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTypeArgs(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"VARCHAR(255)", "255"},
		{"DECIMAL(10, 2)", "10, 2"},
		{"INTEGER", ""},
		{"VARCHAR( 50 )", "50"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := TypeArgs(tt.input); got != tt.expected {
				t.Errorf("TypeArgs(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		input    string
		expected Family
	}{
		{"INTEGER", FamilyInteger},
		{"BIGINT", FamilyInteger},
		{"VARCHAR(100)", FamilyText},
		{"DECIMAL(10,2)", FamilyDecimal},
		{"DATETIME", FamilyDatetime},
		{"ENUM", FamilyEnum},
		{"GEOMETRY", FamilyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FamilyOf(tt.input); got != tt.expected {
				t.Errorf("FamilyOf(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{"same family different sizes", "VARCHAR(50)", "TEXT", true},
		{"integer widths", "SMALLINT", "BIGINT", true},
		{"enum and text interchangeable", "ENUM", "VARCHAR(20)", true},
		{"text and enum interchangeable", "TEXT", "ENUM", true},
		{"integer vs boolean", "INTEGER", "BOOLEAN", false},
		{"unknown never matches", "GEOMETRY", "GEOMETRY", false},
		{"unknown vs text", "GEOMETRY", "TEXT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compatible(tt.a, tt.b); got != tt.expected {
				t.Errorf("Compatible(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestSplitRef(t *testing.T) {
	tests := []struct {
		input       string
		table, col  string
		expectedOK  bool
	}{
		{"orders.user_id", "orders", "user_id", true},
		{"users.id", "users", "id", true},
		{"noseparator", "", "", false},
		{".column", "", "", false},
		{"table.", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			table, col, ok := SplitRef(tt.input)
			if ok != tt.expectedOK || table != tt.table || col != tt.col {
				t.Errorf("SplitRef(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.input, table, col, ok, tt.table, tt.col, tt.expectedOK)
			}
		})
	}
}

func TestUnmarshalPreservesOrder(t *testing.T) {
	doc := `{
		"database": {"name": "store"},
		"tables": {
			"zebra": {"columns": {"id": {"type": "INTEGER", "primary_key": true}}},
			"alpha": {
				"columns": {
					"charlie": {"type": "TEXT"},
					"bravo": {"type": "INTEGER"},
					"apple": {"type": "BOOLEAN"}
				}
			}
		}
	}`

	var s Schema
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(s.Tables) != 2 || s.Tables[0].Name != "zebra" || s.Tables[1].Name != "alpha" {
		t.Fatalf("Expected tables [zebra alpha], got %v", tableNames(&s))
	}

	cols := s.Tables[1].Columns
	want := []string{"charlie", "bravo", "apple"}
	if len(cols) != len(want) {
		t.Fatalf("Expected %d columns, got %d", len(want), len(cols))
	}
	for i, name := range want {
		if cols[i].Name != name {
			t.Errorf("Column %d = %q, want %q", i, cols[i].Name, name)
		}
	}
}

func TestUnmarshalNullableDefaults(t *testing.T) {
	doc := `{
		"database": {"name": "store"},
		"tables": {
			"users": {
				"columns": {
					"id": {"type": "INTEGER", "primary_key": true},
					"email": {"type": "VARCHAR(255)", "nullable": false},
					"bio": {"type": "TEXT"}
				}
			}
		}
	}`

	var s Schema
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	users := s.Table("users")
	if users.Column("id").Nullable {
		t.Error("Primary key column should default to NOT NULL")
	}
	if users.Column("email").Nullable {
		t.Error("Explicit nullable=false should be honored")
	}
	if !users.Column("bio").Nullable {
		t.Error("Plain column should default to nullable")
	}
}

func TestUnmarshalExplicitNullDefault(t *testing.T) {
	doc := `{
		"database": {"name": "store"},
		"tables": {
			"users": {
				"columns": {
					"nickname": {"type": "TEXT", "default": null},
					"plain": {"type": "TEXT"}
				}
			}
		}
	}`

	var s Schema
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	users := s.Table("users")
	nick := users.Column("nickname")
	if !nick.HasDefault || nick.Default != nil {
		t.Errorf("Expected explicit null default, got HasDefault=%v Default=%v", nick.HasDefault, nick.Default)
	}
	if users.Column("plain").HasDefault {
		t.Error("Column without default key should have HasDefault=false")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	original := &Schema{
		Database: Database{Name: "store", Type: "sqlite", Version: "1.0.0"},
		Tables: []Table{
			{
				Name:        "users",
				Description: "Registered accounts",
				Columns: []Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "email", Type: "VARCHAR(255)", Unique: true},
					{Name: "role", Type: "ENUM", Values: []string{"admin", "member"}, Nullable: true, HasDefault: true, Default: "member"},
				},
				Indexes: []Index{{Name: "idx_users_email", Columns: []string{"email"}, Unique: true}},
			},
			{
				Name: "orders",
				Columns: []Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "total", Type: "DECIMAL(10,2)", Nullable: true, HasDefault: true, Default: float64(0)},
				},
			},
		},
		Relationships: []Relationship{
			{Name: "orders_to_users", From: "orders.user_id", To: "users.id", Type: ManyToOne},
		},
		SeedData: map[string][]SeedRow{
			"users": {{"id": float64(1), "email": "a@example.com"}},
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Schema
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(decoded.Tables) != 2 {
		t.Fatalf("Expected 2 tables, got %d", len(decoded.Tables))
	}
	for i := range original.Tables {
		if !original.Tables[i].Equal(&decoded.Tables[i]) {
			t.Errorf("Table %s did not survive the round trip", original.Tables[i].Name)
		}
	}
	if decoded.Tables[0].Description != "Registered accounts" {
		t.Errorf("Description lost: %q", decoded.Tables[0].Description)
	}
	if len(decoded.Relationships) != 1 || decoded.Relationships[0].Name != "orders_to_users" {
		t.Errorf("Relationships lost: %v", decoded.Relationships)
	}
	if len(decoded.SeedData["users"]) != 1 {
		t.Errorf("Seed data lost: %v", decoded.SeedData)
	}
}

func TestMarshalIsStable(t *testing.T) {
	s := &Schema{
		Database: Database{Name: "store"},
		Tables: []Table{
			{Name: "b", Columns: []Column{{Name: "id", Type: "INTEGER", PrimaryKey: true}}},
			{Name: "a", Columns: []Column{{Name: "id", Type: "INTEGER", PrimaryKey: true}}},
		},
		SeedData: map[string][]SeedRow{
			"b": {{"id": 1}},
			"a": {{"id": 1}},
		},
	}

	first, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	second, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Repeated marshaling produced different output")
	}

	// Table order follows the model, not alphabetical order.
	if bytes.Index(first, []byte(`"b":`)) > bytes.Index(first, []byte(`"a":`)) {
		t.Error("Expected table b to be emitted before table a")
	}
}

func TestColumnEqualNumericDefaults(t *testing.T) {
	a := Column{Name: "quantity", Type: "INTEGER", Nullable: true, HasDefault: true, Default: float64(1)}
	b := Column{Name: "quantity", Type: "INTEGER", Nullable: true, HasDefault: true, Default: int64(1)}
	if !a.Equal(&b) {
		t.Error("Numeric defaults with different Go types should compare equal")
	}

	c := Column{Name: "quantity", Type: "INTEGER", Nullable: true, HasDefault: true, Default: int64(2)}
	if a.Equal(&c) {
		t.Error("Different default values should not compare equal")
	}
}

func TestTableHelpers(t *testing.T) {
	table := Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
			{Name: "email", Type: "TEXT"},
		},
	}

	if pk := table.PrimaryKey(); len(pk) != 1 || pk[0] != "id" {
		t.Errorf("PrimaryKey() = %v, want [id]", pk)
	}
	if col := table.AutoIncrementColumn(); col == nil || col.Name != "id" {
		t.Errorf("AutoIncrementColumn() = %v, want id", col)
	}
	if table.Column("missing") != nil {
		t.Error("Expected nil for missing column")
	}

	s := Schema{Tables: []Table{table}}
	if s.Table("users") == nil {
		t.Error("Expected users table lookup to succeed")
	}
	if s.Table("ghost") != nil {
		t.Error("Expected nil for missing table")
	}
}

func tableNames(s *Schema) []string {
	names := make([]string, len(s.Tables))
	for i, tbl := range s.Tables {
		names[i] = tbl.Name
	}
	return names
}
