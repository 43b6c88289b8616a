//go:build integration
// +build integration

package integration

import (
	"testing"

	"github.com/skjelbred/schemakit/internal/schema"
)

// storeSchema returns the schema definition the integration tests
// materialize into each engine before extracting it back out.
func storeSchema() *schema.Schema {
	return &schema.Schema{
		Database: schema.Database{Name: "storedb", Version: "1.0.0"},
		Tables: []schema.Table{
			{
				Name: "users",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "username", Type: "VARCHAR(50)", Unique: true},
					{Name: "email", Type: "VARCHAR(255)"},
					{Name: "status", Type: "ENUM", Values: []string{"active", "suspended"}, HasDefault: true, Default: "active"},
					{Name: "created_at", Type: "DATETIME", HasDefault: true, Default: "CURRENT_TIMESTAMP"},
				},
			},
			{
				Name: "products",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "name", Type: "VARCHAR(100)"},
					{Name: "category", Type: "VARCHAR(50)", Nullable: true},
					{Name: "price", Type: "DECIMAL(10,2)", Nullable: true},
				},
				Indexes: []schema.Index{
					{Name: "idx_products_category", Columns: []string{"category"}},
				},
			},
			{
				Name: "orders",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
					{Name: "user_id", Type: "INTEGER"},
					{Name: "product_id", Type: "INTEGER"},
					{Name: "quantity", Type: "INTEGER", HasDefault: true, Default: float64(1)},
				},
			},
		},
		Relationships: []schema.Relationship{
			{Name: "orders_to_users", From: "orders.user_id", To: "users.id", Type: schema.ManyToOne},
			{Name: "orders_to_products", From: "orders.product_id", To: "products.id", Type: schema.ManyToOne},
		},
	}
}

// verifyTablesExist checks that all expected tables are present in the schema.
func verifyTablesExist(t *testing.T, s *schema.Schema, expectedTables []string) {
	t.Helper()

	if len(s.Tables) != len(expectedTables) {
		t.Errorf("Expected %d tables, got %d", len(expectedTables), len(s.Tables))
	}

	for _, name := range expectedTables {
		if s.Table(name) == nil {
			t.Errorf("Expected table %s not found in schema", name)
		}
	}
}

// verifyColumns checks that expected columns exist in a table.
func verifyColumns(t *testing.T, table *schema.Table, expectedColumns []string) {
	t.Helper()

	for _, colName := range expectedColumns {
		if table.Column(colName) == nil {
			t.Errorf("Expected column %s not found in %s table", colName, table.Name)
		}
	}
}

// verifyPrimaryKey checks that a table has the expected primary key.
func verifyPrimaryKey(t *testing.T, table *schema.Table, expectedPK []string) {
	t.Helper()

	pk := table.PrimaryKey()
	if len(pk) != len(expectedPK) {
		t.Errorf("Expected primary key %v, got %v", expectedPK, pk)
		return
	}

	for i := range expectedPK {
		if pk[i] != expectedPK[i] {
			t.Errorf("Expected primary key %v, got %v", expectedPK, pk)
			return
		}
	}
}

// verifyUniqueConstraint checks that a column has a unique constraint.
func verifyUniqueConstraint(t *testing.T, s *schema.Schema, tableName, columnName string) {
	t.Helper()

	table := s.Table(tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}

	col := table.Column(columnName)
	if col == nil {
		t.Errorf("Column %s not found in table %s", columnName, tableName)
		return
	}
	if !col.Unique {
		t.Errorf("Expected %s column to have unique constraint", columnName)
	}
}

// verifyRelationship checks that a foreign key relationship exists.
func verifyRelationship(t *testing.T, s *schema.Schema, from, to string) {
	t.Helper()

	for _, rel := range s.Relationships {
		if rel.From == from && rel.To == to {
			return
		}
	}

	t.Errorf("Expected relationship from %s to %s not found", from, to)
}

// verifyIndex checks that an index exists with the expected columns.
func verifyIndex(t *testing.T, s *schema.Schema, tableName, indexName string, expectedColumns []string) {
	t.Helper()

	table := s.Table(tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}

	for _, idx := range table.Indexes {
		if idx.Name != indexName {
			continue
		}
		if len(idx.Columns) != len(expectedColumns) {
			t.Errorf("Expected index %s on %v, got %v", indexName, expectedColumns, idx.Columns)
			return
		}
		for i, col := range expectedColumns {
			if idx.Columns[i] != col {
				t.Errorf("Expected index %s on %v, got %v", indexName, expectedColumns, idx.Columns)
				return
			}
		}
		return
	}

	t.Errorf("Expected index %s on %s table not found", indexName, tableName)
}

// verifyEnumValues checks that a column carries the expected enum values.
func verifyEnumValues(t *testing.T, s *schema.Schema, tableName, columnName string, expectedValues []string) {
	t.Helper()

	table := s.Table(tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}

	col := table.Column(columnName)
	if col == nil {
		t.Errorf("Column %s not found in table %s", columnName, tableName)
		return
	}

	if len(col.Values) != len(expectedValues) {
		t.Errorf("Expected %d enum values for %s, got %d", len(expectedValues), columnName, len(col.Values))
		return
	}
	for i, v := range expectedValues {
		if col.Values[i] != v {
			t.Errorf("Expected enum values %v for %s, got %v", expectedValues, columnName, col.Values)
			return
		}
	}
}
