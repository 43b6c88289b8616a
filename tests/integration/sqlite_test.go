//go:build integration
// +build integration

package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/skjelbred/schemakit/internal/extract"
	"github.com/skjelbred/schemakit/internal/materialize"
)

// newSQLiteStore materializes the store schema into a fresh database file
// and returns its path.
func newSQLiteStore(ctx context.Context, t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store.db")
	report, err := materialize.Materialize(ctx, storeSchema(), path)
	if err != nil {
		t.Fatalf("Failed to materialize schema: %v", err)
	}
	if report.Failed > 0 {
		t.Fatalf("Expected clean materialization, got %d failed statements", report.Failed)
	}
	return path
}

func TestSQLiteExtraction(t *testing.T) {
	ctx := context.Background()
	dbPath := newSQLiteStore(ctx, t)

	client, err := extract.NewSQLiteClient(ctx, dbPath)
	if err != nil {
		t.Fatalf("Failed to connect to SQLite: %v", err)
	}
	defer client.Close()

	extractor := extract.NewSQLiteExtractor(client)

	s, err := extractor.ExtractSchema(ctx, dbPath, nil)
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}

	verifyTablesExist(t, s, []string{"users", "products", "orders"})

	table := s.Table("users")
	if table == nil {
		t.Fatal("Users table not found")
	}
	verifyPrimaryKey(t, table, []string{"id"})
	verifyColumns(t, table, []string{"id", "username", "email", "status", "created_at"})

	verifyUniqueConstraint(t, s, "users", "username")
	verifyEnumValues(t, s, "users", "status", []string{"active", "suspended"})

	verifyRelationship(t, s, "orders.user_id", "users.id")
	verifyRelationship(t, s, "orders.product_id", "products.id")

	verifyIndex(t, s, "products", "idx_products_category", []string{"category"})
}

func TestSQLiteSpecificTables(t *testing.T) {
	ctx := context.Background()
	dbPath := newSQLiteStore(ctx, t)

	client, err := extract.NewSQLiteClient(ctx, dbPath)
	if err != nil {
		t.Fatalf("Failed to connect to SQLite: %v", err)
	}
	defer client.Close()

	extractor := extract.NewSQLiteExtractor(client)

	s, err := extractor.ExtractSchema(ctx, dbPath, []string{"users", "products"})
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}

	if len(s.Tables) != 2 {
		t.Errorf("Expected 2 tables, got %d", len(s.Tables))
	}

	if s.Table("users") == nil || s.Table("products") == nil {
		t.Error("Expected users and products tables")
	}

	if s.Table("orders") != nil {
		t.Error("Should not include orders table")
	}
}
