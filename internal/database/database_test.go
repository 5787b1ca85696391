// internal/database/database_test.go
//
// Opens an in-memory SQLite database, applies the embedded schema, and
// round-trips records through the SQL record store.
//
// Run: go test ./internal/database -v

package database

import (
	"context"
	"testing"

	"github.com/yanizio/laxmi/internal/record"
)

func TestMigrateAndAppend(t *testing.T) {
	db, err := Open(SQLite, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := Migrate(db, SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Second run is a no-op.
	if err := Migrate(db, SQLite); err != nil {
		t.Fatalf("migrate again: %v", err)
	}

	store := record.NewSQL(db)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		f := record.Fields{"name": name, record.TimestampField: "2025-01-01T00:00:00.000Z"}
		if _, err := store.Append(ctx, "contactMessages", f); err != nil {
			t.Fatalf("append %s: %v", name, err)
		}
	}

	got, err := store.List(ctx, "contactMessages")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	for i, want := range []string{"A", "B", "C"} {
		if got[i].Fields["name"] != want {
			t.Errorf("row %d = %q, want %q", i, got[i].Fields["name"], want)
		}
	}

	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM accounts`); err != nil || n != 0 {
		t.Fatalf("accounts table: n=%d err=%v", n, err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("postgres", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
