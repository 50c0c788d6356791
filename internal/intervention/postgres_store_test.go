//go:build integration

package intervention

import (
	"context"
	"testing"
	"time"

	"github.com/eduriesgo/retencion/internal/testutil"
)

func TestPostgresStore_RecordAndList(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	entries := []*Entry{
		{ID: "int_a", Student: "S1", Action: "email", Message: "m1", Meta: map[string]any{"k": "v"}, Timestamp: time.Now().UTC()},
		{ID: "int_b", Student: "S2", Action: "sms", Message: "m2", Meta: map[string]any{}, Timestamp: time.Now().UTC()},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ID != "int_a" || got[1].ID != "int_b" {
		t.Errorf("entries out of insertion order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Meta["k"] != "v" {
		t.Errorf("meta not round-tripped: %v", got[0].Meta)
	}
	if got[0].Timestamp.Location() != time.UTC {
		t.Error("timestamps must be returned in UTC")
	}
}

func TestPostgresStore_MigrateIdempotent(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	// Running migrations twice must not fail.
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}
