package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"eventbudget/internal/core"
	"eventbudget/internal/idgen"
	"eventbudget/internal/storage"
)

// Requires a replica set, e.g. MONGO_TEST_URI=mongodb://localhost:27017/?replicaSet=rs0
func TestIntegration_RoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()

	db, err := idgen.New("budget_test_")
	if err != nil {
		t.Fatalf("idgen: %v", err)
	}
	s, err := Connect(ctx, uri, db)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer func() {
		_ = s.coll.Database().Drop(ctx)
		_ = s.Close()
	}()

	event := core.Event{ID: "e1", Name: "Wedding", Currency: "EUR"}
	event.ApplyTotals(core.Totals{Budgeted: core.Cents(100000), Spent: core.Cents(75678)})

	err = s.RunTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		return storage.PutEvent(ctx, tx, "owner", event)
	})
	if err != nil {
		t.Fatalf("RunTransaction: %v", err)
	}

	got, err := storage.GetEvent(ctx, s, "owner", "e1")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if got.Totals != event.Totals || got.SpentPercentage != 76 || got.Status != core.StatusUnderBudget {
		want, _ := json.Marshal(event)
		have, _ := json.Marshal(got)
		t.Fatalf("round trip mismatch\nwant %s\nhave %s", want, have)
	}

	if _, err := s.Get(ctx, storage.EventPath("owner", "nope")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
