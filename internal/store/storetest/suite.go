package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store"
)

// Run exercises a minimal compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store and return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	if got, err := s.Ledger().List(ctx); err != nil || len(got) != 0 {
		t.Fatalf("List on empty store: n=%d err=%v", len(got), err)
	}

	may2 := model.LedgerEntry{
		DateKey:  "2024-05-02",
		Summary:  model.DailySummary{DateKey: "2024-05-02", CountedTotal: 30, ExcludedTotal: 5, WaterMl: 1200, DrinkMl: 300, DrinkCount: 4, Score: 35},
		Feedback: "water 1200ml, study 30min",
		Metadata: map[string]string{"weather": "rain"},
	}
	may1 := model.LedgerEntry{
		DateKey: "2024-05-01",
		Summary: model.DailySummary{DateKey: "2024-05-01", CountedTotal: 12.5},
	}
	if err := s.Ledger().Replace(ctx, []model.LedgerEntry{may2, may1}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := s.Ledger().List(ctx)
	if err != nil || len(got) != 2 {
		t.Fatalf("List: n=%d err=%v", len(got), err)
	}
	if got[0].DateKey != "2024-05-01" || got[1].DateKey != "2024-05-02" {
		t.Fatalf("List not sorted by date: %s, %s", got[0].DateKey, got[1].DateKey)
	}
	if !got[1].Equal(may2) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got[1], may2)
	}
	if !got[0].Equal(may1) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got[0], may1)
	}

	one, err := s.Ledger().Get(ctx, "2024-05-02")
	if err != nil || one == nil || one.Metadata["weather"] != "rain" {
		t.Fatalf("Get: got=%+v err=%v", one, err)
	}
	if _, err := s.Ledger().Get(ctx, "1999-01-01"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}

	updated := may1
	updated.Summary.CountedTotal = 45
	updated.Feedback = "edited"
	if err := s.Ledger().Replace(ctx, []model.LedgerEntry{updated}); err != nil {
		t.Fatalf("Replace subset: %v", err)
	}
	got, err = s.Ledger().List(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("List after subset replace: n=%d err=%v", len(got), err)
	}
	if got[0].Summary.CountedTotal != 45 || got[0].Feedback != "edited" {
		t.Fatalf("update not applied: %+v", got[0])
	}
	if _, err := s.Ledger().Get(ctx, "2024-05-02"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("dropped entry still present: %v", err)
	}

	if err := s.Ledger().Replace(ctx, nil); err != nil {
		t.Fatalf("Replace empty: %v", err)
	}
	if got, err := s.Ledger().List(ctx); err != nil || len(got) != 0 {
		t.Fatalf("List after clearing: n=%d err=%v", len(got), err)
	}
}
