package ledger

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

func sum(date string, counted, water float64) model.DailySummary {
	return model.DailySummary{DateKey: date, CountedTotal: counted, WaterMl: water}
}

func TestReconcileInsertsSorted(t *testing.T) {
	var l []model.LedgerEntry
	l, out := Reconcile(l, "2024-05-03", sum("", 10, 0))
	if out != Inserted {
		t.Fatalf("outcome = %v", out)
	}
	l, _ = Reconcile(l, "2024-05-01", sum("", 0, 500))
	l, _ = Reconcile(l, "2024-05-02", sum("", 5, 5))
	if len(l) != 3 || l[0].DateKey != "2024-05-01" || l[2].DateKey != "2024-05-03" {
		t.Fatalf("ledger not sorted: %+v", l)
	}
	if l[2].Summary.DateKey != "2024-05-03" {
		t.Fatalf("summary date key not set")
	}
	if l[0].Feedback == "" {
		t.Fatalf("new entry should get default feedback")
	}
}

func TestReconcileNoWriteReturnsSameSlice(t *testing.T) {
	l, _ := Reconcile(nil, "2024-05-01", sum("", 30, 1000))
	again, out := Reconcile(l, "2024-05-01", sum("2024-05-01", 30, 1000))
	if out != Unchanged {
		t.Fatalf("outcome = %v, want Unchanged", out)
	}
	if &again[0] != &l[0] {
		t.Fatalf("no-write must return the input slice")
	}
}

func TestReconcileSkipsEmptyDay(t *testing.T) {
	l, _ := Reconcile(nil, "2024-05-01", sum("", 1, 0))
	got, out := Reconcile(l, "2024-05-02", model.DailySummary{Score: 0})
	if out != SkippedEmpty || len(got) != 1 {
		t.Fatalf("empty day materialized: outcome=%v ledger=%+v", out, got)
	}
}

func TestReconcileEmptyUpdatesExistingEntry(t *testing.T) {
	l, _ := Reconcile(nil, "2024-05-01", sum("", 1, 0))
	got, out := Reconcile(l, "2024-05-01", model.DailySummary{})
	if out != Updated || !got[0].Summary.IsEmpty() {
		t.Fatalf("existing entry should take the empty summary: %v %+v", out, got)
	}
}

func TestReconcilePreservesMetadata(t *testing.T) {
	l := []model.LedgerEntry{{
		DateKey:  "2024-05-01",
		Summary:  sum("2024-05-01", 1, 0),
		Feedback: "great day",
		Metadata: map[string]string{"weather": "sunny"},
	}}
	got, out := Reconcile(l, "2024-05-01", sum("", 2, 0))
	if out != Updated {
		t.Fatalf("outcome = %v", out)
	}
	if got[0].Feedback != "great day" || got[0].Metadata["weather"] != "sunny" {
		t.Fatalf("metadata lost: %+v", got[0])
	}
	if l[0].Summary.CountedTotal != 1 {
		t.Fatalf("input ledger mutated")
	}
	got[0].Metadata["weather"] = "rain"
	if l[0].Metadata["weather"] != "sunny" {
		t.Fatalf("metadata map shared with input")
	}
}

func TestReconcileIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	dates := []string{"2024-05-01", "2024-05-02", "2024-05-03", "2024-05-04"}
	for i := 0; i < 200; i++ {
		var l []model.LedgerEntry
		for j := 0; j < rng.Intn(4); j++ {
			l, _ = Reconcile(l, dates[rng.Intn(len(dates))], sum("", float64(rng.Intn(3)), float64(rng.Intn(3))))
		}
		k := dates[rng.Intn(len(dates))]
		s := sum("", float64(rng.Intn(3)), float64(rng.Intn(3)))
		once, _ := Reconcile(l, k, s)
		twice, out := Reconcile(once, k, s)
		if out.Mutated() {
			t.Fatalf("second reconcile mutated (%v)", out)
		}
		if len(once) != len(twice) {
			t.Fatalf("length changed %d -> %d", len(once), len(twice))
		}
		for x := range once {
			if !once[x].Equal(twice[x]) {
				t.Fatalf("entry %d differs", x)
			}
		}
	}
}

func TestDeleteAndFeedback(t *testing.T) {
	l, _ := Reconcile(nil, "2024-05-01", sum("", 1, 0))
	l, _ = Reconcile(l, "2024-05-02", sum("", 2, 0))

	l2, changed, err := SetFeedback(l, "2024-05-02", "nice")
	if err != nil || !changed || l2[1].Feedback != "nice" {
		t.Fatalf("SetFeedback: changed=%v err=%v", changed, err)
	}
	if _, changed, _ := SetFeedback(l2, "2024-05-02", "nice"); changed {
		t.Fatalf("identical feedback should not change the ledger")
	}
	if _, _, err := SetFeedback(l, "2024-06-01", "x"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	l3, err := Delete(l2, "2024-05-01")
	if err != nil || len(l3) != 1 || l3[0].DateKey != "2024-05-02" {
		t.Fatalf("Delete: %+v err=%v", l3, err)
	}
	if _, err := Delete(l3, "2024-05-01"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNormalizeDedupesAndSorts(t *testing.T) {
	in := []model.LedgerEntry{
		{DateKey: "2024-05-02", Summary: sum("", 1, 0)},
		{DateKey: "2024-05-01", Summary: sum("", 1, 0)},
		{DateKey: "2024-05-02", Summary: sum("", 9, 0)},
		{DateKey: ""},
	}
	out := Normalize(in)
	if len(out) != 2 || out[0].DateKey != "2024-05-01" || out[1].Summary.CountedTotal != 9 {
		t.Fatalf("Normalize = %+v", out)
	}
}

func TestScoreBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	special := []float64{0, 0, math.Inf(1), math.NaN(), 1e308, 1e-308}
	pick := func() float64 {
		if rng.Intn(3) == 0 {
			return special[rng.Intn(len(special))]
		}
		return rng.Float64() * 5000
	}
	for i := 0; i < 1000; i++ {
		s := Score(Metric{pick(), pick()}, Metric{pick(), pick()})
		if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 || s > 100 {
			t.Fatalf("score out of range: %v", s)
		}
	}
}

func TestScoreValues(t *testing.T) {
	if got := Score(Metric{1000, 2000}, Metric{300, 300}); got != 75 {
		t.Fatalf("Score = %v, want 75", got)
	}
	if got := Score(Metric{5000, 2000}, Metric{0, 0}); got != 50 {
		t.Fatalf("Score = %v, want 50", got)
	}
	if got := Score(); got != 0 {
		t.Fatalf("empty Score = %v", got)
	}
}

func TestRescore(t *testing.T) {
	l := []model.LedgerEntry{
		{DateKey: "2024-05-01", Summary: model.DailySummary{DateKey: "2024-05-01", WaterMl: 1000, CountedTotal: 150, Score: 50}},
	}
	same, changed := Rescore(l, model.DefaultGoals())
	if changed || &same[0] != &l[0] {
		t.Fatalf("unchanged scores should not rewrite the ledger")
	}
	out, changed := Rescore(l, model.Goals{WaterMl: 1000, StudyMinutes: 150})
	if !changed || out[0].Summary.Score != 100 || l[0].Summary.Score != 50 {
		t.Fatalf("Rescore = %+v changed=%v", out, changed)
	}
}
