package aggregate

import (
	"testing"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/segment"
)

func TestAggregateScenario(t *testing.T) {
	events := []model.ActivityEvent{
		{ID: "1", Timestamp: "09:00", DurationMinutes: 20, Category: "study"},
		{ID: "2", Timestamp: "09:25", DurationMinutes: 10, Category: "study"},
		{ID: "3", Timestamp: "09:50", DurationMinutes: 5, Category: "game"},
	}
	sessions := segment.Segment(events, segment.Options{GapMinutes: 5})
	res := Aggregate(sessions, func(s model.Session) bool { return s.Category == "study" }, ByDuration)
	if res.CountedTotal != 30 || res.ExcludedTotal != 5 {
		t.Fatalf("counted=%v excluded=%v, want 30/5", res.CountedTotal, res.ExcludedTotal)
	}
	if res.PerCategory["study"] != 30 || res.PerCategory["game"] != 5 {
		t.Fatalf("unexpected per-category totals: %v", res.PerCategory)
	}
	if !res.Sessions[0].IsCounted || res.Sessions[1].IsCounted {
		t.Fatalf("sessions not flagged: %+v", res.Sessions)
	}
	if sessions[0].IsCounted {
		t.Fatalf("input sessions must not be mutated")
	}
}

func TestAggregateNilClassifierCountsEverything(t *testing.T) {
	sessions := []model.Session{{TotalDuration: 3}, {TotalDuration: 4, Category: "x"}}
	res := Aggregate(sessions, nil, ByDuration)
	if res.CountedTotal != 7 || res.ExcludedTotal != 0 {
		t.Fatalf("counted=%v excluded=%v", res.CountedTotal, res.ExcludedTotal)
	}
	if res.PerCategory[Uncategorized] != 3 {
		t.Fatalf("missing uncategorized bucket: %v", res.PerCategory)
	}
}

func TestAggregateByAmount(t *testing.T) {
	sessions := []model.Session{
		{TotalDuration: 1, TotalAmount: 250, Annotation: "water"},
		{TotalDuration: 1, TotalAmount: 300, Annotation: "juice"},
	}
	res := Aggregate(sessions, func(s model.Session) bool { return s.Annotation == "water" }, ByAmount)
	if res.CountedTotal != 250 || res.ExcludedTotal != 300 {
		t.Fatalf("counted=%v excluded=%v", res.CountedTotal, res.ExcludedTotal)
	}
}

func TestAggregateEmpty(t *testing.T) {
	res := Aggregate(nil, nil, ByDuration)
	if res.CountedTotal != 0 || res.ExcludedTotal != 0 || len(res.Sessions) != 0 {
		t.Fatalf("unexpected result for empty input: %+v", res)
	}
}
