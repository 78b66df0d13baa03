package segment

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

func ev(id, ts string, dur float64, cat string) model.ActivityEvent {
	return model.ActivityEvent{ID: id, Timestamp: ts, DurationMinutes: dur, Category: cat}
}

func ids(s model.Session) string {
	out := make([]string, 0, len(s.Events))
	for _, e := range s.Events {
		out = append(out, e.ID)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func TestSegmentEmpty(t *testing.T) {
	if got := Segment(nil, Options{GapMinutes: 5}); len(got) != 0 {
		t.Fatalf("expected no sessions, got %d", len(got))
	}
}

func TestSegmentGapBoundary(t *testing.T) {
	merged := Segment([]model.ActivityEvent{ev("a", "10:00", 0, ""), ev("b", "10:05", 0, "")}, Options{GapMinutes: 5})
	if len(merged) != 1 {
		t.Fatalf("events exactly gap apart should merge, got %d sessions", len(merged))
	}
	split := Segment([]model.ActivityEvent{ev("a", "10:00", 0, ""), ev("b", "10:06", 0, "")}, Options{GapMinutes: 5})
	if len(split) != 2 {
		t.Fatalf("events gap+1 apart should split, got %d sessions", len(split))
	}
}

func TestSegmentRunningEndExtendsAcrossLongEvents(t *testing.T) {
	// b starts well after a's start but inside a's duration; c is within gap of a's end only.
	events := []model.ActivityEvent{
		ev("a", "08:00", 60, ""),
		ev("b", "08:10", 5, ""),
		ev("c", "09:03", 10, ""),
	}
	got := Segment(events, Options{GapMinutes: 5})
	if len(got) != 1 {
		t.Fatalf("expected one session, got %d", len(got))
	}
	if got[0].StartMinute != 480 || got[0].EndMinute != 553 {
		t.Fatalf("unexpected bounds %v-%v", got[0].StartMinute, got[0].EndMinute)
	}
	if got[0].TotalDuration != 75 {
		t.Fatalf("total duration = %v, want 75", got[0].TotalDuration)
	}
}

func TestSegmentSingleZeroDurationGetsEpsilon(t *testing.T) {
	got := Segment([]model.ActivityEvent{ev("a", "12:00", 0, "")}, Options{GapMinutes: 5})
	if len(got) != 1 || got[0].TotalDuration != DefaultEpsilon {
		t.Fatalf("expected one session with epsilon duration, got %+v", got)
	}
}

func TestSegmentMalformedTimestampDefaultsToMidnight(t *testing.T) {
	got := Segment([]model.ActivityEvent{ev("x", "not a time", 3, ""), ev("y", "00:02", 1, "")}, Options{GapMinutes: 5})
	if len(got) != 1 || got[0].StartMinute != 0 {
		t.Fatalf("malformed timestamp should land at minute 0, got %+v", got)
	}
}

func TestSegmentDuplicateTimestampsStayInOneSession(t *testing.T) {
	got := Segment([]model.ActivityEvent{ev("a", "07:00", 0, ""), ev("b", "07:00", 0, "")}, Options{GapMinutes: 0})
	if len(got) != 1 || len(got[0].Events) != 2 {
		t.Fatalf("duplicates should share a session, got %+v", got)
	}
	if got[0].Events[0].ID != "a" {
		t.Fatalf("stable sort should keep input order for ties")
	}
}

func TestSegmentGroupBySourceIgnoresGap(t *testing.T) {
	events := []model.ActivityEvent{
		{ID: "p1", Timestamp: "10:00", SourceGroup: "book-1.mp4"},
		{ID: "p2", Timestamp: "10:40", SourceGroup: "book-1.mp4"},
		{ID: "q1", Timestamp: "10:20", SourceGroup: "book-2.mp4"},
		{ID: "loose", Timestamp: "18:00"},
	}
	got := Segment(events, Options{GapMinutes: 5, GroupBySource: true})
	if len(got) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(got))
	}
	if ids(got[0]) != "p1,p2" || got[0].TotalDuration != 40 {
		t.Fatalf("book-1 session wrong: ids=%s dur=%v", ids(got[0]), got[0].TotalDuration)
	}
	if ids(got[1]) != "q1" || got[1].TotalDuration != DefaultEpsilon {
		t.Fatalf("book-2 session wrong: ids=%s dur=%v", ids(got[1]), got[1].TotalDuration)
	}
	if ids(got[2]) != "loose" {
		t.Fatalf("ungrouped event should be its own session")
	}

	plain := Segment(events, Options{GapMinutes: 5})
	if len(plain) != 4 {
		t.Fatalf("without grouping expected 4 sessions, got %d", len(plain))
	}
}

func TestSegmentPermutationDeterminism(t *testing.T) {
	base := []model.ActivityEvent{
		ev("a", "09:00", 20, "study"),
		ev("b", "09:25", 10, "study"),
		ev("c", "09:50", 5, "game"),
		ev("d", "13:00", 0, "lecture"),
		ev("e", "13:04", 0, "lecture"),
		ev("f", "13:04", 2, "coding"),
		ev("g", "23:59", 1, "game"),
	}
	want := Segment(base, Options{GapMinutes: 5})
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		perm := append([]model.ActivityEvent(nil), base...)
		rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })
		got := Segment(perm, Options{GapMinutes: 5})
		if len(got) != len(want) {
			t.Fatalf("permutation %d: %d sessions, want %d", i, len(got), len(want))
		}
		for j := range want {
			if ids(got[j]) != ids(want[j]) || got[j].StartMinute != want[j].StartMinute ||
				got[j].EndMinute != want[j].EndMinute || got[j].TotalDuration != want[j].TotalDuration {
				t.Fatalf("permutation %d session %d differs: %+v vs %+v", i, j, got[j], want[j])
			}
		}
	}
}

func TestSegmentOutputSortedByStart(t *testing.T) {
	events := []model.ActivityEvent{
		{ID: "late", Timestamp: "20:00", SourceGroup: "g"},
		{ID: "early", Timestamp: "06:00"},
	}
	got := Segment(events, Options{GapMinutes: 5, GroupBySource: true})
	if len(got) != 2 || got[0].Events[0].ID != "early" {
		t.Fatalf("sessions not ordered by start: %+v", got)
	}
}

func TestSegmentScenario(t *testing.T) {
	events := []model.ActivityEvent{
		ev("1", "09:00", 20, "study"),
		ev("2", "09:25", 10, "study"),
		ev("3", "09:50", 5, "game"),
	}
	got := Segment(events, Options{GapMinutes: 5})
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if model.FormatMinute(got[0].StartMinute) != "09:00" || model.FormatMinute(got[0].EndMinute) != "09:35" || got[0].TotalDuration != 30 {
		t.Fatalf("first session wrong: %+v", got[0])
	}
	if model.FormatMinute(got[1].StartMinute) != "09:50" || model.FormatMinute(got[1].EndMinute) != "09:55" || got[1].TotalDuration != 5 {
		t.Fatalf("second session wrong: %+v", got[1])
	}
}
