// Package segment groups activity events into sessions using a gap threshold.
package segment

import (
	"math"
	"sort"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// DefaultEpsilon is the minimum duration reported for a session.
const DefaultEpsilon = 1.0

// Options controls one segmentation pass.
type Options struct {
	GapMinutes    float64
	GroupBySource bool
	// Epsilon is the floor applied when durations must be inferred. Zero means DefaultEpsilon.
	Epsilon float64
}

type timed struct {
	event model.ActivityEvent
	start float64
}

// Segment groups events into sessions sorted by start minute.
//
// Events are stably sorted by minute of day. A new session starts when an
// event begins more than GapMinutes after the running end of the current one.
// With GroupBySource, events sharing a non-empty SourceGroup always form a
// single session and ungrouped events are segmented by gap among themselves.
func Segment(events []model.ActivityEvent, opts Options) []model.Session {
	if len(events) == 0 {
		return nil
	}
	gap := opts.GapMinutes
	if gap < 0 || math.IsNaN(gap) {
		gap = 0
	}
	eps := opts.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	sorted := make([]timed, len(events))
	for i, e := range events {
		sorted[i] = timed{event: e, start: float64(e.StartMinute())}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	var sessions []model.Session
	var loose []timed
	if opts.GroupBySource {
		groups := map[string][]timed{}
		var order []string
		for _, t := range sorted {
			g := t.event.SourceGroup
			if g == "" {
				loose = append(loose, t)
				continue
			}
			if _, ok := groups[g]; !ok {
				order = append(order, g)
			}
			groups[g] = append(groups[g], t)
		}
		for _, g := range order {
			sessions = append(sessions, build(groups[g], eps))
		}
	} else {
		loose = sorted
	}
	sessions = append(sessions, byGap(loose, gap, eps)...)

	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].StartMinute < sessions[j].StartMinute })
	return sessions
}

func byGap(sorted []timed, gap, eps float64) []model.Session {
	var out []model.Session
	var cur []timed
	runningEnd := 0.0
	for _, t := range sorted {
		end := t.start + t.event.Duration()
		if len(cur) > 0 && t.start-runningEnd > gap {
			out = append(out, build(cur, eps))
			cur = nil
		}
		if len(cur) == 0 {
			runningEnd = end
		} else {
			runningEnd = math.Max(runningEnd, end)
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		out = append(out, build(cur, eps))
	}
	return out
}

func build(run []timed, eps float64) model.Session {
	s := model.Session{
		Events:      make([]model.ActivityEvent, 0, len(run)),
		StartMinute: run[0].start,
	}
	end := run[0].start
	sum := 0.0
	for _, t := range run {
		d := t.event.Duration()
		end = math.Max(end, t.start+d)
		sum += d
		s.TotalAmount += t.event.Quantity()
		s.Events = append(s.Events, t.event)
		if s.Category == "" {
			s.Category = t.event.Category
		}
		if s.Annotation == "" {
			s.Annotation = t.event.Annotation
		}
	}
	s.EndMinute = end
	if sum > 0 {
		s.TotalDuration = sum
	} else {
		// durations unavailable: infer from the span
		s.TotalDuration = math.Max(end-s.StartMinute, eps)
	}
	return s
}
