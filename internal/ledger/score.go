package ledger

import (
	"math"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// Metric is one scored value against its goal.
type Metric struct {
	Value float64
	Goal  float64
}

// Score averages the clamped completion ratios and scales to 0..100, rounded.
// Zero, negative, or non-finite goals contribute 0.
func Score(metrics ...Metric) float64 {
	if len(metrics) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range metrics {
		sum += ratio(m)
	}
	s := math.Round(sum / float64(len(metrics)) * 100)
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	return math.Min(s, 100)
}

func ratio(m Metric) float64 {
	if m.Goal <= 0 || math.IsNaN(m.Goal) || math.IsInf(m.Goal, 0) || math.IsNaN(m.Value) || m.Value <= 0 {
		return 0
	}
	r := m.Value / m.Goal
	if math.IsNaN(r) {
		return 0
	}
	return math.Min(r, 1)
}

// SummaryScore scores a summary against the daily goals.
func SummaryScore(s model.DailySummary, g model.Goals) float64 {
	return Score(
		Metric{Value: s.WaterMl, Goal: g.WaterMl},
		Metric{Value: s.CountedTotal, Goal: g.StudyMinutes},
	)
}

// Rescore recomputes every entry's score for new goals. The input is returned
// unchanged when no score moves.
func Rescore(entries []model.LedgerEntry, g model.Goals) ([]model.LedgerEntry, bool) {
	var out []model.LedgerEntry
	for i, e := range entries {
		s := SummaryScore(e.Summary, g)
		if s == e.Summary.Score {
			continue
		}
		if out == nil {
			out = clone(entries)
		}
		out[i].Summary.Score = s
	}
	if out == nil {
		return entries, false
	}
	return out, true
}
