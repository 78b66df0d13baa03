// Package aggregate splits sessions into counted and excluded totals.
package aggregate

import "github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"

// Uncategorized keys sessions that carry no category.
const Uncategorized = "uncategorized"

// Measure selects what a session contributes to the totals.
type Measure int

const (
	// ByDuration sums session durations in minutes.
	ByDuration Measure = iota
	// ByAmount sums event amounts (e.g. millilitres).
	ByAmount
)

func (m Measure) String() string {
	if m == ByAmount {
		return "amount"
	}
	return "duration"
}

// Classifier decides whether a session counts toward the primary metric.
type Classifier func(model.Session) bool

// Result holds the totals of one aggregation pass.
type Result struct {
	CountedTotal  float64            `json:"countedTotal"`
	ExcludedTotal float64            `json:"excludedTotal"`
	PerCategory   map[string]float64 `json:"perCategory"`
	Sessions      []model.Session    `json:"sessions"`
}

// Aggregate classifies each session and sums the chosen measure on each side.
// A nil classifier counts everything. The input slice is not modified.
func Aggregate(sessions []model.Session, classify Classifier, measure Measure) Result {
	res := Result{
		PerCategory: make(map[string]float64),
		Sessions:    make([]model.Session, len(sessions)),
	}
	for i, s := range sessions {
		counted := true
		if classify != nil {
			counted = classify(s)
		}
		s.IsCounted = counted

		v := s.TotalDuration
		if measure == ByAmount {
			v = s.TotalAmount
		}
		if counted {
			res.CountedTotal += v
		} else {
			res.ExcludedTotal += v
		}
		cat := s.Category
		if cat == "" {
			cat = Uncategorized
		}
		res.PerCategory[cat] += v
		res.Sessions[i] = s
	}
	return res
}
