package tracker

import (
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/aggregate"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/classify"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/segment"
)

// Domain configures the shared engine for one activity domain.
type Domain struct {
	Name     string
	Segment  segment.Options
	Measure  aggregate.Measure
	Classify aggregate.Classifier
}

// Domains is the set of domains a day is split into.
type Domains struct {
	Water  Domain
	Book   Domain
	Laptop Domain
}

// Gaps holds the per-domain gap thresholds in minutes.
type Gaps struct {
	Water  float64
	Book   float64
	Laptop float64
}

// DefaultGaps uses a 5 minute gap everywhere.
func DefaultGaps() Gaps { return Gaps{Water: 5, Book: 5, Laptop: 5} }

// NewDomains builds the three domains from classification rules.
// Book sessions are grouped by source file and infer their length from the
// span of their samples; the others sum explicit durations or amounts.
func NewDomains(rules classify.Rules, gaps Gaps, epsilon float64) Domains {
	return Domains{
		Water: Domain{
			Name:     "water",
			Segment:  segment.Options{GapMinutes: gaps.Water, Epsilon: epsilon},
			Measure:  aggregate.ByAmount,
			Classify: rules.Water.Classifier(),
		},
		Book: Domain{
			Name:     "book",
			Segment:  segment.Options{GapMinutes: gaps.Book, GroupBySource: true, Epsilon: epsilon},
			Measure:  aggregate.ByDuration,
			Classify: rules.Book.Classifier(),
		},
		Laptop: Domain{
			Name:     "laptop",
			Segment:  segment.Options{GapMinutes: gaps.Laptop, Epsilon: epsilon},
			Measure:  aggregate.ByDuration,
			Classify: rules.Laptop.Classifier(),
		},
	}
}
