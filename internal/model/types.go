package model

import (
	"fmt"
	"maps"
	"math"

	"github.com/go-openapi/strfmt"
)

// ActivityEvent is one normalized record from the upstream log source.
type ActivityEvent struct {
	ID              string  `json:"id" yaml:"id"`
	Timestamp       string  `json:"timestamp" yaml:"timestamp"`
	DurationMinutes float64 `json:"durationMinutes,omitempty" yaml:"durationMinutes,omitempty"`
	Category        string  `json:"category,omitempty" yaml:"category,omitempty"`
	SourceGroup     string  `json:"sourceGroup,omitempty" yaml:"sourceGroup,omitempty"`
	Amount          float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
	Annotation      string  `json:"annotation,omitempty" yaml:"annotation,omitempty"`
}

// StartMinute resolves the event timestamp to a minute of day in [0, 1440).
func (e ActivityEvent) StartMinute() int { return MinuteOfDay(e.Timestamp) }

// Duration returns the event duration with negative and non-finite values mapped to 0.
func (e ActivityEvent) Duration() float64 { return nonNegative(e.DurationMinutes) }

// Quantity returns the event amount with negative and non-finite values mapped to 0.
func (e ActivityEvent) Quantity() float64 { return nonNegative(e.Amount) }

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// DayEvents groups one date's events by activity domain.
type DayEvents struct {
	Water  []ActivityEvent `json:"water"`
	Book   []ActivityEvent `json:"book"`
	Laptop []ActivityEvent `json:"laptop"`
}

// Len returns the total number of events across domains.
func (d DayEvents) Len() int { return len(d.Water) + len(d.Book) + len(d.Laptop) }

// Session is a contiguous run of events. Sessions are derived and never persisted.
type Session struct {
	Events        []ActivityEvent `json:"events"`
	StartMinute   float64         `json:"startMinute"`
	EndMinute     float64         `json:"endMinute"`
	TotalDuration float64         `json:"totalDuration"`
	TotalAmount   float64         `json:"totalAmount,omitempty"`
	Category      string          `json:"category,omitempty"`
	Annotation    string          `json:"annotation,omitempty"`
	IsCounted     bool            `json:"isCounted"`
}

// DailySummary is the reconciled output for one date.
type DailySummary struct {
	DateKey       string  `json:"date"`
	CountedTotal  float64 `json:"countedTotal"`
	ExcludedTotal float64 `json:"excludedTotal"`
	WaterMl       float64 `json:"waterMl"`
	DrinkMl       float64 `json:"drinkMl"`
	DrinkCount    int     `json:"drinkCount"`
	Score         float64 `json:"score"`
}

// EmptySummary returns the zero summary for dateKey.
func EmptySummary(dateKey string) DailySummary { return DailySummary{DateKey: dateKey} }

// Equal reports structural equality of two summaries.
func (s DailySummary) Equal(o DailySummary) bool { return s == o }

// IsEmpty reports whether every measured total is zero. Score is derived and ignored.
func (s DailySummary) IsEmpty() bool {
	return s.CountedTotal == 0 && s.ExcludedTotal == 0 &&
		s.WaterMl == 0 && s.DrinkMl == 0 && s.DrinkCount == 0
}

// LedgerEntry is the persisted record for one date.
type LedgerEntry struct {
	DateKey  string            `json:"date"`
	Summary  DailySummary      `json:"summary"`
	Feedback string            `json:"feedback,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Equal compares entries including metadata.
func (e LedgerEntry) Equal(o LedgerEntry) bool {
	return e.DateKey == o.DateKey && e.Summary.Equal(o.Summary) &&
		e.Feedback == o.Feedback && maps.Equal(e.Metadata, o.Metadata)
}

// Clone returns a deep copy of the entry.
func (e LedgerEntry) Clone() LedgerEntry {
	out := e
	if e.Metadata != nil {
		out.Metadata = maps.Clone(e.Metadata)
	}
	return out
}

// Goals are the daily targets used for scoring.
type Goals struct {
	WaterMl      float64 `json:"waterMl" yaml:"waterMl"`
	StudyMinutes float64 `json:"studyMinutes" yaml:"studyMinutes"`
}

// DefaultGoals matches the dashboard defaults.
func DefaultGoals() Goals { return Goals{WaterMl: 2000, StudyMinutes: 300} }

// ValidateDateKey checks for a YYYY-MM-DD calendar date.
func ValidateDateKey(key string) error {
	if !strfmt.IsDate(key) {
		return fmt.Errorf("%w: invalid date %q", ErrValidation, key)
	}
	return nil
}
