// Package ledger reconciles daily summaries into the date-keyed ledger.
package ledger

import (
	"fmt"
	"sort"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// Outcome reports what Reconcile did.
type Outcome int

const (
	Unchanged Outcome = iota
	SkippedEmpty
	Inserted
	Updated
)

func (o Outcome) String() string {
	switch o {
	case SkippedEmpty:
		return "skipped_empty"
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "noop"
	}
}

// Mutated reports whether the ledger changed.
func (o Outcome) Mutated() bool { return o == Inserted || o == Updated }

// Reconcile merges summary into the ledger under dateKey.
//
// When the existing entry already holds an equal summary, or when there is no
// entry and the summary is empty, the input slice is returned as is. Otherwise
// a new slice sorted by date is returned; the input is never modified.
// Feedback and metadata of an existing entry are preserved.
func Reconcile(entries []model.LedgerEntry, dateKey string, summary model.DailySummary) ([]model.LedgerEntry, Outcome) {
	summary.DateKey = dateKey
	idx := Find(entries, dateKey)
	if idx >= 0 {
		if entries[idx].Summary.Equal(summary) {
			return entries, Unchanged
		}
		out := clone(entries)
		out[idx].Summary = summary
		sortByDate(out)
		return out, Updated
	}
	if summary.IsEmpty() {
		return entries, SkippedEmpty
	}
	out := clone(entries)
	out = append(out, model.LedgerEntry{
		DateKey:  dateKey,
		Summary:  summary,
		Feedback: DefaultFeedback(summary),
	})
	sortByDate(out)
	return out, Inserted
}

// Delete removes the entry for dateKey.
func Delete(entries []model.LedgerEntry, dateKey string) ([]model.LedgerEntry, error) {
	idx := Find(entries, dateKey)
	if idx < 0 {
		return entries, fmt.Errorf("ledger entry %s: %w", dateKey, model.ErrNotFound)
	}
	out := make([]model.LedgerEntry, 0, len(entries)-1)
	for i, e := range entries {
		if i != idx {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

// SetFeedback replaces the feedback text of an existing entry.
func SetFeedback(entries []model.LedgerEntry, dateKey, text string) ([]model.LedgerEntry, bool, error) {
	idx := Find(entries, dateKey)
	if idx < 0 {
		return entries, false, fmt.Errorf("ledger entry %s: %w", dateKey, model.ErrNotFound)
	}
	if entries[idx].Feedback == text {
		return entries, false, nil
	}
	out := clone(entries)
	out[idx].Feedback = text
	return out, true, nil
}

// Find returns the index of dateKey, or -1.
func Find(entries []model.LedgerEntry, dateKey string) int {
	for i := range entries {
		if entries[i].DateKey == dateKey {
			return i
		}
	}
	return -1
}

// Normalize sorts entries by date and keeps the last entry for a duplicated key.
func Normalize(entries []model.LedgerEntry) []model.LedgerEntry {
	seen := make(map[string]int, len(entries))
	out := make([]model.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.DateKey == "" {
			continue
		}
		e = e.Clone()
		e.Summary.DateKey = e.DateKey
		if i, ok := seen[e.DateKey]; ok {
			out[i] = e
			continue
		}
		seen[e.DateKey] = len(out)
		out = append(out, e)
	}
	sortByDate(out)
	return out
}

// DefaultFeedback is the note attached to a newly materialized day.
func DefaultFeedback(s model.DailySummary) string {
	return fmt.Sprintf("water %.0fml, study %.0fmin", s.WaterMl, s.CountedTotal)
}

func clone(entries []model.LedgerEntry) []model.LedgerEntry {
	out := make([]model.LedgerEntry, len(entries), len(entries)+1)
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

func sortByDate(entries []model.LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].DateKey < entries[j].DateKey })
}
