package tracker

import (
	"context"
	"fmt"
	"math"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/appstate"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/classify"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/events"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/ledger"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// Annotate sets a manual label on an event of the active day and re-derives
// the day. An empty label clears the override. domain may be empty when the
// id is unique across the day's feeds.
func (t *Tracker) Annotate(ctx context.Context, domain, eventID, label string) (model.DailySummary, error) {
	if eventID == "" {
		return model.DailySummary{}, fmt.Errorf("%w: event id is required", model.ErrValidation)
	}
	active := t.coord.Active()
	t.mu.Lock()
	if active == "" || t.dayKey != active || t.loadErr != nil {
		t.mu.Unlock()
		return model.DailySummary{}, fmt.Errorf("day %q is not loaded: %w", active, model.ErrNotFound)
	}
	name, err := t.domains.resolveDomain(t.day, domain, eventID)
	if err != nil {
		t.mu.Unlock()
		return model.DailySummary{}, err
	}
	if !t.labels.set(labelKey{date: active, domain: name, id: eventID}, label) {
		summary := t.summary
		t.mu.Unlock()
		return summary, nil
	}
	t.saveLabelsLocked()
	change := t.applyLocked(active, t.day)
	summary := t.summary
	t.mu.Unlock()

	t.log.Info().Str("date", active).Str("domain", name).Str("event_id", eventID).Msg("event annotated")
	t.notify(change)
	if change == nil {
		return summary, nil
	}
	return summary, t.Flush(ctx)
}

func (t *Tracker) saveLabelsLocked() {
	if t.state != nil {
		t.state.Set(appstate.KeyLabels, t.labels.snapshot())
	}
}

// SetRules swaps the classification rules and re-derives the loaded day.
func (t *Tracker) SetRules(rules classify.Rules) {
	t.mu.Lock()
	t.domains.Water.Classify = rules.Water.Classifier()
	t.domains.Book.Classify = rules.Book.Classifier()
	t.domains.Laptop.Classify = rules.Laptop.Classifier()
	t.version++
	if t.memo != nil {
		t.memo.Invalidate()
	}
	var change *Change
	if t.dayKey != "" && t.loadErr == nil {
		change = t.applyLocked(t.dayKey, t.day)
	}
	t.mu.Unlock()
	t.log.Info().Int("rules_version", rules.Version).Bool("reconciled", change != nil).Msg("classification rules applied")
	t.notify(change)
}

// ReloadRules re-reads the rules file and applies it. A file that fails to
// load leaves the current rules in place.
func (t *Tracker) ReloadRules() (classify.Rules, error) {
	rules, err := classify.LoadRules(t.rulesFile)
	if err != nil {
		return classify.Rules{}, fmt.Errorf("reload rules: %w", err)
	}
	t.SetRules(rules)
	return rules, nil
}

// SetGoals replaces the goals and rescores every ledger entry.
func (t *Tracker) SetGoals(ctx context.Context, g model.Goals) error {
	if err := validGoals(g); err != nil {
		return err
	}
	t.mu.Lock()
	if g == t.goals {
		t.mu.Unlock()
		return nil
	}
	t.goals = g
	t.summary.Score = ledger.SummaryScore(t.summary, g)
	next, changed := ledger.Rescore(t.ledger, g)
	if changed {
		t.ledger = next
		t.markDirtyLocked()
	}
	t.mu.Unlock()

	if t.state != nil {
		t.state.Set(appstate.KeyGoals, g)
	}
	t.log.Info().Float64("water_ml", g.WaterMl).Float64("study_minutes", g.StudyMinutes).Bool("rescored", changed).Msg("goals updated")
	if !changed {
		return nil
	}
	t.notify(&Change{Kind: events.LedgerRescored, Summary: t.Summary()})
	return t.Flush(ctx)
}

// DeleteEntry removes the ledger entry for dateKey.
func (t *Tracker) DeleteEntry(ctx context.Context, dateKey string) error {
	if err := model.ValidateDateKey(dateKey); err != nil {
		return err
	}
	t.mu.Lock()
	next, err := ledger.Delete(t.ledger, dateKey)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	t.ledger = next
	t.markDirtyLocked()
	if t.labels.dropDate(dateKey) {
		t.saveLabelsLocked()
		if t.dayKey == dateKey && t.loadErr == nil {
			t.view, t.summary = t.deriveLocked(dateKey, t.day)
		}
	}
	t.mu.Unlock()

	t.log.Info().Str("date", dateKey).Msg("ledger entry deleted")
	t.notify(&Change{Kind: events.EntryDeleted, DateKey: dateKey, Summary: model.EmptySummary(dateKey)})
	return t.Flush(ctx)
}

// SetFeedback replaces the feedback text of an existing entry.
func (t *Tracker) SetFeedback(ctx context.Context, dateKey, text string) (model.LedgerEntry, error) {
	if err := model.ValidateDateKey(dateKey); err != nil {
		return model.LedgerEntry{}, err
	}
	t.mu.Lock()
	next, changed, err := ledger.SetFeedback(t.ledger, dateKey, text)
	if err != nil {
		t.mu.Unlock()
		return model.LedgerEntry{}, err
	}
	if changed {
		t.ledger = next
		t.markDirtyLocked()
	}
	entry := t.ledger[ledger.Find(t.ledger, dateKey)].Clone()
	t.mu.Unlock()

	if !changed {
		return entry, nil
	}
	t.notify(&Change{Kind: events.FeedbackChanged, DateKey: dateKey, Summary: entry.Summary})
	return entry, t.Flush(ctx)
}

// Rollup aggregates the ledger over period. An empty refDate means today.
func (t *Tracker) Rollup(period, refDate string) (ledger.Rollup, error) {
	p, err := ledger.ParsePeriod(period)
	if err != nil {
		return ledger.Rollup{}, err
	}
	if refDate == "" {
		refDate = t.Today()
	}
	if err := model.ValidateDateKey(refDate); err != nil {
		return ledger.Rollup{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return ledger.Summarize(t.ledger, p, refDate, t.goals)
}

func validGoals(g model.Goals) error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: goal %s must be a positive number", model.ErrValidation, name)
		}
		return nil
	}
	if err := check("waterMl", g.WaterMl); err != nil {
		return err
	}
	return check("studyMinutes", g.StudyMinutes)
}
