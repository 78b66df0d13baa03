// Package tracker runs the daily pipeline: fetch a date's events, segment and
// aggregate them per domain, and reconcile the summary into the ledger.
package tracker

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/aggregate"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/appstate"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/classify"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/coordinator"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/events"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/ledger"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/logsource"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/memo"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/metrics"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/platform/clock"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/segment"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store"
)

// Flight is an in-flight day fetch.
type Flight = coordinator.Flight[model.DayEvents]

// Change describes a ledger mutation delivered to OnSummaryChanged subscribers.
type Change struct {
	Kind    events.Kind
	DateKey string
	Summary model.DailySummary
}

// Options wires a Tracker. Source and Store are required.
type Options struct {
	Source  logsource.Source
	Store   store.Ledger
	Domains *Domains
	Goals   model.Goals
	Memo    *memo.Cache
	Bus     *events.Bus
	State   *appstate.Store
	Clock   clock.Clock
	Log     zerolog.Logger
	// RulesFile is re-read by ReloadRules. Empty means the built-in rules.
	RulesFile string
	// BaseContext parents background fetches.
	BaseContext context.Context
}

// Tracker owns the ledger and the derived view of the selected day.
// Ledger access is serialized by mu; fetch commits arrive from the
// coordinator, which never holds mu itself.
type Tracker struct {
	source logsource.Source
	store  store.Ledger
	memo   *memo.Cache
	bus    *events.Bus
	state  *appstate.Store
	clock  clock.Clock
	log    zerolog.Logger
	coord  *coordinator.Coordinator[model.DayEvents]

	rulesFile string

	flushMu sync.Mutex

	mu         sync.Mutex
	domains    Domains
	goals      model.Goals
	version    uint64
	ledger     []model.LedgerEntry
	labels     labelSet
	dayKey     string
	day        model.DayEvents
	view       DayView
	summary    model.DailySummary
	loadErr    error
	dirty      bool
	gen        uint64
	persistErr error

	subsMu  sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// New constructs a Tracker. Goals stored in the app state take precedence
// over opts.Goals.
func New(opts Options) (*Tracker, error) {
	if opts.Source == nil || opts.Store == nil {
		return nil, fmt.Errorf("%w: tracker needs a source and a store", model.ErrValidation)
	}
	if opts.Domains == nil {
		d := NewDomains(classify.DefaultRules(), DefaultGaps(), segment.DefaultEpsilon)
		opts.Domains = &d
	}
	if opts.Goals == (model.Goals{}) {
		opts.Goals = model.DefaultGoals()
	}
	if opts.Clock == nil {
		opts.Clock = clock.SystemClock{}
	}
	t := &Tracker{
		source:  opts.Source,
		store:   opts.Store,
		memo:    opts.Memo,
		bus:     opts.Bus,
		state:   opts.State,
		clock:   opts.Clock,
		log:     opts.Log,
		domains: *opts.Domains,
		goals:   opts.Goals,

		rulesFile: opts.RulesFile,
		version: 1,
		labels:  restoreLabels(opts.State),
		subs:    map[int]func(Change){},
	}
	if t.state != nil {
		var g model.Goals
		if ok, err := t.state.Decode(appstate.KeyGoals, &g); ok && err == nil && validGoals(g) == nil {
			t.goals = g
		}
	}
	t.coord = coordinator.New(t.fetch, t.commit, coordinator.Options{
		BaseContext: opts.BaseContext,
		OnDiscard: func(key string, err error) {
			metrics.FetchesTotal.WithLabelValues("discarded").Inc()
			t.log.Debug().Str("date", key).AnErr("fetch_err", err).Msg("stale day result discarded")
		},
	})
	return t, nil
}

// Load replaces the in-memory ledger with the stored one.
func (t *Tracker) Load(ctx context.Context) error {
	entries, err := t.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	t.mu.Lock()
	t.ledger = ledger.Normalize(entries)
	n := len(t.ledger)
	t.mu.Unlock()
	t.log.Info().Int("entries", n).Msg("ledger loaded")
	return nil
}

// Today returns the current date key.
func (t *Tracker) Today() string { return clock.Today(t.clock) }

// RestoredSelection returns the viewing date saved in the app state, or today.
func (t *Tracker) RestoredSelection() string {
	if t.state != nil {
		if k := t.state.GetString(appstate.KeyViewingDate); model.ValidateDateKey(k) == nil {
			return k
		}
	}
	return t.Today()
}

// Select makes dateKey the active day and starts loading it.
func (t *Tracker) Select(dateKey string) (*Flight, error) {
	if err := model.ValidateDateKey(dateKey); err != nil {
		return nil, err
	}
	f := t.coord.Select(dateKey)
	if t.state != nil {
		t.state.Set(appstate.KeyViewingDate, dateKey)
	}
	return f, nil
}

// Reload fetches the active day again.
func (t *Tracker) Reload() (*Flight, error) {
	f, err := t.coord.Reload()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	return f, nil
}

func (t *Tracker) fetch(ctx context.Context, dateKey string) (model.DayEvents, error) {
	return t.source.FetchDay(ctx, dateKey)
}

// commit runs under the coordinator lock for results of the active key.
// Subscribers are notified from the returned func, after that lock is released.
func (t *Tracker) commit(dateKey string, day model.DayEvents, err error) func() {
	if err != nil {
		metrics.FetchesTotal.WithLabelValues("failed").Inc()
		t.log.Warn().Err(err).Str("date", dateKey).Msg("day load failed")
		t.mu.Lock()
		t.dayKey = dateKey
		t.day = model.DayEvents{}
		t.view = emptyView(dateKey)
		t.summary = model.EmptySummary(dateKey)
		t.loadErr = fmt.Errorf("day %s: %w: %v", dateKey, model.ErrLoadFailed, err)
		t.mu.Unlock()
		return nil
	}
	metrics.FetchesTotal.WithLabelValues("applied").Inc()
	t.mu.Lock()
	t.loadErr = nil
	change := t.applyLocked(dateKey, day)
	t.mu.Unlock()
	if change == nil {
		return nil
	}
	return func() { t.notify(change) }
}

// applyLocked derives the day and reconciles it. Caller holds mu.
func (t *Tracker) applyLocked(dateKey string, day model.DayEvents) *Change {
	t.dayKey = dateKey
	t.day = day
	t.view, t.summary = t.deriveLocked(dateKey, withLabels(day, t.domains, dateKey, t.labels))

	next, outcome := ledger.Reconcile(t.ledger, dateKey, t.summary)
	metrics.ReconcilesTotal.WithLabelValues(outcome.String()).Inc()
	if !outcome.Mutated() {
		return nil
	}
	t.ledger = next
	t.markDirtyLocked()
	t.log.Info().Str("date", dateKey).Str("outcome", outcome.String()).Float64("score", t.summary.Score).Msg("ledger reconciled")
	return &Change{Kind: events.EntryUpserted, DateKey: dateKey, Summary: t.summary}
}

func (t *Tracker) deriveLocked(dateKey string, day model.DayEvents) (DayView, model.DailySummary) {
	water := t.runLocked(t.domains.Water, day.Water)
	book := t.runLocked(t.domains.Book, day.Book)
	laptop := t.runLocked(t.domains.Laptop, day.Laptop)

	s := model.DailySummary{
		DateKey:       dateKey,
		CountedTotal:  round1(book.CountedTotal + laptop.CountedTotal),
		ExcludedTotal: round1(book.ExcludedTotal + laptop.ExcludedTotal),
		WaterMl:       round1(water.CountedTotal),
		DrinkMl:       round1(water.ExcludedTotal),
		DrinkCount:    countPositive(day.Water),
	}
	s.Score = ledger.SummaryScore(s, t.goals)

	view := DayView{
		DateKey: dateKey,
		Water:   domainView(t.domains.Water, water),
		Book:    domainView(t.domains.Book, book),
		Laptop:  domainView(t.domains.Laptop, laptop),
	}
	return view, s
}

func (t *Tracker) runLocked(d Domain, evs []model.ActivityEvent) aggregate.Result {
	compute := func() aggregate.Result {
		return aggregate.Aggregate(segment.Segment(evs, d.Segment), d.Classify, d.Measure)
	}
	if t.memo == nil {
		return compute()
	}
	key := memo.Key{
		Domain:          d.Name,
		EventsHash:      memo.HashEvents(evs),
		GapMinutes:      d.Segment.GapMinutes,
		ClassifyVersion: t.version,
	}
	res, hit := t.memo.GetOrCompute(key, compute)
	if hit {
		metrics.MemoLookupsTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.MemoLookupsTotal.WithLabelValues("miss").Inc()
	}
	return res
}

func (t *Tracker) markDirtyLocked() {
	t.dirty = true
	t.gen++
}

// Summary returns the summary of the active day. Before the active day has
// loaded it falls back to the ledger entry for that date, or an empty summary.
func (t *Tracker) Summary() model.DailySummary {
	active := t.coord.Active()
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summaryForLocked(active)
}

func (t *Tracker) summaryForLocked(active string) model.DailySummary {
	if active == "" {
		return model.DailySummary{}
	}
	if t.dayKey == active {
		return t.summary
	}
	if i := ledger.Find(t.ledger, active); i >= 0 {
		return t.ledger[i].Summary
	}
	return model.EmptySummary(active)
}

// LoadErr returns the load failure of the active day. It wraps
// model.ErrLoadFailed and is nil once the day loads.
func (t *Tracker) LoadErr() error {
	active := t.coord.Active()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loadErr != nil && t.dayKey == active {
		return t.loadErr
	}
	return nil
}

// Day returns the derived sessions of the active day.
func (t *Tracker) Day() (DayView, error) {
	active := t.coord.Active()
	t.mu.Lock()
	defer t.mu.Unlock()
	if active == "" || t.dayKey != active {
		return DayView{}, fmt.Errorf("day %q: %w", active, model.ErrNotFound)
	}
	v := t.view
	v.LoadFailed = t.loadErr != nil
	return v, nil
}

// Status reports the selection, load and persistence state.
func (t *Tracker) Status() Status {
	active, st := t.coord.Status()
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Status{
		DateKey: active,
		State:   st.String(),
		Dirty:   t.dirty,
		Summary: t.summaryForLocked(active),
		Goals:   t.goals,
	}
	if t.loadErr != nil && t.dayKey == active {
		s.LoadFailed = true
		s.LoadError = t.loadErr.Error()
	}
	if t.persistErr != nil {
		s.PersistError = t.persistErr.Error()
	}
	return s
}

// Ledger returns a sorted copy of the ledger.
func (t *Tracker) Ledger() []model.LedgerEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.LedgerEntry, len(t.ledger))
	for i, e := range t.ledger {
		out[i] = e.Clone()
	}
	return out
}

// Entry returns the ledger entry for dateKey.
func (t *Tracker) Entry(dateKey string) (model.LedgerEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := ledger.Find(t.ledger, dateKey)
	if i < 0 {
		return model.LedgerEntry{}, fmt.Errorf("ledger entry %s: %w", dateKey, model.ErrNotFound)
	}
	return t.ledger[i].Clone(), nil
}

// Goals returns the current goals.
func (t *Tracker) Goals() model.Goals {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.goals
}

// OnSummaryChanged registers fn for ledger mutations and returns its cancel
// function. fn runs synchronously with no tracker lock held; it may read the
// tracker but a slow fn delays the caller that caused the change.
func (t *Tracker) OnSummaryChanged(fn func(Change)) func() {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	return func() {
		t.subsMu.Lock()
		defer t.subsMu.Unlock()
		delete(t.subs, id)
	}
}

func (t *Tracker) notify(c *Change) {
	if c == nil {
		return
	}
	if t.bus != nil && !t.bus.Publish(events.Event{Kind: c.Kind, DateKey: c.DateKey}) {
		t.log.Debug().Str("date", c.DateKey).Msg("event bus full; change not published")
	}
	t.subsMu.Lock()
	fns := make([]func(Change), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.subsMu.Unlock()
	for _, fn := range fns {
		fn(*c)
	}
}

// Flush writes the ledger to the store if it changed since the last write.
// A failed write keeps the in-memory ledger and leaves it dirty.
func (t *Tracker) Flush(ctx context.Context) error {
	t.flushMu.Lock()
	defer t.flushMu.Unlock()

	t.mu.Lock()
	if !t.dirty {
		t.mu.Unlock()
		return nil
	}
	gen := t.gen
	snapshot := make([]model.LedgerEntry, len(t.ledger))
	for i, e := range t.ledger {
		snapshot[i] = e.Clone()
	}
	t.mu.Unlock()

	err := t.store.Replace(ctx, snapshot)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		metrics.PersistFailuresTotal.Inc()
		t.persistErr = err
		return fmt.Errorf("%w: %v", model.ErrPersist, err)
	}
	t.persistErr = nil
	if t.gen == gen {
		t.dirty = false
	}
	return nil
}

// Dirty reports whether the ledger has unsaved changes.
func (t *Tracker) Dirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func countPositive(evs []model.ActivityEvent) int {
	n := 0
	for _, e := range evs {
		if e.Quantity() > 0 {
			n++
		}
	}
	return n
}
