// Package persist writes the in-memory ledger to the store in the background.
package persist

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/events"
)

// Flusher persists pending ledger changes.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Config controls the flush cadence and the retry window after a failure.
type Config struct {
	Interval   time.Duration // poll interval
	MaxBackoff time.Duration // upper bound between retries after a failed flush
}

// Worker flushes on a ticker and whenever a ledger mutation is published.
type Worker struct {
	flusher Flusher
	wake    <-chan events.Event
	log     zerolog.Logger
	cfg     Config
	retry   backoff.BackOff
}

// NewWorker constructs a Worker. bus may be nil, in which case only the ticker drives flushes.
func NewWorker(f Flusher, bus *events.Bus, cfg Config, log zerolog.Logger) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = time.Minute
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = cfg.MaxBackoff
	b.MaxElapsedTime = 0
	w := &Worker{flusher: f, log: log, cfg: cfg, retry: b}
	if bus != nil {
		w.wake = bus.Subscribe()
	}
	return w
}

// Run starts the flush loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.cfg.Interval).Msg("persist worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	var notBefore time.Time
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("persist worker stopping")
			return ctx.Err()
		case evt := <-w.wake:
			w.log.Debug().Str("kind", string(evt.Kind)).Str("date", evt.DateKey).Msg("ledger changed")
		case <-ticker.C:
		}
		if time.Now().Before(notBefore) {
			continue
		}
		if err := w.processOnce(ctx); err != nil {
			wait := w.retry.NextBackOff()
			notBefore = time.Now().Add(wait)
			w.log.Error().Err(err).Dur("retry_in", wait).Msg("ledger flush failed")
			continue
		}
		w.retry.Reset()
		notBefore = time.Time{}
	}
}

func (w *Worker) processOnce(ctx context.Context) error {
	return w.flusher.Flush(ctx)
}
