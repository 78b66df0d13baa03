// Package metrics defines the service's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "daily_ledger"

var (
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Day fetches by outcome (applied, discarded, failed).",
		},
		[]string{"outcome"},
	)

	ReconcilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciles_total",
			Help:      "Ledger reconciliations by outcome (noop, skipped_empty, inserted, updated).",
		},
		[]string{"outcome"},
	)

	PersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Failed ledger writes to the store.",
		},
	)

	MemoLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memo_lookups_total",
			Help:      "Derived-session cache lookups by result (hit, miss).",
		},
		[]string{"result"},
	)

	PanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_panics_total",
			Help:      "Handler panics recovered by the HTTP middleware.",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
