package logsource

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/health"
)

// HealthChecker probes the log API root.
type HealthChecker struct {
	pinger       health.HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewHealthChecker creates a checker that starts unhealthy.
func NewHealthChecker(p health.HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *HealthChecker {
	return &HealthChecker{pinger: p, log: log, probeTimeout: probeTimeout}
}

func (hc *HealthChecker) Name() string    { return "log-source" }
func (hc *HealthChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

// Start begins periodic health checking.
func (hc *HealthChecker) Start(ctx context.Context, interval time.Duration) {
	health.Poll(ctx, interval, func() {
		to := hc.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()
		if err := hc.pinger.HealthPing(checkCtx); err != nil {
			hc.log.Error().Str("checker", hc.Name()).Err(err).Msg("log source health check failed")
			hc.healthy.Store(0)
			return
		}
		hc.healthy.Store(1)
	})
}
