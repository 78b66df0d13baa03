package ledgerservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/api"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/appstate"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/classify"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/config"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/events"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/factory"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/health"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/logsource"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/memo"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/metrics"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/persist"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/platform/logger"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/tracker"
)

// Run starts the ledger service HTTP server and blocks until shutdown or error.
func Run() error {
	cfg, err := config.New()
	if err != nil {
		log := logger.New("ledger-service")
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	return RunWithConfig(cfg)
}

// RunWithConfig is Run with an explicit configuration.
func RunWithConfig(cfg *config.Config) error {
	log := logger.New("ledger-service").Level(logger.ParseLevel(cfg.LogLevel))

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("log_source_url", cfg.LogSourceURL).
		Msg("Ledger service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.closeStore(); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}()

	router := buildRouter(deps.tracker)

	svcHealth := startHealthCheckers(ctx, cfg, log, deps.store, deps.source)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	// Restore the last viewed day, or today
	if _, err := deps.tracker.Select(deps.tracker.RestoredSelection()); err != nil {
		log.Warn().Err(err).Msg("initial selection failed")
	}

	worker := persist.NewWorker(deps.tracker, deps.bus, persist.Config{Interval: cfg.PersistInterval()}, log)
	go func() { _ = worker.Run(ctx) }()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadRulesOnSignal(ctx, hup, deps.tracker.ReloadRules, log)

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			runErr = err
		}
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		runErr = err
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := deps.tracker.Flush(flushCtx); err != nil {
		log.Error().Stack().Err(err).Msg("final ledger flush failed")
		if runErr == nil {
			runErr = err
		}
	}
	log.Info().Msg("Server exited")
	return runErr
}

type dependencies struct {
	store      store.Store
	closeStore func() error
	source     *logsource.Client
	bus        *events.Bus
	tracker    *tracker.Tracker
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, error) {
	st, closeStore, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, err
	}

	src, err := factory.NewLogSource(cfg, log)
	if err != nil {
		_ = closeStore()
		log.Error().Stack().Err(err).Msg("Log source unavailable")
		return nil, err
	}

	rules := classify.DefaultRules()
	if cfg.RulesFile != "" {
		if rules, err = classify.LoadRules(cfg.RulesFile); err != nil {
			_ = closeStore()
			return nil, fmt.Errorf("rules file: %w", err)
		}
	}
	gaps := tracker.Gaps{Water: cfg.WaterGapMinutes, Book: cfg.BookGapMinutes, Laptop: cfg.LaptopGapMinutes}
	domains := tracker.NewDomains(rules, gaps, cfg.MinSessionMinutes)

	cache, err := memo.New(cfg.MemoSize)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	state, err := appstate.New(cfg.StateFile, log)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	bus := events.NewBus(64)

	tr, err := tracker.New(tracker.Options{
		Source:      src,
		Store:       st.Ledger(),
		Domains:     &domains,
		Goals:       cfg.Goals(),
		Memo:        cache,
		Bus:         bus,
		State:       state,
		Log:         log,
		RulesFile:   cfg.RulesFile,
		BaseContext: ctx,
	})
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	if err := tr.Load(ctx); err != nil {
		_ = closeStore()
		log.Error().Stack().Err(err).Msg("Ledger load failed")
		return nil, err
	}
	return &dependencies{store: st, closeStore: closeStore, source: src, bus: bus, tracker: tr}, nil
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(tr *tracker.Tracker) *mux.Router {
	return api.NewRouter(tr, metrics.Handler())
}

// startHealthCheckers starts component checkers and service-level aggregator; binds health.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, src *logsource.Client) *health.ServiceHealthChecker {
	var checkers []health.HealthChecker
	probeTimeout := cfg.HealthProbeTimeout()
	interval := cfg.HealthInterval()

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)
	checkers = append(checkers, storeChecker)

	srcChecker := logsource.NewHealthChecker(src, log, probeTimeout)
	go srcChecker.Start(ctx, interval)
	checkers = append(checkers, srcChecker)

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy, svcHealth.Unhealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// selections may wait on the log source
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds (down: %v)", timeoutSeconds, svcHealth.Unhealthy())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
// reloadRulesOnSignal re-reads the rules file on every signal until ctx is done.
// A broken file is logged and the running rules stay in effect.
func reloadRulesOnSignal(ctx context.Context, sig <-chan os.Signal, reload func() (classify.Rules, error), log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			rules, err := reload()
			if err != nil {
				log.Error().Err(err).Msg("rules reload failed")
				continue
			}
			log.Info().Int("rules_version", rules.Version).Msg("rules reloaded")
		}
	}
}

func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
