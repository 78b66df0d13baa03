package factory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/config"
	storepkg "github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store/memory"
	storepg "github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store/postgres"
	storesqlite "github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store/sqlite"
)

// NewStore opens the store selected by cfg.DBDriver and ensures its schema.
// The returned close function releases the underlying connection pool.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, func() error, error) {
	noop := func() error { return nil }

	var (
		db     *sql.DB
		err    error
		ensure func(context.Context, *sql.DB) error
		wrap   func(*sql.DB) storepkg.Store
	)
	switch cfg.DBDriver {
	case "memory":
		log.Warn().Msg("using in-memory ledger store; entries are lost on exit")
		return memory.New(), noop, nil
	case "sqlite":
		db, err = storesqlite.Open(cfg.SQLitePath)
		ensure, wrap = storesqlite.EnsureSchema, storesqlite.NewWithDB
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, noop, fmt.Errorf("LEDGER_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err = storepg.Open(cfg.PostgresDSN)
		ensure, wrap = storepg.EnsureSchema, storepg.NewWithDB
	default:
		return nil, noop, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
	if err != nil {
		return nil, noop, err
	}
	// schema must exist before the ledger is loaded
	if err := ensure(ctx, db); err != nil {
		_ = db.Close()
		return nil, noop, fmt.Errorf("%s schema: %w", cfg.DBDriver, err)
	}
	log.Debug().Str("driver", cfg.DBDriver).Msg("store schema ensured")
	return wrap(db), db.Close, nil
}
