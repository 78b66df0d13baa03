// Package postgres is the PostgreSQL ledger store (pgx stdlib driver).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store/sqlcodec"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the ledger table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS ledger_entries (
            date_key    TEXT PRIMARY KEY,
            summary     JSONB NOT NULL,
            feedback    TEXT NOT NULL DEFAULT '',
            metadata    JSONB,
            update_time TIMESTAMPTZ NOT NULL DEFAULT now()
        )`)
	return err
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Ledger() store.Ledger { return &ledger{db: s.db} }

// HealthPing implements health.HealthPinger for Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close releases the connection pool.
func (s *pgStore) Close() error { return s.db.Close() }

type ledger struct{ db *sql.DB }

func (l *ledger) List(ctx context.Context) ([]model.LedgerEntry, error) {
	rows, err := l.db.QueryContext(ctx, `
        SELECT date_key, summary::text, feedback, metadata::text
        FROM ledger_entries ORDER BY date_key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.LedgerEntry
	for rows.Next() {
		e, err := sqlcodec.ScanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *ledger) Get(ctx context.Context, dateKey string) (*model.LedgerEntry, error) {
	row := l.db.QueryRowContext(ctx, `
        SELECT date_key, summary::text, feedback, metadata::text
        FROM ledger_entries WHERE date_key = $1`, dateKey)
	e, err := sqlcodec.ScanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger entry %s: %w", dateKey, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (l *ledger) Replace(ctx context.Context, entries []model.LedgerEntry) error {
	return sqlcodec.Replace(ctx, l.db, sqlcodec.Statements{
		SelectKeys: `SELECT date_key FROM ledger_entries FOR UPDATE`,
		Delete:     `DELETE FROM ledger_entries WHERE date_key = $1`,
		Upsert: `
            INSERT INTO ledger_entries (date_key, summary, feedback, metadata, update_time)
            VALUES ($1, $2::jsonb, $3, $4::jsonb, now())
            ON CONFLICT (date_key) DO UPDATE SET
                summary = EXCLUDED.summary,
                feedback = EXCLUDED.feedback,
                metadata = EXCLUDED.metadata,
                update_time = now()`,
	}, entries)
}
