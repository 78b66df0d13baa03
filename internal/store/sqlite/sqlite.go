// Package sqlite is the cgo-free SQLite ledger store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store/sqlcodec"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL journal mode.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// single writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)
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
            summary     TEXT NOT NULL,
            feedback    TEXT NOT NULL DEFAULT '',
            metadata    TEXT,
            update_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`)
	return err
}

// NewWithDB constructs a store backed by db. The schema must exist.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Ledger() store.Ledger { return &ledger{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close releases the database handle.
func (s *sqliteStore) Close() error { return s.db.Close() }

type ledger struct{ db *sql.DB }

func (l *ledger) List(ctx context.Context) ([]model.LedgerEntry, error) {
	rows, err := l.db.QueryContext(ctx, `
        SELECT date_key, summary, feedback, metadata
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
        SELECT date_key, summary, feedback, metadata
        FROM ledger_entries WHERE date_key = ?`, dateKey)
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
		SelectKeys: `SELECT date_key FROM ledger_entries`,
		Delete:     `DELETE FROM ledger_entries WHERE date_key = ?`,
		Upsert: `
            INSERT INTO ledger_entries (date_key, summary, feedback, metadata, update_time)
            VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
            ON CONFLICT(date_key) DO UPDATE SET
                summary = excluded.summary,
                feedback = excluded.feedback,
                metadata = excluded.metadata,
                update_time = CURRENT_TIMESTAMP`,
	}, entries)
}
