// Package sqlcodec holds the row encoding and replace transaction shared by
// the database/sql ledger drivers.
package sqlcodec

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanEntry reads (date_key, summary, feedback, metadata).
func ScanEntry(sc Scanner) (model.LedgerEntry, error) {
	var (
		e       model.LedgerEntry
		summary string
		meta    sql.NullString
	)
	if err := sc.Scan(&e.DateKey, &summary, &e.Feedback, &meta); err != nil {
		return model.LedgerEntry{}, err
	}
	if err := json.Unmarshal([]byte(summary), &e.Summary); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("decode summary %s: %w", e.DateKey, err)
	}
	e.Summary.DateKey = e.DateKey
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &e.Metadata); err != nil {
			return model.LedgerEntry{}, fmt.Errorf("decode metadata %s: %w", e.DateKey, err)
		}
	}
	return e, nil
}

// Statements are the driver-specific SQL used by Replace. Upsert takes
// (date_key, summary, feedback, metadata); Delete takes (date_key).
type Statements struct {
	SelectKeys string
	Delete     string
	Upsert     string
}

// Replace rewrites the ledger table to match entries inside one transaction.
func Replace(ctx context.Context, db *sql.DB, st Statements, entries []model.LedgerEntry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := keys(ctx, tx, st.SelectKeys)
	if err != nil {
		return err
	}
	want := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		want[e.DateKey] = struct{}{}
	}
	for _, k := range existing {
		if _, ok := want[k]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, st.Delete, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	for _, e := range entries {
		summary, meta, err := encode(e)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, st.Upsert, e.DateKey, summary, e.Feedback, meta); err != nil {
			return fmt.Errorf("upsert %s: %w", e.DateKey, err)
		}
	}
	return tx.Commit()
}

func keys(ctx context.Context, tx *sql.Tx, query string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func encode(e model.LedgerEntry) (string, any, error) {
	s := e.Summary
	s.DateKey = e.DateKey
	summary, err := json.Marshal(s)
	if err != nil {
		return "", nil, err
	}
	if len(e.Metadata) == 0 {
		return string(summary), nil, nil
	}
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return "", nil, err
	}
	return string(summary), string(meta), nil
}
