package store

import (
	"context"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// Store exposes persistence operations required by the tracker.
// Implementations live under internal/store/<driver>/ (memory, sqlite, postgres).
type Store interface {
	Ledger() Ledger
}

// Ledger persists date-keyed ledger entries.
type Ledger interface {
	// List returns every entry sorted ascending by date.
	List(ctx context.Context) ([]model.LedgerEntry, error)
	// Get returns the entry for dateKey or model.ErrNotFound.
	Get(ctx context.Context, dateKey string) (*model.LedgerEntry, error)
	// Replace makes the stored ledger equal to entries in one transaction.
	Replace(ctx context.Context, entries []model.LedgerEntry) error
}
