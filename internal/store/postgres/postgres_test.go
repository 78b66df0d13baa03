package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store/storetest"
)

func makePGStore(t *testing.T) store.Store {
	t.Helper()
	dsn := os.Getenv("LEDGER_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LEDGER_POSTGRES_DSN not set; skipping postgres store test")
	}
	return openClean(t, dsn)
}

func openClean(t *testing.T, dsn string) store.Store {
	t.Helper()
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, `TRUNCATE ledger_entries`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewWithDB(db)
}

func TestPostgresStore_Compliance(t *testing.T) {
	storetest.Run(t, makePGStore)
}
