// Package memory is an in-process ledger store for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store"
)

// New returns an empty store.
func New() store.Store { return &memStore{entries: map[string]model.LedgerEntry{}} }

type memStore struct {
	mu      sync.RWMutex
	entries map[string]model.LedgerEntry
}

func (s *memStore) Ledger() store.Ledger { return s }

// HealthPing implements health.HealthPinger.
func (s *memStore) HealthPing(context.Context) error { return nil }

func (s *memStore) List(ctx context.Context) ([]model.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.LedgerEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out, nil
}

func (s *memStore) Get(ctx context.Context, dateKey string) (*model.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[dateKey]
	if !ok {
		return nil, fmt.Errorf("ledger entry %s: %w", dateKey, model.ErrNotFound)
	}
	out := e.Clone()
	return &out, nil
}

func (s *memStore) Replace(ctx context.Context, entries []model.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := make(map[string]model.LedgerEntry, len(entries))
	for _, e := range entries {
		next[e.DateKey] = e.Clone()
	}
	s.mu.Lock()
	s.entries = next
	s.mu.Unlock()
	return nil
}
