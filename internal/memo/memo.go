// Package memo caches derived per-domain results keyed by event content.
package memo

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/aggregate"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// Key identifies one derivation.
type Key struct {
	Domain          string
	EventsHash      uint64
	GapMinutes      float64
	ClassifyVersion uint64
}

// Cache is a bounded LRU of aggregation results.
type Cache struct {
	lru    *lru.Cache[Key, aggregate.Result]
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache holding at most size results.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = 128
	}
	c, err := lru.New[Key, aggregate.Result](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns a cached result.
func (c *Cache) Get(k Key) (aggregate.Result, bool) {
	r, ok := c.lru.Get(k)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return r, ok
}

// Put stores a result.
func (c *Cache) Put(k Key, r aggregate.Result) { c.lru.Add(k, r) }

// GetOrCompute returns the cached result for k or computes and stores it.
func (c *Cache) GetOrCompute(k Key, compute func() aggregate.Result) (aggregate.Result, bool) {
	if r, ok := c.Get(k); ok {
		return r, true
	}
	r := compute()
	c.Put(k, r)
	return r, false
}

// Invalidate drops every cached result.
func (c *Cache) Invalidate() { c.lru.Purge() }

// Len reports the number of cached results.
func (c *Cache) Len() int { return c.lru.Len() }

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) { return c.hits.Load(), c.misses.Load() }

// HashEvents fingerprints events in order. Field boundaries are delimited so
// adjacent strings cannot collide by concatenation.
func HashEvents(events []model.ActivityEvent) uint64 {
	d := xxhash.New()
	var buf [8]byte
	writeStr := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(s)
	}
	writeF := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	}
	for _, e := range events {
		writeStr(e.ID)
		writeStr(e.Timestamp)
		writeF(e.DurationMinutes)
		writeStr(e.Category)
		writeStr(e.SourceGroup)
		writeF(e.Amount)
		writeStr(e.Annotation)
	}
	return d.Sum64()
}
