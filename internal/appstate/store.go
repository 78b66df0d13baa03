// Package appstate is the process-wide application state store.
package appstate

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Well-known keys.
const (
	KeyViewingDate = "viewingDate"
	KeyGoals       = "goals"
	KeyLabels      = "labels"
)

// Store holds session state with change subscriptions. When constructed with
// a path, every change is written to a YAML snapshot that is reloaded on start.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
	subs   map[string]map[int]func(any)
	nextID int
	path   string
	log    zerolog.Logger
}

// New creates a store, loading the snapshot at path if it exists.
func New(path string, log zerolog.Logger) (*Store, error) {
	s := &Store{
		values: map[string]any{},
		subs:   map[string]map[int]func(any){},
		path:   path,
		log:    log,
	}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	if s.values == nil {
		s.values = map[string]any{}
	}
	return s, nil
}

// Get returns the raw value for key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString returns a string value, or "" when missing or of another type.
func (s *Store) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// Decode copies the value for key into out, converting through YAML so that
// snapshot-loaded maps decode into structs.
func (s *Store) Decode(key string, out any) (bool, error) {
	v, ok := s.Get(key)
	if !ok {
		return false, nil
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return true, err
	}
	return true, yaml.Unmarshal(data, out)
}

// Set stores value and notifies subscribers when it differs from the current one.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	if old, ok := s.values[key]; ok && reflect.DeepEqual(old, value) {
		s.mu.Unlock()
		return
	}
	s.values[key] = value
	fns := make([]func(any), 0, len(s.subs[key]))
	for _, fn := range s.subs[key] {
		fns = append(fns, fn)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if snapshot != nil {
		if err := s.write(snapshot); err != nil {
			s.log.Warn().Err(err).Str("path", s.path).Msg("state snapshot write failed")
		}
	}
	for _, fn := range fns {
		fn(value)
	}
}

// Subscribe registers fn for changes of key and returns its cancel function.
func (s *Store) Subscribe(key string, fn func(any)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	if s.subs[key] == nil {
		s.subs[key] = map[int]func(any){}
	}
	s.subs[key][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[key], id)
	}
}

func (s *Store) snapshotLocked() []byte {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(s.values)
	if err != nil {
		s.log.Warn().Err(err).Msg("state snapshot marshal failed")
		return nil
	}
	return data
}

func (s *Store) write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
