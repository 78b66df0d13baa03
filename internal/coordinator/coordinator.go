// Package coordinator issues keyed fetches and applies results only for the
// currently selected key.
package coordinator

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSelection is returned by Reload before any key was selected.
var ErrNoSelection = errors.New("no active selection")

// State is the coordinator or flight state.
type State int

const (
	Idle State = iota
	Fetching
	Applied
	Discarded
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Applied:
		return "applied"
	case Discarded:
		return "discarded"
	default:
		return "idle"
	}
}

// FetchFunc loads the value for key.
type FetchFunc[T any] func(ctx context.Context, key string) (T, error)

// CommitFunc receives the outcome of a fetch for the active key. err is the
// fetch error, if any. It runs while the coordinator is locked and must not
// call back into the coordinator. The returned func, if any, runs after the
// lock is released and before the flight is marked done.
type CommitFunc[T any] func(key string, value T, err error) func()

// Options tunes a Coordinator.
type Options struct {
	// BaseContext parents every fetch. Defaults to context.Background.
	BaseContext context.Context
	// OnDiscard observes dropped results. err is the fetch error, if any.
	OnDiscard func(key string, err error)
}

// Result is the terminal outcome of one flight.
type Result[T any] struct {
	Key   string
	State State
	Value T
	Err   error
}

// Flight is one in-flight fetch.
type Flight[T any] struct {
	key      string
	done     chan struct{}
	cancel   context.CancelFunc
	canceled bool
	res      Result[T]
}

// Key returns the key being fetched.
func (f *Flight[T]) Key() string { return f.key }

// Done is closed once the flight was applied or discarded.
func (f *Flight[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the flight finishes or ctx is done.
func (f *Flight[T]) Wait(ctx context.Context) (Result[T], error) {
	select {
	case <-f.done:
		return f.res, nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}

func (f *Flight[T]) finished() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Coordinator tracks the active key and gates fetch results on it.
type Coordinator[T any] struct {
	mu      sync.Mutex
	fetch   FetchFunc[T]
	commit  CommitFunc[T]
	opts    Options
	active  string
	state   State
	current *Flight[T]
}

// New returns an idle coordinator.
func New[T any](fetch FetchFunc[T], commit CommitFunc[T], opts Options) *Coordinator[T] {
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	return &Coordinator[T]{fetch: fetch, commit: commit, opts: opts}
}

// Select makes key the active selection and starts fetching it. Selecting the
// key whose fetch is still running returns that flight instead of starting
// another. A running fetch for a different key is canceled and its result
// will be discarded.
func (c *Coordinator[T]) Select(key string) *Flight[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == c.active && c.current != nil && !c.current.finished() {
		return c.current
	}
	if c.current != nil && c.current.key != key && !c.current.finished() {
		c.current.canceled = true
		c.current.cancel()
	}
	c.active = key
	return c.startLocked(key)
}

// Reload starts another fetch for the active key, even if one is running.
func (c *Coordinator[T]) Reload() (*Flight[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == "" {
		return nil, ErrNoSelection
	}
	return c.startLocked(c.active), nil
}

// Active returns the selected key.
func (c *Coordinator[T]) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Status returns the active key and the state of its latest fetch.
func (c *Coordinator[T]) Status() (string, State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.state
}

func (c *Coordinator[T]) startLocked(key string) *Flight[T] {
	ctx, cancel := context.WithCancel(c.opts.BaseContext)
	f := &Flight[T]{key: key, done: make(chan struct{}), cancel: cancel}
	c.current = f
	c.state = Fetching
	go c.run(ctx, f)
	return f
}

func (c *Coordinator[T]) run(ctx context.Context, f *Flight[T]) {
	defer f.cancel()
	v, err := c.fetch(ctx, f.key)

	c.mu.Lock()
	if f.canceled || c.active != f.key {
		f.res = Result[T]{Key: f.key, State: Discarded, Err: err}
		c.mu.Unlock()
		if c.opts.OnDiscard != nil {
			c.opts.OnDiscard(f.key, err)
		}
		close(f.done)
		return
	}
	var after func()
	if c.commit != nil {
		after = c.commit(f.key, v, err)
	}
	if c.current == f {
		c.state = Applied
	}
	f.res = Result[T]{Key: f.key, State: Applied, Value: v, Err: err}
	c.mu.Unlock()
	if after != nil {
		after()
	}
	close(f.done)
}
