// Package kvstore provides the durable key/value slots the record
// collections are persisted to. Every backend reports writes made by other
// execution contexts through Watch and stays silent about its own writes.
package kvstore

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("kvstore: store closed")

// Change describes a slot write made by another execution context
type Change struct {
	Key     string
	Value   string
	Removed bool
	Origin  string
}

// Store is a string key/value slot store shared between execution contexts
type Store interface {
	// Get returns the slot value and whether the slot exists
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes the whole slot value
	Set(ctx context.Context, key, value string) error
	// Remove deletes the slot; removing a missing slot is not an error
	Remove(ctx context.Context, key string) error
	// Watch registers fn for changes made by other contexts. The returned stop
	// function unregisters it and is safe to call more than once.
	Watch(ctx context.Context, fn func(Change)) (stop func(), err error)
	// ContextID identifies this execution context in change origins
	ContextID() string
	// Close releases the backend; watchers stop receiving changes
	Close() error
}

// NewContextID returns a fresh execution context identifier
func NewContextID() string {
	return uuid.NewString()
}

// watcherSet is the registry of Watch callbacks shared by all backends
type watcherSet struct {
	mu     sync.RWMutex
	nextID int
	fns    map[int]func(Change)
}

func newWatcherSet() *watcherSet {
	return &watcherSet{fns: make(map[int]func(Change))}
}

func (w *watcherSet) add(fn func(Change)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.fns[id] = fn
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.fns, id)
			w.mu.Unlock()
		})
	}
}

func (w *watcherSet) len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.fns)
}

func (w *watcherSet) clear() {
	w.mu.Lock()
	w.fns = make(map[int]func(Change))
	w.mu.Unlock()
}

// notify calls every watcher in registration order, outside the lock
func (w *watcherSet) notify(c Change) {
	w.mu.RLock()
	ids := make([]int, 0, len(w.fns))
	for id := range w.fns {
		ids = append(ids, id)
	}
	w.mu.RUnlock()
	slices.Sort(ids)

	for _, id := range ids {
		w.mu.RLock()
		fn, ok := w.fns[id]
		w.mu.RUnlock()
		if ok {
			fn(c)
		}
	}
}
