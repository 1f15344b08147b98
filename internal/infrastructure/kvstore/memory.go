package kvstore

import (
	"context"
	"sync"
)

// MemoryBackend is an in-process slot space shared by several contexts, the
// way browser tabs share one local storage area. Writes and their
// notifications are serialised by order, so every context observes changes
// in the order they hit the data. Watch callbacks must not write to the
// same backend.
type MemoryBackend struct {
	order    sync.Mutex
	mu       sync.RWMutex
	data     map[string]string
	contexts []*MemoryStore
}

// NewMemoryBackend creates an empty shared slot space
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]string)}
}

// NewContext attaches a new execution context to the backend.
// An empty id is replaced by a generated one.
func (b *MemoryBackend) NewContext(id string) *MemoryStore {
	if id == "" {
		id = NewContextID()
	}
	s := &MemoryStore{backend: b, id: id, watchers: newWatcherSet()}
	b.mu.Lock()
	b.contexts = append(b.contexts, s)
	b.mu.Unlock()
	return s
}

// Len returns the number of stored slots
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

func (b *MemoryBackend) detach(s *MemoryStore) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, c := range b.contexts {
		if c == s {
			b.contexts = append(b.contexts[:i], b.contexts[i+1:]...)
			return
		}
	}
}

// broadcast delivers c to every attached context except the writer
func (b *MemoryBackend) broadcast(from *MemoryStore, c Change) {
	b.mu.RLock()
	targets := make([]*MemoryStore, 0, len(b.contexts))
	for _, s := range b.contexts {
		if s != from {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		s.watchers.notify(c)
	}
}

// MemoryStore is one execution context over a MemoryBackend
type MemoryStore struct {
	backend  *MemoryBackend
	id       string
	watchers *watcherSet

	mu     sync.RWMutex
	closed bool
}

// NewMemoryStore returns a single context over a private backend
func NewMemoryStore() *MemoryStore {
	return NewMemoryBackend().NewContext("")
}

// ContextID implements Store
func (s *MemoryStore) ContextID() string {
	return s.id
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(ctx); err != nil {
		return "", false, err
	}
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	v, ok := s.backend.data[key]
	return v, ok, nil
}

// Set implements Store. Other contexts are notified before Set returns.
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.backend.order.Lock()
	defer s.backend.order.Unlock()

	s.backend.mu.Lock()
	s.backend.data[key] = value
	s.backend.mu.Unlock()

	s.backend.broadcast(s, Change{Key: key, Value: value, Origin: s.id})
	return nil
}

// Remove implements Store
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.backend.order.Lock()
	defer s.backend.order.Unlock()

	s.backend.mu.Lock()
	_, existed := s.backend.data[key]
	delete(s.backend.data, key)
	s.backend.mu.Unlock()

	if existed {
		s.backend.broadcast(s, Change{Key: key, Removed: true, Origin: s.id})
	}
	return nil
}

// Watch implements Store
func (s *MemoryStore) Watch(ctx context.Context, fn func(Change)) (func(), error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.watchers.add(fn), nil
}

// Close detaches the context from the backend
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.backend.detach(s)
	s.watchers.clear()
	return nil
}

func (s *MemoryStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
