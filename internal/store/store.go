// Package store provides the in-memory key-value storage used for payment
// records, signup tokens, and user accounts. All reads and writes are safe for
// concurrent use; Update runs its callback under the write lock so callers get
// atomic check-and-set semantics per key.
package store

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("store: key not found")

type Store[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

func New[V any]() *Store[V] {
	return &Store[V]{
		items: make(map[string]V),
	}
}

func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	return v, ok
}

func (s *Store[V]) Put(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
}

// PutIfAbsent stores value only when key has no existing entry. Returns true
// when the value was stored.
func (s *Store[V]) PutIfAbsent(key string, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[key]; exists {
		return false
	}
	s.items[key] = value
	return true
}

// Update applies fn to the current value under the write lock and stores the
// result. If fn returns an error the entry is left unchanged and the error is
// returned. Returns ErrNotFound when the key has no entry.
func (s *Store[V]) Update(key string, fn func(V) (V, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.items[key]
	if !ok {
		return ErrNotFound
	}

	updated, err := fn(current)
	if err != nil {
		return err
	}

	s.items[key] = updated
	return nil
}

func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
}

// Range calls fn for each entry until fn returns false. The iteration holds
// the read lock for the duration of a single pass; fn must not call back into
// the store.
func (s *Store[V]) Range(fn func(key string, value V) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for k, v := range s.items {
		if !fn(k, v) {
			return
		}
	}
}

func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}
