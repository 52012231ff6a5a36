// Package memory provides a generic thread-safe in-memory store that keeps
// insertion order and can evict its oldest entries.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrNotFound is returned by Store when the requested key does not exist.
var ErrNotFound = errors.New("not found")

// Store is a thread-safe keyed store. When capacity is positive, inserting a
// new key into a full store evicts the oldest key.
type Store[V any] struct {
	mu       sync.RWMutex
	data     map[string]V
	order    []string
	keyFunc  func(V) string
	capacity int
}

// New creates an unbounded Store with a key extractor function.
func New[V any](keyFunc func(V) string) *Store[V] {
	return NewBounded(keyFunc, 0)
}

// NewBounded creates a Store that holds at most capacity values.
func NewBounded[V any](keyFunc func(V) string, capacity int) *Store[V] {
	return &Store[V]{
		data:     make(map[string]V),
		keyFunc:  keyFunc,
		capacity: capacity,
	}
}

// Set inserts or replaces v. Replacing keeps the key's original position.
func (s *Store[V]) Set(_ context.Context, v V) error {
	key := s.keyFunc(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		if s.capacity > 0 && len(s.order) >= s.capacity {
			delete(s.data, s.order[0])
			s.order = s.order[1:]
		}
		s.order = append(s.order, key)
	}
	s.data[key] = v
	return nil
}

// Replace overwrites an existing value. Returns ErrNotFound if absent.
func (s *Store[V]) Replace(_ context.Context, v V) error {
	key := s.keyFunc(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return ErrNotFound
	}
	s.data[key] = v
	return nil
}

// Get returns the value for key, or ErrNotFound if absent.
func (s *Store[V]) Get(_ context.Context, key string) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	return v, nil
}

// Delete removes the value for key. Returns ErrNotFound if absent.
func (s *Store[V]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return ErrNotFound
	}
	delete(s.data, key)
	if i := slices.Index(s.order, key); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return nil
}

// All returns every value, newest first.
func (s *Store[V]) All(_ context.Context) []V {
	return s.collect(nil)
}

// Filter returns the values for which pred returns true, newest first.
func (s *Store[V]) Filter(_ context.Context, pred func(V) bool) []V {
	return s.collect(pred)
}

func (s *Store[V]) collect(pred func(V) bool) []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]V, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		v := s.data[s.order[i]]
		if pred == nil || pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// Len returns the number of stored values.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
