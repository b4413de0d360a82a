// Package rcu holds read-mostly shared state behind an atomic pointer.
// Readers never block; writers publish a fresh copy.
package rcu

import (
	"sync"
	"sync/atomic"
)

// Snapshot is a read-copy-update container. Values handed to it must not
// be modified after Update publishes them.
type Snapshot[T any] struct {
	ptr atomic.Pointer[T]
	mu  sync.Mutex // serializes Update
}

// NewSnapshot returns a snapshot holding init.
func NewSnapshot[T any](init *T) *Snapshot[T] {
	s := &Snapshot[T]{}
	s.ptr.Store(init)
	return s
}

// Load returns the current value. It is safe for concurrent use and never
// blocks.
func (s *Snapshot[T]) Load() *T {
	return s.ptr.Load()
}

// Update publishes the value returned by fn, which receives the current
// one and must return a new copy. Concurrent Updates run one at a time so
// none is lost. A non-nil error leaves the snapshot unchanged.
func (s *Snapshot[T]) Update(fn func(cur *T) (*T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.ptr.Load())
	if err != nil {
		return err
	}
	s.ptr.Store(next)
	return nil
}
