// Package store is the storage collaborator of the admission pipeline.
// Table is an in-memory implementation; any Repository can stand in for
// it, and its errors reach the pipeline unchanged.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/listing"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// Entity is a record a Table can hold. WithID returns a copy carrying id.
type Entity[T any] interface {
	listing.Record
	WithID(id int64) T
}

// Repository is the storage contract used by the pipeline.
type Repository[T Entity[T]] interface {
	Create(ctx context.Context, rec T) (T, error)
	Get(ctx context.Context, id int64) (T, error)
	List(ctx context.Context, q listing.Query) ([]T, error)
	Update(ctx context.Context, id int64, mutate func(*T) error) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Table stores records by id in memory. Ids are assigned from a sequence
// starting at 1 and never reused.
type Table[T Entity[T]] struct {
	name string
	mu   sync.RWMutex
	rows map[int64]T
	seq  int64
}

func NewTable[T Entity[T]](name string) *Table[T] {
	return &Table[T]{name: name, rows: make(map[int64]T)}
}

func (t *Table[T]) Name() string { return t.name }

func (t *Table[T]) Create(ctx context.Context, rec T) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	rec = rec.WithID(t.seq)
	t.rows[t.seq] = rec
	return rec.WithID(t.seq), nil
}

func (t *Table[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.rows[id]
	if !ok {
		return zero, fmt.Errorf("%s %d: %w", t.name, id, ErrNotFound)
	}
	return rec.WithID(id), nil
}

// List returns the records matching q in q's order.
func (t *Table[T]) List(ctx context.Context, q listing.Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return listing.Apply(t.snapshot(), q)
}

// Find returns the first record, in id order, for which match is true.
func (t *Table[T]) Find(ctx context.Context, match func(T) bool) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	for _, rec := range t.snapshot() {
		if match(rec) {
			return rec, true, nil
		}
	}
	return zero, false, nil
}

// Update applies mutate to a copy of the record and stores it when mutate
// succeeds. The id cannot be changed.
func (t *Table[T]) Update(ctx context.Context, id int64, mutate func(*T) error) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.rows[id]
	if !ok {
		return zero, fmt.Errorf("%s %d: %w", t.name, id, ErrNotFound)
	}
	next := rec.WithID(id)
	if err := mutate(&next); err != nil {
		return zero, err
	}
	next = next.WithID(id)
	t.rows[id] = next
	return next.WithID(id), nil
}

func (t *Table[T]) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return fmt.Errorf("%s %d: %w", t.name, id, ErrNotFound)
	}
	delete(t.rows, id)
	return nil
}

func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// snapshot copies all rows in id order.
func (t *Table[T]) snapshot() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id].WithID(id))
	}
	return out
}
