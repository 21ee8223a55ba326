// Package store persists moderation entities. The in-memory implementation
// keeps one versioned record per entity with a per-record lock, so actions on
// different entities never contend and a transition on one entity is
// serialized against concurrent writers via optimistic version checks.
package store

import (
	"context"
	"sync"

	"spisok/pkg/platform/sentinel"
)

// Entity is the contract stored values satisfy. Clone must return a copy
// that shares no mutable state with the original, so snapshots handed to
// readers never alias live records.
type Entity[T any] interface {
	GetID() string
	Clone() T
}

type record[T any] struct {
	mu      sync.RWMutex
	item    T
	version uint64
}

// Memory is a versioned in-memory store for one entity kind.
type Memory[T Entity[T]] struct {
	mu    sync.RWMutex
	items map[string]*record[T]
}

// NewMemory builds an empty store.
func NewMemory[T Entity[T]]() *Memory[T] {
	return &Memory[T]{items: make(map[string]*record[T])}
}

// Create inserts a new entity at version 1. Returns sentinel.ErrConflict if
// the id is already taken; ids are never reused, even after terminal states.
func (s *Memory[T]) Create(ctx context.Context, item T) error {
	return s.CreateWith(ctx, item, nil)
}

// CreateWith inserts item and runs commit (typically the intake audit
// append) before the insert becomes visible. If commit fails, nothing is
// inserted.
func (s *Memory[T]) CreateWith(_ context.Context, item T, commit func(T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.GetID()]; exists {
		return sentinel.ErrConflict
	}
	if commit != nil {
		if err := commit(item); err != nil {
			return err
		}
	}
	s.items[item.GetID()] = &record[T]{item: item.Clone(), version: 1}
	return nil
}

// Get returns a snapshot of the entity and the version it was read at.
// Callers pass the version back to Update to detect concurrent modification.
func (s *Memory[T]) Get(_ context.Context, id string) (T, uint64, error) {
	var zero T
	s.mu.RLock()
	rec, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return zero, 0, sentinel.ErrNotFound
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	return rec.item.Clone(), rec.version, nil
}

// List returns snapshots of every entity. The slice is a consistent copy;
// ordering is up to the caller.
func (s *Memory[T]) List(_ context.Context) ([]T, error) {
	s.mu.RLock()
	recs := make([]*record[T], 0, len(s.items))
	for _, rec := range s.items {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		rec.mu.RLock()
		out = append(out, rec.item.Clone())
		rec.mu.RUnlock()
	}
	return out, nil
}

// Update applies mutate to a working copy of the entity while holding the
// record lock, then runs commit (typically the audit append) before the copy
// becomes visible to readers. Either both the mutation and the commit take
// effect, or neither does.
//
// Returns sentinel.ErrStale when the record's version no longer matches
// expected: a concurrent writer won, and the caller must re-fetch before
// retrying. The store never retries on its own.
func (s *Memory[T]) Update(
	_ context.Context,
	id string,
	expected uint64,
	mutate func(T) error,
	commit func(T) error,
) (T, error) {
	var zero T
	s.mu.RLock()
	rec, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return zero, sentinel.ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.version != expected {
		return zero, sentinel.ErrStale
	}

	work := rec.item.Clone()
	if err := mutate(work); err != nil {
		return zero, err
	}
	if commit != nil {
		if err := commit(work); err != nil {
			return zero, err
		}
	}

	rec.item = work
	rec.version++
	return work.Clone(), nil
}
