package audit

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
)

// InMemoryStore keeps the ledger as an append-only slice. Appends on
// different entities share one lock, but the critical section is a slice
// append, so contention stays negligible at console volumes.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewInMemoryStore builds an empty ledger.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append assigns the entry an id and adds it to the ledger.
func (s *InMemoryStore) Append(_ context.Context, entry Entry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

// Query returns matching entries oldest first. The continuation cursor is
// the ledger position after the last returned entry; appends never reorder
// the slice, so a resumed query picks up exactly where the previous page
// stopped.
func (s *InMemoryStore) Query(_ context.Context, filter Filter) (Page, error) {
	start := 0
	if filter.Cursor != "" {
		pos, err := strconv.Atoi(filter.Cursor)
		if err != nil || pos < 0 {
			return Page{}, dErrors.New(dErrors.CodeBadRequest, "malformed cursor")
		}
		start = pos
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var page Page
	for i := start; i < len(s.entries); i++ {
		if !filter.matches(s.entries[i]) {
			continue
		}
		if len(page.Entries) == limit {
			page.NextCursor = strconv.Itoa(i)
			return page, nil
		}
		page.Entries = append(page.Entries, s.entries[i])
	}
	return page, nil
}

// Recent returns up to limit entries for one entity, newest first.
func (s *InMemoryStore) Recent(_ context.Context, kind domain.EntityKind, id string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.entries[i]
		if e.TargetKind == kind && e.TargetID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len reports the ledger size; used by tests asserting no entry was written.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
