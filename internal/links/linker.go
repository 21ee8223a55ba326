// Package links maintains the symmetric many-to-many index of cross-entity
// references (ticket to dispute, dispute to review subject, verification to
// registration). Links are adjacency entries keyed by stable identifiers,
// never owning pointers: entities referenced by a link keep their own
// lifecycle, and cycles are fine.
package links

import (
	"context"
	"sort"
	"sync"

	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
)

// Linker is the symmetric link index contract.
type Linker interface {
	// Link associates a and b. Idempotent; rejects a == b.
	Link(ctx context.Context, a, b domain.Ref) error
	// Unlink removes the association in both directions. Removing a link
	// that does not exist is a no-op.
	Unlink(ctx context.Context, a, b domain.Ref) error
	// LinksOf returns a sorted snapshot of everything linked to ref.
	LinksOf(ctx context.Context, ref domain.Ref) ([]domain.Ref, error)
}

// InMemoryLinker keeps the adjacency index in a mutex-guarded map.
type InMemoryLinker struct {
	mu    sync.RWMutex
	edges map[domain.Ref]map[domain.Ref]struct{}
}

// NewInMemoryLinker builds an empty index.
func NewInMemoryLinker() *InMemoryLinker {
	return &InMemoryLinker{edges: make(map[domain.Ref]map[domain.Ref]struct{})}
}

// Link associates a and b symmetrically.
func (l *InMemoryLinker) Link(_ context.Context, a, b domain.Ref) error {
	if a == b {
		return dErrors.New(dErrors.CodeSelfLink, "an entity cannot link to itself")
	}
	if a.IsZero() || b.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "link endpoints must be set")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.addEdge(a, b)
	l.addEdge(b, a)
	return nil
}

func (l *InMemoryLinker) addEdge(from, to domain.Ref) {
	set, ok := l.edges[from]
	if !ok {
		set = make(map[domain.Ref]struct{})
		l.edges[from] = set
	}
	set[to] = struct{}{}
}

// Unlink removes the association in both directions.
func (l *InMemoryLinker) Unlink(_ context.Context, a, b domain.Ref) error {
	if a == b {
		return dErrors.New(dErrors.CodeSelfLink, "an entity cannot link to itself")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.edges[a], b)
	delete(l.edges[b], a)
	return nil
}

// LinksOf returns a sorted snapshot of refs linked to ref.
func (l *InMemoryLinker) LinksOf(_ context.Context, ref domain.Ref) ([]domain.Ref, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	set := l.edges[ref]
	out := make([]domain.Ref, 0, len(set))
	for other := range set {
		out = append(out, other)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}
