// Package usage owns the checks_used counters. The check-submission
// collaborator increments them at high frequency, so increments are atomic
// operations (never read-modify-write) and live outside the versioned entity
// store: a counter tick must not invalidate a concurrent admin action.
package usage

import (
	"context"
	"sync"
	"sync/atomic"
)

// Recorder tracks per-company usage within the current billing period.
// Reset maps the external period-reset event; nothing else ever lowers a
// counter.
type Recorder interface {
	// Increment adds one check and returns the new total.
	Increment(ctx context.Context, companyID string) (int64, error)
	// Get returns the current total (0 for unknown companies).
	Get(ctx context.Context, companyID string) (int64, error)
	// Reset zeroes the counter at the start of a new billing period.
	Reset(ctx context.Context, companyID string) error
}

// InMemoryRecorder keeps counters as atomics; parallel check submissions
// lose no updates.
type InMemoryRecorder struct {
	mu       sync.Mutex
	counters map[string]*atomic.Int64
}

// NewInMemoryRecorder builds an empty recorder.
func NewInMemoryRecorder() *InMemoryRecorder {
	return &InMemoryRecorder{counters: make(map[string]*atomic.Int64)}
}

func (r *InMemoryRecorder) counter(companyID string) *atomic.Int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[companyID]
	if !ok {
		c = &atomic.Int64{}
		r.counters[companyID] = c
	}
	return c
}

// Increment adds one check atomically.
func (r *InMemoryRecorder) Increment(_ context.Context, companyID string) (int64, error) {
	return r.counter(companyID).Add(1), nil
}

// Get returns the current total.
func (r *InMemoryRecorder) Get(_ context.Context, companyID string) (int64, error) {
	return r.counter(companyID).Load(), nil
}

// Reset zeroes the counter.
func (r *InMemoryRecorder) Reset(_ context.Context, companyID string) error {
	r.counter(companyID).Store(0)
	return nil
}
