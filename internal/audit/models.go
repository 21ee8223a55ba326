// Package audit is the append-only ledger behind every accepted mutation.
// Entries are immutable once written; no update or delete operation exists
// by design, because the ledger is the compliance contract the console
// surfaces as "fixed in action_log".
package audit

import (
	"context"
	"time"

	"spisok/pkg/domain"
)

// Entry records one accepted action: who did what to which entity, the
// before/after status pair, and the mandatory justification.
type Entry struct {
	ID         string            `json:"id"`
	TargetKind domain.EntityKind `json:"target_kind"`
	TargetID   string            `json:"target_id"`
	ActorID    string            `json:"actor_id"`
	Action     string            `json:"action"`
	FromStatus string            `json:"from_status"`
	ToStatus   string            `json:"to_status"`
	Reason     string            `json:"reason"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Filter narrows a ledger query. Zero values match everything. Cursor
// resumes a previous page; Limit caps the page size (DefaultPageSize when 0).
type Filter struct {
	TargetKind domain.EntityKind
	TargetID   string
	ActorID    string
	Since      time.Time
	Until      time.Time
	Cursor     string
	Limit      int
}

// DefaultPageSize bounds ledger pages when the caller does not.
const DefaultPageSize = 100

// Page is one slice of the ledger, oldest first. NextCursor is empty when
// the stream is exhausted; otherwise passing it back resumes the query.
type Page struct {
	Entries    []Entry `json:"entries"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// Store is the ledger contract. Append is fail-closed: storage errors
// propagate to the caller and the surrounding mutation must not commit.
type Store interface {
	Append(ctx context.Context, entry Entry) (entryID string, err error)
	Query(ctx context.Context, filter Filter) (Page, error)
	// Recent returns the newest entries for one entity, newest first, for
	// detail views.
	Recent(ctx context.Context, kind domain.EntityKind, id string, limit int) ([]Entry, error)
}

func (f Filter) matches(e Entry) bool {
	if f.TargetKind != "" && e.TargetKind != f.TargetKind {
		return false
	}
	if f.TargetID != "" && e.TargetID != f.TargetID {
		return false
	}
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}
