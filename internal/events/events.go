// Package events publishes the core's outbound notifications. The core only
// emits; delivery to executors, companies, and the storage purger is the
// collaborators' job. A failed publish therefore never fails the mutation
// that produced it: the audit ledger, not the event stream, is the record
// of truth.
package events

import (
	"context"
	"time"

	"spisok/pkg/domain"
)

// Event types.
const (
	// TypeStatusChanged announces every accepted transition, including
	// self-transitions, so the messaging bot can notify affected parties.
	TypeStatusChanged = "entity.status_changed"
	// TypePurgeIntent asks the storage collaborator to delete a document
	// blob whose retention flag expired with a terminal transition.
	TypePurgeIntent = "document.purge_intent"
	// TypeAutoBlockTripped announces that a usage increment crossed the
	// company's check limit while auto-block is enabled.
	TypeAutoBlockTripped = "access.auto_block_tripped"
)

// StatusChanged is the payload of TypeStatusChanged.
type StatusChanged struct {
	Target     domain.Ref `json:"target"`
	Action     string     `json:"action"`
	FromStatus string     `json:"from_status"`
	ToStatus   string     `json:"to_status"`
	ActorID    string     `json:"actor_id"`
	At         time.Time  `json:"at"`
}

// PurgeIntent is the payload of TypePurgeIntent.
type PurgeIntent struct {
	Target      domain.Ref `json:"target"`
	DocumentRef string     `json:"document_ref"`
	Kind        string     `json:"kind"`
	At          time.Time  `json:"at"`
}

// AutoBlockTripped is the payload of TypeAutoBlockTripped.
type AutoBlockTripped struct {
	CompanyID  string    `json:"company_id"`
	ChecksUsed int64     `json:"checks_used"`
	CheckLimit int64     `json:"check_limit"`
	At         time.Time `json:"at"`
}

// Event is one outbound message. Key selects the partition so events for one
// entity stay ordered.
type Event struct {
	Type    string
	Key     string
	Payload any
}

// Publisher is the outbound event sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
