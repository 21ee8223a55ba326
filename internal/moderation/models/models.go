// Package models holds the five moderation entity kinds, their status enums,
// and their transition tables. Entities are plain structs; all lifecycle
// rules live in the tables plus small guard methods, and every mutation goes
// through the action gateway.
package models

import (
	"time"

	"spisok/internal/moderation/statemachine"
	"spisok/pkg/domain"
)

// Meta carries the fields common to every entity kind. Status and UpdatedAt
// change only through the action gateway.
type Meta struct {
	ID                string              `json:"id"`
	Status            statemachine.Status `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	ActorOfLastChange string              `json:"actor_of_last_change"`
}

// GetID satisfies the store entity contract.
func (m *Meta) GetID() string { return m.ID }

// CurrentStatus returns the persisted status.
func (m *Meta) CurrentStatus() statemachine.Status { return m.Status }

// SetStatus writes the persisted status. Only the action gateway calls this,
// after the transition table accepted the action.
func (m *Meta) SetStatus(s statemachine.Status) { m.Status = s }

// Touch records who changed the entity and when.
func (m *Meta) Touch(now time.Time, actor string) {
	m.UpdatedAt = now
	m.ActorOfLastChange = actor
}

func newMeta(kind domain.EntityKind, initial statemachine.Status, now time.Time, actor string) Meta {
	return Meta{
		ID:                domain.NewID(kind),
		Status:            initial,
		CreatedAt:         now,
		UpdatedAt:         now,
		ActorOfLastChange: actor,
	}
}

// SubjectKind distinguishes the two registered populations.
type SubjectKind string

const (
	SubjectExecutor SubjectKind = "executor"
	SubjectCompany  SubjectKind = "company"
)

// ActionAttachDocument appends a document reference without changing status.
// Only Verification and Appeal carry documents, and only while non-terminal.
const ActionAttachDocument statemachine.Action = "attach_document"

// Document is an opaque reference into external blob storage. The core keeps
// only the reference and the retention flag; on a terminal transition,
// documents with RetainAfterDecision=false are announced for purge and the
// storage collaborator deletes the blobs.
type Document struct {
	Ref                 string    `json:"ref"`
	Kind                string    `json:"kind"`
	RetainAfterDecision bool      `json:"retain_after_decision"`
	AttachedBy          string    `json:"attached_by"`
	AttachedAt          time.Time `json:"attached_at"`
}

// pruneDocuments splits docs into the retained set and the refs to purge.
func pruneDocuments(docs []Document) (kept []Document, purged []Document) {
	for _, d := range docs {
		if d.RetainAfterDecision {
			kept = append(kept, d)
		} else {
			purged = append(purged, d)
		}
	}
	return kept, purged
}

// cloneDocuments copies a document slice so store snapshots never alias.
func cloneDocuments(docs []Document) []Document {
	if docs == nil {
		return nil
	}
	return append([]Document(nil), docs...)
}

// statusPriority orders list views: statuses demanding admin attention first,
// then live states, then terminal ones. Registrations and tickets share the
// NEW status name; one entry ranks both.
var statusPriority = map[statemachine.Status]int{
	RegistrationNew:     0,
	VerificationWaiting: 0,
	AppealInReview:      0,

	VerificationNeedInfo: 1,
	AppealWaitingInfo:    1,
	TicketWaitingUser:    1,
	AccessBlocked:        1,

	AccessActive: 2,

	RegistrationReviewed: 3,
	RegistrationRejected: 3,
	RegistrationSent:     3,
	VerificationApproved: 3,
	VerificationDeclined: 3,
	VerificationCanceled: 3,
	AppealResolved:       3,
	TicketClosed:         3,
}

// StatusPriority returns the list-ordering rank for a status. Unknown
// statuses sort last.
func StatusPriority(s statemachine.Status) int {
	if p, ok := statusPriority[s]; ok {
		return p
	}
	return 4
}

// TableFor returns the transition table governing an entity kind.
func TableFor(kind domain.EntityKind) statemachine.Table {
	switch kind {
	case domain.KindRegistration:
		return RegistrationTable
	case domain.KindVerification:
		return VerificationTable
	case domain.KindCompanyAccess:
		return CompanyAccessTable
	case domain.KindAppeal:
		return AppealTable
	case domain.KindSupportTicket:
		return TicketTable
	}
	return nil
}
