package models

import (
	"time"

	"spisok/internal/moderation/statemachine"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
)

// SupportTicket statuses. CLOSED is terminal. Linking never changes status:
// it only grows the ticket's cross-references, so "linked" is an audited
// self-transition rather than a separate state.
const (
	TicketNew         statemachine.Status = "NEW"
	TicketWaitingUser statemachine.Status = "WAITING_USER"
	TicketClosed      statemachine.Status = "CLOSED"
)

// SupportTicket actions.
const (
	ActionWaitUser statemachine.Action = "wait_user"
	ActionReopen   statemachine.Action = "reopen"
	ActionClose    statemachine.Action = "close"
	// ActionLinkEntity attaches a cross-reference ("target_kind" and
	// "target_id" params) without changing status.
	ActionLinkEntity statemachine.Action = "link_entity"
	// ActionCreateAppeal converts the ticket into a review dispute: a new
	// Appeal is created from the ticket params and linked back to it.
	ActionCreateAppeal statemachine.Action = "create_appeal"
)

// TicketTable is the transition table for SupportTicket.
var TicketTable = statemachine.Table{
	TicketNew: {
		ActionWaitUser:     TicketWaitingUser,
		ActionClose:        TicketClosed,
		ActionLinkEntity:   TicketNew,
		ActionCreateAppeal: TicketNew,
	},
	TicketWaitingUser: {
		ActionReopen:       TicketNew,
		ActionClose:        TicketClosed,
		ActionLinkEntity:   TicketWaitingUser,
		ActionCreateAppeal: TicketWaitingUser,
	},
}

// SupportTicket is a help request from an executor or company. Its linked
// entities live in the cross-reference index, not on the record, so the set
// stays symmetric with the entities it points at.
type SupportTicket struct {
	Meta
	AuthorKind SubjectKind `json:"author_kind"`
	AuthorID   string      `json:"author_id"`
	Category   string      `json:"category"`
}

// NewSupportTicket opens a ticket in status NEW.
func NewSupportTicket(authorKind SubjectKind, authorID, category string, now time.Time, actor string) (*SupportTicket, error) {
	if authorKind != SubjectExecutor && authorKind != SubjectCompany {
		return nil, dErrors.New(dErrors.CodeBadRequest, "author kind must be executor or company")
	}
	if authorID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "author id is required")
	}
	return &SupportTicket{
		Meta:       newMeta(domain.KindSupportTicket, TicketNew, now, actor),
		AuthorKind: authorKind,
		AuthorID:   authorID,
		Category:   category,
	}, nil
}

// Ref returns the cross-reference key for this ticket.
func (t *SupportTicket) Ref() domain.Ref {
	return domain.Ref{Kind: domain.KindSupportTicket, ID: t.ID}
}

// Clone returns an independent copy for store snapshots.
func (t *SupportTicket) Clone() *SupportTicket {
	cp := *t
	return &cp
}

// GuardAction has no extra invariants beyond the transition table.
func (t *SupportTicket) GuardAction(statemachine.Action) error { return nil }
