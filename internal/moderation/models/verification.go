package models

import (
	"strings"
	"time"

	"spisok/internal/moderation/statemachine"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
)

// Verification statuses. APPROVED, DECLINED and CANCELLED are terminal.
const (
	VerificationWaiting  statemachine.Status = "WAITING"
	VerificationNeedInfo statemachine.Status = "NEED_INFO"
	VerificationApproved statemachine.Status = "APPROVED"
	VerificationDeclined statemachine.Status = "DECLINED"
	VerificationCanceled statemachine.Status = "CANCELLED"
)

// Verification actions.
const (
	ActionApprove statemachine.Action = "approve"
	ActionDecline statemachine.Action = "decline"
	ActionCancel  statemachine.Action = "cancel"
	// ActionRequestInfo asks the company for outstanding document kinds,
	// listed in the "required_info" action parameter.
	ActionRequestInfo statemachine.Action = "request_info"
	// ActionInfoReceived returns the case to the review queue once the
	// requested documents arrived.
	ActionInfoReceived statemachine.Action = "info_received"
)

// VerificationTable is the transition table for Verification.
var VerificationTable = statemachine.Table{
	VerificationWaiting: {
		ActionApprove:        VerificationApproved,
		ActionDecline:        VerificationDeclined,
		ActionRequestInfo:    VerificationNeedInfo,
		ActionCancel:         VerificationCanceled,
		ActionAttachDocument: VerificationWaiting,
	},
	VerificationNeedInfo: {
		ActionInfoReceived:   VerificationWaiting,
		ActionDecline:        VerificationDeclined,
		ActionCancel:         VerificationCanceled,
		ActionAttachDocument: VerificationNeedInfo,
	},
}

// Verification is a company identity check backed by submitted documents.
//
// Invariants:
//   - RequiredInfo is non-empty only while status is WAITING or NEED_INFO
//   - documents with RetainAfterDecision=false are pruned when the case
//     reaches a terminal status, and their refs are announced for purge
type Verification struct {
	Meta
	CompanyID      string     `json:"company_id"`
	RequiredInfo   []string   `json:"required_info,omitempty"`
	Documents      []Document `json:"documents,omitempty"`
	DecisionReason string     `json:"decision_reason,omitempty"`
}

// NewVerification opens a verification case in status WAITING.
func NewVerification(companyID string, requiredInfo []string, now time.Time, actor string) (*Verification, error) {
	if companyID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "company id is required")
	}
	return &Verification{
		Meta:         newMeta(domain.KindVerification, VerificationWaiting, now, actor),
		CompanyID:    companyID,
		RequiredInfo: append([]string(nil), requiredInfo...),
	}, nil
}

// Ref returns the cross-reference key for this verification.
func (v *Verification) Ref() domain.Ref {
	return domain.Ref{Kind: domain.KindVerification, ID: v.ID}
}

// Clone returns an independent copy for store snapshots.
func (v *Verification) Clone() *Verification {
	cp := *v
	cp.RequiredInfo = append([]string(nil), v.RequiredInfo...)
	cp.Documents = cloneDocuments(v.Documents)
	return &cp
}

// GuardAction has no extra invariants beyond the transition table.
func (v *Verification) GuardAction(statemachine.Action) error { return nil }

// ApplyAction performs the entity-specific side effects of an accepted
// action and returns documents whose blobs should be purged.
func (v *Verification) ApplyAction(action statemachine.Action, reason string, params map[string]string) (purge []Document) {
	switch action {
	case ActionApprove, ActionDecline, ActionCancel:
		v.DecisionReason = reason
		v.RequiredInfo = nil
		v.Documents, purge = pruneDocuments(v.Documents)
	case ActionRequestInfo:
		if raw, ok := params["required_info"]; ok {
			v.RequiredInfo = splitList(raw)
		}
	}
	return purge
}

// Attach appends a document reference to the case.
func (v *Verification) Attach(doc Document) {
	v.Documents = append(v.Documents, doc)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
