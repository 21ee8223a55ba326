package models

import (
	"time"

	"spisok/internal/moderation/statemachine"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
)

// Appeal statuses. RESOLVED is terminal.
const (
	AppealInReview    statemachine.Status = "IN_REVIEW"
	AppealWaitingInfo statemachine.Status = "WAITING_INFO"
	AppealResolved    statemachine.Status = "RESOLVED"
)

// Appeal actions.
const (
	ActionResolve statemachine.Action = "resolve"
	// ActionRequestCompanyResponse pauses review until the reviewed company
	// submits its side of the story.
	ActionRequestCompanyResponse statemachine.Action = "request_company_response"
	// ActionCompanyResponded records the company comment ("company_comment"
	// param) and returns the appeal to review.
	ActionCompanyResponded statemachine.Action = "company_responded"
)

// AppealTable is the transition table for Appeal.
var AppealTable = statemachine.Table{
	AppealInReview: {
		ActionResolve:                AppealResolved,
		ActionRequestCompanyResponse: AppealWaitingInfo,
		ActionAttachDocument:         AppealInReview,
	},
	AppealWaitingInfo: {
		ActionCompanyResponded: AppealInReview,
		ActionResolve:          AppealResolved,
		ActionAttachDocument:   AppealWaitingInfo,
	},
}

// Appeal is an executor's dispute over a company review. Evidence files from
// both sides are opaque references retained only until resolution unless
// flagged otherwise.
type Appeal struct {
	Meta
	ReviewID       string     `json:"review_id"`
	MasterID       string     `json:"master_id"`
	CompanyID      string     `json:"company_id"`
	MasterComment  string     `json:"master_comment"`
	CompanyComment string     `json:"company_comment,omitempty"`
	Documents      []Document `json:"documents,omitempty"`
}

// NewAppeal opens a dispute in status IN_REVIEW.
func NewAppeal(reviewID, masterID, companyID, masterComment string, now time.Time, actor string) (*Appeal, error) {
	if reviewID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "review id is required")
	}
	if masterID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "master id is required")
	}
	return &Appeal{
		Meta:          newMeta(domain.KindAppeal, AppealInReview, now, actor),
		ReviewID:      reviewID,
		MasterID:      masterID,
		CompanyID:     companyID,
		MasterComment: masterComment,
	}, nil
}

// Ref returns the cross-reference key for this appeal.
func (a *Appeal) Ref() domain.Ref {
	return domain.Ref{Kind: domain.KindAppeal, ID: a.ID}
}

// Clone returns an independent copy for store snapshots.
func (a *Appeal) Clone() *Appeal {
	cp := *a
	cp.Documents = cloneDocuments(a.Documents)
	return &cp
}

// GuardAction has no extra invariants beyond the transition table.
func (a *Appeal) GuardAction(statemachine.Action) error { return nil }

// ApplyAction performs the entity-specific side effects of an accepted
// action and returns documents whose blobs should be purged.
func (a *Appeal) ApplyAction(action statemachine.Action, params map[string]string) (purge []Document) {
	switch action {
	case ActionCompanyResponded:
		if comment, ok := params["company_comment"]; ok {
			a.CompanyComment = comment
		}
	case ActionResolve:
		a.Documents, purge = pruneDocuments(a.Documents)
	}
	return purge
}

// Attach appends an evidence document from either side of the dispute.
func (a *Appeal) Attach(doc Document) {
	a.Documents = append(a.Documents, doc)
}
