package models

import (
	"time"

	"spisok/internal/moderation/statemachine"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
)

// Registration statuses. SENT_TO_VERIFICATION is terminal for this entity:
// ownership of the case passes to a Verification created by the intake
// collaborator.
const (
	RegistrationNew      statemachine.Status = "NEW"
	RegistrationReviewed statemachine.Status = "REVIEWED"
	RegistrationRejected statemachine.Status = "REJECTED"
	RegistrationSent     statemachine.Status = "SENT_TO_VERIFICATION"
)

// Registration actions.
const (
	ActionReview             statemachine.Action = "review"
	ActionReject             statemachine.Action = "reject"
	ActionSendToVerification statemachine.Action = "send_to_verification"
	// ActionFlagRisk marks a suspicious intake without changing status; the
	// audit entry records NEW -> NEW with the admin's reason.
	ActionFlagRisk statemachine.Action = "flag_risk"
)

// RegistrationTable is the transition table for Registration.
var RegistrationTable = statemachine.Table{
	RegistrationNew: {
		ActionReview:             RegistrationReviewed,
		ActionReject:             RegistrationRejected,
		ActionSendToVerification: RegistrationSent,
		ActionFlagRisk:           RegistrationNew,
	},
}

// RiskFlag marks registrations that intake heuristics or an admin found
// suspicious.
type RiskFlag string

const (
	RiskNone       RiskFlag = "none"
	RiskSuspicious RiskFlag = "suspicious"
)

// Registration is a pending executor or company registration awaiting
// moderation.
type Registration struct {
	Meta
	SubjectKind  SubjectKind `json:"subject_kind"`
	SubjectID    string      `json:"subject_id"`
	Contact      string      `json:"contact"`
	ConsentGiven bool        `json:"consent_given"`
	RiskFlag     RiskFlag    `json:"risk_flag"`
	AdminNote    string      `json:"admin_note,omitempty"`
}

// NewRegistration builds a registration in status NEW.
func NewRegistration(subjectKind SubjectKind, subjectID, contact string, consent bool, now time.Time, actor string) (*Registration, error) {
	if subjectKind != SubjectExecutor && subjectKind != SubjectCompany {
		return nil, dErrors.New(dErrors.CodeBadRequest, "subject kind must be executor or company")
	}
	if subjectID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "subject id is required")
	}
	return &Registration{
		Meta:         newMeta(domain.KindRegistration, RegistrationNew, now, actor),
		SubjectKind:  subjectKind,
		SubjectID:    subjectID,
		Contact:      contact,
		ConsentGiven: consent,
		RiskFlag:     RiskNone,
	}, nil
}

// Ref returns the cross-reference key for this registration.
func (r *Registration) Ref() domain.Ref {
	return domain.Ref{Kind: domain.KindRegistration, ID: r.ID}
}

// Clone returns an independent copy for store snapshots.
func (r *Registration) Clone() *Registration {
	cp := *r
	return &cp
}

// GuardAction enforces construction-independent invariants before a
// transition is applied. Approval-like transitions require recorded consent.
func (r *Registration) GuardAction(action statemachine.Action) error {
	switch action {
	case ActionReview, ActionSendToVerification:
		if !r.ConsentGiven {
			return dErrors.New(dErrors.CodeInvalidTransition, "registration cannot be approved without consent")
		}
	}
	return nil
}

// ApplyAction performs the entity-specific side effects of an accepted
// action. The gateway has already validated the transition.
func (r *Registration) ApplyAction(action statemachine.Action, params map[string]string) {
	switch action {
	case ActionFlagRisk:
		r.RiskFlag = RiskSuspicious
	}
	if note, ok := params["admin_note"]; ok {
		r.AdminNote = note
	}
}
