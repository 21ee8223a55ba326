package gateway

import (
	"context"
	"errors"
	"strings"

	"spisok/internal/audit"
	"spisok/internal/events"
	"spisok/internal/moderation/models"
	"spisok/internal/moderation/statemachine"
	"spisok/internal/moderation/store"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
	"spisok/pkg/platform/sentinel"
	"spisok/pkg/requestcontext"
)

// actionCreated is the audit action recorded for intake creations. The entry
// carries from == to == the kind's initial status, so the ledger replays the
// full lifecycle including birth.
const actionCreated = "created"

// defaultIntakeReason is recorded when intake omits a reason; admin actions
// still require an explicit one.
const defaultIntakeReason = "created via intake"

// CreateResult reports an accepted intake creation.
type CreateResult struct {
	Target       domain.Ref          `json:"target"`
	Status       statemachine.Status `json:"status"`
	AuditEntryID string              `json:"audit_entry_id"`
}

// createEntity inserts a new entity with its intake audit entry written
// atomically, then announces the creation. A free function because methods
// cannot carry type parameters.
func createEntity[T moderated[T]](ctx context.Context, s *Service, st *store.Memory[T], kind domain.EntityKind, item T, reason string) (*CreateResult, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		reason = defaultIntakeReason
	}
	now := requestcontext.Now(ctx)
	status := item.CurrentStatus()
	ref := domain.Ref{Kind: kind, ID: item.GetID()}

	var entryID string
	err = st.CreateWith(ctx, item, func(T) error {
		id, err := s.ledger.Append(ctx, audit.Entry{
			TargetKind: kind,
			TargetID:   ref.ID,
			ActorID:    actor,
			Action:     actionCreated,
			FromStatus: string(status),
			ToStatus:   string(status),
			Reason:     reason,
			Timestamp:  now,
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "audit append failed, creation aborted")
		}
		entryID = id
		return nil
	})
	if err != nil {
		return nil, translateStoreErr(err, ref)
	}

	s.metrics.IncEntityCreated(string(kind))
	s.publish(ctx, events.Event{
		Type: events.TypeStatusChanged,
		Key:  ref.ID,
		Payload: events.StatusChanged{
			Target:     ref,
			Action:     actionCreated,
			FromStatus: string(status),
			ToStatus:   string(status),
			ActorID:    actor,
			At:         now,
		},
	})
	return &CreateResult{Target: ref, Status: status, AuditEntryID: entryID}, nil
}

// CreateRegistrationInput is a new registration submitted by intake.
type CreateRegistrationInput struct {
	SubjectKind  models.SubjectKind `json:"subject_kind"`
	SubjectID    string             `json:"subject_id"`
	Contact      string             `json:"contact"`
	ConsentGiven bool               `json:"consent_given"`
	Reason       string             `json:"reason"`
}

// CreateRegistration opens a registration case in status NEW.
func (s *Service) CreateRegistration(ctx context.Context, in CreateRegistrationInput) (*CreateResult, error) {
	reg, err := models.NewRegistration(in.SubjectKind, in.SubjectID, in.Contact, in.ConsentGiven, requestcontext.Now(ctx), requestcontext.ActorID(ctx))
	if err != nil {
		return nil, err
	}
	return createEntity(ctx, s, s.stores.Registrations, domain.KindRegistration, reg, in.Reason)
}

// CreateVerificationInput is a new verification case, usually opened when a
// registration is sent to verification.
type CreateVerificationInput struct {
	CompanyID      string   `json:"company_id"`
	RequiredInfo   []string `json:"required_info,omitempty"`
	RegistrationID string   `json:"registration_id,omitempty"`
	Reason         string   `json:"reason"`
}

// CreateVerification opens a verification case in status WAITING. When the
// case originates from a registration, the two are cross-linked.
func (s *Service) CreateVerification(ctx context.Context, in CreateVerificationInput) (*CreateResult, error) {
	var regRef domain.Ref
	if in.RegistrationID != "" {
		regRef = domain.Ref{Kind: domain.KindRegistration, ID: in.RegistrationID}
		if err := s.exists(ctx, regRef); err != nil {
			return nil, err
		}
	}

	ver, err := models.NewVerification(in.CompanyID, in.RequiredInfo, requestcontext.Now(ctx), requestcontext.ActorID(ctx))
	if err != nil {
		return nil, err
	}
	result, err := createEntity(ctx, s, s.stores.Verifications, domain.KindVerification, ver, in.Reason)
	if err != nil {
		return nil, err
	}
	if !regRef.IsZero() {
		if err := s.linker.Link(ctx, result.Target, regRef); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// CreateCompanyAccessInput provisions the access record for a verified
// company.
type CreateCompanyAccessInput struct {
	CompanyID        string `json:"company_id"`
	CheckLimit       int64  `json:"check_limit"`
	AutoBlockEnabled bool   `json:"auto_block_enabled"`
	Reason           string `json:"reason"`
}

// CreateCompanyAccess provisions the one-to-one access record for a company.
// A second record for the same company is rejected as a conflict.
func (s *Service) CreateCompanyAccess(ctx context.Context, in CreateCompanyAccessInput) (*CreateResult, error) {
	if in.CompanyID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "company id is required")
	}
	existing, err := s.stores.AccessByCompany(ctx, in.CompanyID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, translateStoreErr(err, domain.Ref{Kind: domain.KindCompanyAccess})
	}
	if existing != nil {
		return nil, dErrors.Newf(dErrors.CodeConflict, "company %s already has access record %s", in.CompanyID, existing.ID)
	}

	access, err := models.NewCompanyAccess(in.CompanyID, in.CheckLimit, in.AutoBlockEnabled, requestcontext.Now(ctx), requestcontext.ActorID(ctx))
	if err != nil {
		return nil, err
	}
	return createEntity(ctx, s, s.stores.Access, domain.KindCompanyAccess, access, in.Reason)
}

// CreateAppealInput is a new review dispute opened by an executor.
type CreateAppealInput struct {
	ReviewID      string `json:"review_id"`
	MasterID      string `json:"master_id"`
	CompanyID     string `json:"company_id"`
	MasterComment string `json:"master_comment"`
	Reason        string `json:"reason"`
}

// CreateAppeal opens a dispute in status IN_REVIEW.
func (s *Service) CreateAppeal(ctx context.Context, in CreateAppealInput) (*CreateResult, error) {
	appeal, err := models.NewAppeal(in.ReviewID, in.MasterID, in.CompanyID, in.MasterComment, requestcontext.Now(ctx), requestcontext.ActorID(ctx))
	if err != nil {
		return nil, err
	}
	return createEntity(ctx, s, s.stores.Appeals, domain.KindAppeal, appeal, in.Reason)
}

// CreateTicketInput is a new help request from an executor or company.
type CreateTicketInput struct {
	AuthorKind models.SubjectKind `json:"author_kind"`
	AuthorID   string             `json:"author_id"`
	Category   string             `json:"category"`
	Reason     string             `json:"reason"`
}

// CreateTicket opens a support ticket in status NEW.
func (s *Service) CreateTicket(ctx context.Context, in CreateTicketInput) (*CreateResult, error) {
	ticket, err := models.NewSupportTicket(in.AuthorKind, in.AuthorID, in.Category, requestcontext.Now(ctx), requestcontext.ActorID(ctx))
	if err != nil {
		return nil, err
	}
	return createEntity(ctx, s, s.stores.Tickets, domain.KindSupportTicket, ticket, in.Reason)
}
