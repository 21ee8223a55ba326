package gateway

import (
	"context"
	"time"

	"spisok/internal/audit"
	"spisok/internal/events"
	"spisok/internal/moderation/models"
	"spisok/internal/moderation/statemachine"
	"spisok/internal/moderation/store"
	"spisok/internal/policy"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
	"spisok/pkg/requestcontext"
)

// Perform applies one named action to one entity. On success exactly one
// audit entry exists for the transition; on failure nothing is written.
// Concurrent actions on the same entity serialize: the loser fails with a
// stale-state error and must re-fetch before retrying. The core never
// retries on its own, because not every action is idempotent.
func (s *Service) Perform(ctx context.Context, in PerformInput) (*TransitionResult, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	if err := requireReason(in.Reason); err != nil {
		s.metrics.IncActionRejected(string(in.Target.Kind), string(dErrors.CodeEmptyReason))
		return nil, err
	}
	if in.Target.ID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "target id is required")
	}

	var (
		result *TransitionResult
		err    error
	)
	switch in.Target.Kind {
	case domain.KindRegistration:
		result, err = s.performRegistration(ctx, in)
	case domain.KindVerification:
		result, err = s.performVerification(ctx, in)
	case domain.KindCompanyAccess:
		result, err = s.performAccess(ctx, in)
	case domain.KindAppeal:
		result, err = s.performAppeal(ctx, in)
	case domain.KindSupportTicket:
		result, err = s.performTicket(ctx, in)
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown entity kind %q", in.Target.Kind)
	}
	if err != nil {
		s.metrics.IncActionRejected(string(in.Target.Kind), string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.IncActionPerformed(string(in.Target.Kind), string(in.Action))
	return result, nil
}

// moderated is the contract the generic transition path relies on; every
// entity kind satisfies it through its embedded Meta.
type moderated[T any] interface {
	store.Entity[T]
	CurrentStatus() statemachine.Status
	SetStatus(statemachine.Status)
	Touch(now time.Time, actor string)
}

// applyTransition is the shared read-validate-swap path. It reads the
// entity with its version, checks the transition table and the kind guard,
// then commits mutation and audit entry atomically via the store's
// compare-and-swap. A concurrent writer surfaces as a stale-state error.
//
// sideEffect, when set, runs inside the store commit before this entity's
// ledger append. Composite actions put their secondary writes there so a
// failed write aborts the whole transition and leaves no audit trace for it.
func applyTransition[T moderated[T]](
	ctx context.Context,
	s *Service,
	st *store.Memory[T],
	in PerformInput,
	table statemachine.Table,
	guard func(T) error,
	apply func(T, statemachine.Status) ([]models.Document, error),
	sideEffect func() error,
) (*TransitionResult, []models.Document, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, nil, err
	}
	now := requestcontext.Now(ctx)

	snapshot, version, err := st.Get(ctx, in.Target.ID)
	if err != nil {
		return nil, nil, translateStoreErr(err, in.Target)
	}
	from := snapshot.CurrentStatus()
	next, err := table.Next(from, in.Action)
	if err != nil {
		return nil, nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"action %q is not allowed for %s in status %s", in.Action, in.Target, from)
	}
	if guard != nil {
		if err := guard(snapshot); err != nil {
			return nil, nil, err
		}
	}

	var (
		entryID string
		purge   []models.Document
	)
	_, err = st.Update(ctx, in.Target.ID, version,
		func(item T) error {
			if apply != nil {
				docs, err := apply(item, next)
				if err != nil {
					return err
				}
				purge = docs
			}
			item.SetStatus(next)
			item.Touch(now, actor)
			return nil
		},
		func(T) error {
			if sideEffect != nil {
				if err := sideEffect(); err != nil {
					return err
				}
			}
			id, err := s.ledger.Append(ctx, audit.Entry{
				TargetKind: in.Target.Kind,
				TargetID:   in.Target.ID,
				ActorID:    actor,
				Action:     string(in.Action),
				FromStatus: string(from),
				ToStatus:   string(next),
				Reason:     in.Reason,
				Timestamp:  now,
			})
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "audit append failed, action aborted")
			}
			entryID = id
			return nil
		},
	)
	if err != nil {
		return nil, nil, translateStoreErr(err, in.Target)
	}

	s.announce(ctx, in, from, next, purge, actor)
	return &TransitionResult{
		Target:       in.Target,
		FromStatus:   from,
		NewStatus:    next,
		AuditEntryID: entryID,
	}, purge, nil
}

func (s *Service) performRegistration(ctx context.Context, in PerformInput) (*TransitionResult, error) {
	result, _, err := applyTransition(ctx, s, s.stores.Registrations, in, models.RegistrationTable,
		func(r *models.Registration) error { return r.GuardAction(in.Action) },
		func(r *models.Registration, _ statemachine.Status) ([]models.Document, error) {
			r.ApplyAction(in.Action, in.Params)
			return nil, nil
		},
		nil,
	)
	return result, err
}

func (s *Service) performVerification(ctx context.Context, in PerformInput) (*TransitionResult, error) {
	result, _, err := applyTransition(ctx, s, s.stores.Verifications, in, models.VerificationTable,
		nil,
		func(v *models.Verification, _ statemachine.Status) ([]models.Document, error) {
			return v.ApplyAction(in.Action, in.Reason, in.Params), nil
		},
		nil,
	)
	return result, err
}

func (s *Service) performAccess(ctx context.Context, in PerformInput) (*TransitionResult, error) {
	var previousLimit int64
	result, _, err := applyTransition(ctx, s, s.stores.Access, in, models.CompanyAccessTable,
		func(a *models.CompanyAccess) error { return a.GuardAction(in.Action, in.Params) },
		func(a *models.CompanyAccess, _ statemachine.Status) ([]models.Document, error) {
			previousLimit = a.CheckLimit
			a.ApplyAction(in.Action, in.Params)
			return nil, nil
		},
		nil,
	)
	if err != nil {
		return nil, err
	}

	// Manual actions re-run the policy evaluator so the caller sees the
	// derived state it just produced. The action has committed at this point,
	// so a failed re-read degrades to a result without the derived status
	// rather than reporting failure for a mutation that happened.
	access, _, err := s.stores.Access.Get(ctx, in.Target.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "effective status unavailable after access action",
			"target", in.Target.String(), "error", err)
		return result, nil
	}
	used, err := s.usage.Get(ctx, access.CompanyID)
	if err != nil {
		s.logger.WarnContext(ctx, "effective status unavailable after access action",
			"target", in.Target.String(), "error", err)
		return result, nil
	}
	result.EffectiveStatus = string(policy.EvaluateAccess(access, used))

	// Lowering the limit to or below the current count auto-blocks the
	// company without any increment crossing it, so the trip is announced
	// here.
	if in.Action == models.ActionSetCheckLimit &&
		access.AutoBlockEnabled && access.ManualOverride == models.OverrideNone &&
		used >= access.CheckLimit && used < previousLimit {
		s.publish(ctx, events.Event{
			Type: events.TypeAutoBlockTripped,
			Key:  access.CompanyID,
			Payload: events.AutoBlockTripped{
				CompanyID:  access.CompanyID,
				ChecksUsed: used,
				CheckLimit: access.CheckLimit,
				At:         requestcontext.Now(ctx),
			},
		})
	}
	return result, nil
}

func (s *Service) performAppeal(ctx context.Context, in PerformInput) (*TransitionResult, error) {
	result, _, err := applyTransition(ctx, s, s.stores.Appeals, in, models.AppealTable,
		nil,
		func(a *models.Appeal, _ statemachine.Status) ([]models.Document, error) {
			return a.ApplyAction(in.Action, in.Params), nil
		},
		nil,
	)
	return result, err
}

func (s *Service) performTicket(ctx context.Context, in PerformInput) (*TransitionResult, error) {
	// Link-implying actions validate their side effects before the ticket
	// transition commits, so a rejected link leaves no partial state.
	var (
		linkTarget domain.Ref
		newAppeal  *models.Appeal
	)
	switch in.Action {
	case models.ActionLinkEntity:
		kind, ok := domain.ParseKind(in.Params["target_kind"])
		if !ok {
			return nil, dErrors.New(dErrors.CodeBadRequest, "link target kind is missing or unknown")
		}
		linkTarget = domain.Ref{Kind: kind, ID: in.Params["target_id"]}
		if linkTarget.ID == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "link target id is required")
		}
		if linkTarget == in.Target {
			return nil, dErrors.New(dErrors.CodeSelfLink, "an entity cannot link to itself")
		}
		if err := s.exists(ctx, linkTarget); err != nil {
			return nil, err
		}
	case models.ActionCreateAppeal:
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		appeal, err := models.NewAppeal(
			in.Params["review_id"],
			in.Params["master_id"],
			in.Params["company_id"],
			in.Params["master_comment"],
			requestcontext.Now(ctx),
			actor,
		)
		if err != nil {
			return nil, err
		}
		newAppeal = appeal
	}

	// The appeal and its link are written inside the ticket's commit, before
	// the ticket's own ledger entry, so a failed appeal write aborts the
	// whole action and the ledger never records a create_appeal with no
	// appeal behind it.
	var sideEffect func() error
	if in.Action == models.ActionCreateAppeal {
		sideEffect = func() error {
			if _, err := createEntity(ctx, s, s.stores.Appeals, domain.KindAppeal, newAppeal, in.Reason); err != nil {
				return err
			}
			return s.linker.Link(ctx, in.Target, newAppeal.Ref())
		}
	}

	result, _, err := applyTransition(ctx, s, s.stores.Tickets, in, models.TicketTable, nil, nil, sideEffect)
	if err != nil {
		return nil, err
	}

	switch in.Action {
	case models.ActionLinkEntity:
		if err := s.linker.Link(ctx, in.Target, linkTarget); err != nil {
			return nil, err
		}
	case models.ActionCreateAppeal:
		created := newAppeal.Ref()
		result.Created = &created
	}
	return result, nil
}
