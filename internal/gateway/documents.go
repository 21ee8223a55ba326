package gateway

import (
	"context"

	"spisok/internal/moderation/models"
	"spisok/internal/moderation/statemachine"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
	"spisok/pkg/requestcontext"
)

// AttachDocumentInput attaches one opaque document reference to a case.
type AttachDocumentInput struct {
	Target              domain.Ref
	DocumentRef         string
	DocumentKind        string
	RetainAfterDecision bool
	Reason              string
}

// AttachDocument records a document reference on a verification or appeal.
// The attachment is an audited self-transition, so terminal cases reject it
// the same way they reject any other action.
func (s *Service) AttachDocument(ctx context.Context, in AttachDocumentInput) (*TransitionResult, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireReason(in.Reason); err != nil {
		s.metrics.IncActionRejected(string(in.Target.Kind), string(dErrors.CodeEmptyReason))
		return nil, err
	}
	if in.DocumentRef == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "document ref is required")
	}

	doc := models.Document{
		Ref:                 in.DocumentRef,
		Kind:                in.DocumentKind,
		RetainAfterDecision: in.RetainAfterDecision,
		AttachedBy:          actor,
		AttachedAt:          requestcontext.Now(ctx),
	}
	perform := PerformInput{
		Target: in.Target,
		Action: models.ActionAttachDocument,
		Reason: in.Reason,
	}

	var result *TransitionResult
	switch in.Target.Kind {
	case domain.KindVerification:
		result, _, err = applyTransition(ctx, s, s.stores.Verifications, perform, models.VerificationTable,
			nil,
			func(v *models.Verification, _ statemachine.Status) ([]models.Document, error) {
				v.Attach(doc)
				return nil, nil
			},
			nil,
		)
	case domain.KindAppeal:
		result, _, err = applyTransition(ctx, s, s.stores.Appeals, perform, models.AppealTable,
			nil,
			func(a *models.Appeal, _ statemachine.Status) ([]models.Document, error) {
				a.Attach(doc)
				return nil, nil
			},
			nil,
		)
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "%s does not carry documents", in.Target.Kind)
	}
	if err != nil {
		s.metrics.IncActionRejected(string(in.Target.Kind), string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.IncActionPerformed(string(in.Target.Kind), string(models.ActionAttachDocument))
	return result, nil
}
