// Package gateway is the single mutation entry point of the moderation core.
// Every state-changing call (admin actions, intake creations, document
// attachment) flows through it, so reason validation, transition checks,
// and the one-audit-entry-per-mutation contract live in one place.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"spisok/internal/audit"
	"spisok/internal/events"
	"spisok/internal/links"
	"spisok/internal/moderation/models"
	"spisok/internal/moderation/statemachine"
	"spisok/internal/moderation/store"
	"spisok/internal/platform/metrics"
	"spisok/internal/usage"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
	"spisok/pkg/platform/sentinel"
	"spisok/pkg/requestcontext"
)

// Service orchestrates mutations across the entity stores, the audit
// ledger, the link index, and the outbound event stream.
type Service struct {
	stores    *store.Stores
	ledger    audit.Store
	linker    links.Linker
	usage     usage.Recorder
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the gateway.
func New(stores *store.Stores, ledger audit.Store, linker links.Linker, recorder usage.Recorder, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		stores:    stores,
		ledger:    ledger,
		linker:    linker,
		usage:     recorder,
		publisher: publisher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PerformInput is one requested action against one entity.
type PerformInput struct {
	Target domain.Ref
	Action statemachine.Action
	Reason string
	// Params carries action-specific values (required_info, check_limit,
	// link targets, appeal fields). Unknown keys are ignored.
	Params map[string]string
}

// TransitionResult reports an accepted action.
type TransitionResult struct {
	Target       domain.Ref          `json:"target"`
	FromStatus   statemachine.Status `json:"from_status"`
	NewStatus    statemachine.Status `json:"new_status"`
	AuditEntryID string              `json:"audit_entry_id"`
	// EffectiveStatus is populated for CompanyAccess actions: the derived
	// access state after the override change, re-evaluated against live
	// usage.
	EffectiveStatus string `json:"effective_status,omitempty"`
	// Created reports an entity spawned as a side effect (an appeal created
	// from a support ticket).
	Created *domain.Ref `json:"created,omitempty"`
}

// requireActor extracts the acting administrator from context. The core
// trusts the identifier; authentication happened upstream.
func requireActor(ctx context.Context) (string, error) {
	actor := strings.TrimSpace(requestcontext.ActorID(ctx))
	if actor == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "actor id is required")
	}
	return actor, nil
}

// requireReason enforces the mandatory justification on admin actions.
func requireReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeEmptyReason, "a non-empty reason is required")
	}
	return nil
}

// translateStoreErr maps store sentinels to the typed error taxonomy.
func translateStoreErr(err error, ref domain.Ref) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", ref)
	case errors.Is(err, sentinel.ErrStale):
		return dErrors.Newf(dErrors.CodeStaleState, "%s was modified concurrently, re-fetch and retry", ref)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Newf(dErrors.CodeConflict, "%s already exists", ref)
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "storage unavailable")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "store operation failed")
}

// exists checks that a link target refers to a known entity.
func (s *Service) exists(ctx context.Context, ref domain.Ref) error {
	var err error
	switch ref.Kind {
	case domain.KindRegistration:
		_, _, err = s.stores.Registrations.Get(ctx, ref.ID)
	case domain.KindVerification:
		_, _, err = s.stores.Verifications.Get(ctx, ref.ID)
	case domain.KindCompanyAccess:
		_, _, err = s.stores.Access.Get(ctx, ref.ID)
	case domain.KindAppeal:
		_, _, err = s.stores.Appeals.Get(ctx, ref.ID)
	case domain.KindSupportTicket:
		_, _, err = s.stores.Tickets.Get(ctx, ref.ID)
	default:
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown entity kind %q", ref.Kind)
	}
	return translateStoreErr(err, ref)
}

// publish sends an outbound event, logging instead of failing: the mutation
// already committed and the ledger is the record of truth.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.IncEventPublish(event.Type, "error")
		s.logger.ErrorContext(ctx, "event publish failed",
			"event_type", event.Type,
			"key", event.Key,
			"error", err,
		)
		return
	}
	s.metrics.IncEventPublish(event.Type, "ok")
}

// announce emits the post-commit events for an accepted action: the status
// change itself plus purge intents for documents whose retention expired.
func (s *Service) announce(ctx context.Context, in PerformInput, from, to statemachine.Status, purge []models.Document, actor string) {
	now := requestcontext.Now(ctx)
	s.publish(ctx, events.Event{
		Type: events.TypeStatusChanged,
		Key:  in.Target.ID,
		Payload: events.StatusChanged{
			Target:     in.Target,
			Action:     string(in.Action),
			FromStatus: string(from),
			ToStatus:   string(to),
			ActorID:    actor,
			At:         now,
		},
	})
	for _, doc := range purge {
		s.publish(ctx, events.Event{
			Type: events.TypePurgeIntent,
			Key:  in.Target.ID,
			Payload: events.PurgeIntent{
				Target:      in.Target,
				DocumentRef: doc.Ref,
				Kind:        doc.Kind,
				At:          now,
			},
		})
	}
}
