// Package query serves the admin console's read side: filtered entity lists
// ordered by how urgently a case needs attention, and per-entity detail views
// with links, recent audit history, and derived access state. It never
// mutates anything.
package query

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"spisok/internal/audit"
	"spisok/internal/links"
	"spisok/internal/moderation/models"
	"spisok/internal/moderation/statemachine"
	"spisok/internal/moderation/store"
	"spisok/internal/policy"
	"spisok/internal/usage"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
	"spisok/pkg/platform/sentinel"
)

// Service answers read-only questions about the moderation state.
type Service struct {
	stores *store.Stores
	ledger audit.Store
	linker links.Linker
	usage  usage.Recorder
}

// New constructs the query service.
func New(stores *store.Stores, ledger audit.Store, linker links.Linker, recorder usage.Recorder) *Service {
	return &Service{stores: stores, ledger: ledger, linker: linker, usage: recorder}
}

// DefaultPageSize bounds list pages when the caller does not.
const DefaultPageSize = 50

// detailAuditLimit caps the history shown inline on a detail view; the full
// ledger is available through the audit query endpoint.
const detailAuditLimit = 20

// ListInput filters one kind's entities. Zero values match everything.
type ListInput struct {
	Kind domain.EntityKind
	// Status keeps only entities whose persisted status matches exactly.
	Status statemachine.Status
	// Search is a case-insensitive substring match over the entity id and its
	// principal text fields (subject, contact, company, author).
	Search string
	Offset int
	Limit  int
}

// Summary is one list row. Kind-specific fields are set only where they
// apply.
type Summary struct {
	Target    domain.Ref          `json:"target"`
	Status    statemachine.Status `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	// Subject is the principal human-readable identifier: subject id for
	// registrations, company id for verifications and access, author id for
	// tickets, review id for appeals.
	Subject string `json:"subject"`

	RiskFlag        string `json:"risk_flag,omitempty"`
	Category        string `json:"category,omitempty"`
	EffectiveStatus string `json:"effective_status,omitempty"`
	ChecksUsed      int64  `json:"checks_used,omitempty"`
	CheckLimit      int64  `json:"check_limit,omitempty"`
}

// ListResult is one page of summaries plus the total match count before
// pagination.
type ListResult struct {
	Items []Summary `json:"items"`
	Total int       `json:"total"`
}

// List returns entities of one kind, filtered and ordered for the admin
// queue: statuses demanding attention first, oldest first within a rank.
func (s *Service) List(ctx context.Context, in ListInput) (*ListResult, error) {
	summaries, err := s.summaries(ctx, in.Kind)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(in.Search))
	filtered := summaries[:0]
	for _, item := range summaries {
		if in.Status != "" && item.Status != in.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Target.ID), search) &&
			!strings.Contains(strings.ToLower(item.Subject), search) &&
			!strings.Contains(strings.ToLower(item.Category), search) {
			continue
		}
		filtered = append(filtered, item)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		pi, pj := models.StatusPriority(filtered[i].Status), models.StatusPriority(filtered[j].Status)
		if pi != pj {
			return pi < pj
		}
		if !filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
		}
		return filtered[i].Target.ID < filtered[j].Target.ID
	})

	total := len(filtered)
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return &ListResult{Items: filtered[offset:end], Total: total}, nil
}

func (s *Service) summaries(ctx context.Context, kind domain.EntityKind) ([]Summary, error) {
	switch kind {
	case domain.KindRegistration:
		items, err := s.stores.Registrations.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Summary, 0, len(items))
		for _, r := range items {
			out = append(out, Summary{
				Target:    r.Ref(),
				Status:    r.Status,
				CreatedAt: r.CreatedAt,
				UpdatedAt: r.UpdatedAt,
				Subject:   r.SubjectID,
				RiskFlag:  string(r.RiskFlag),
			})
		}
		return out, nil

	case domain.KindVerification:
		items, err := s.stores.Verifications.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Summary, 0, len(items))
		for _, v := range items {
			out = append(out, Summary{
				Target:    v.Ref(),
				Status:    v.Status,
				CreatedAt: v.CreatedAt,
				UpdatedAt: v.UpdatedAt,
				Subject:   v.CompanyID,
			})
		}
		return out, nil

	case domain.KindCompanyAccess:
		items, err := s.stores.Access.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Summary, 0, len(items))
		for _, a := range items {
			used, err := s.usage.Get(ctx, a.CompanyID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "usage counter unavailable")
			}
			out = append(out, Summary{
				Target:          a.Ref(),
				Status:          a.Status,
				CreatedAt:       a.CreatedAt,
				UpdatedAt:       a.UpdatedAt,
				Subject:         a.CompanyID,
				EffectiveStatus: string(policy.EvaluateAccess(a, used)),
				ChecksUsed:      used,
				CheckLimit:      a.CheckLimit,
			})
		}
		return out, nil

	case domain.KindAppeal:
		items, err := s.stores.Appeals.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Summary, 0, len(items))
		for _, a := range items {
			out = append(out, Summary{
				Target:    a.Ref(),
				Status:    a.Status,
				CreatedAt: a.CreatedAt,
				UpdatedAt: a.UpdatedAt,
				Subject:   a.ReviewID,
			})
		}
		return out, nil

	case domain.KindSupportTicket:
		items, err := s.stores.Tickets.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Summary, 0, len(items))
		for _, t := range items {
			out = append(out, Summary{
				Target:    t.Ref(),
				Status:    t.Status,
				CreatedAt: t.CreatedAt,
				UpdatedAt: t.UpdatedAt,
				Subject:   t.AuthorID,
				Category:  t.Category,
			})
		}
		return out, nil
	}
	return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown entity kind %q", kind)
}

// AccessView is the derived access state shown on CompanyAccess details.
type AccessView struct {
	ChecksUsed      int64  `json:"checks_used"`
	CheckLimit      int64  `json:"check_limit"`
	EffectiveStatus string `json:"effective_status"`
}

// DetailResult is one entity with everything the console shows beside it.
type DetailResult struct {
	Target domain.Ref `json:"target"`
	// Entity is the full kind-specific record.
	Entity any `json:"entity"`
	// Actions lists the action names currently allowed by the kind's
	// transition table, sorted.
	Actions []statemachine.Action `json:"actions"`
	Links   []domain.Ref          `json:"links,omitempty"`
	// History is the newest audit entries for this entity, newest first.
	History []audit.Entry `json:"history"`
	Access  *AccessView   `json:"access,omitempty"`
}

// Detail returns one entity with its links, recent history, and (for
// CompanyAccess) the derived access state.
func (s *Service) Detail(ctx context.Context, ref domain.Ref) (*DetailResult, error) {
	result := &DetailResult{Target: ref}
	var status statemachine.Status

	switch ref.Kind {
	case domain.KindRegistration:
		r, _, err := s.stores.Registrations.Get(ctx, ref.ID)
		if err != nil {
			return nil, notFoundOr(err, ref)
		}
		result.Entity, status = r, r.Status

	case domain.KindVerification:
		v, _, err := s.stores.Verifications.Get(ctx, ref.ID)
		if err != nil {
			return nil, notFoundOr(err, ref)
		}
		result.Entity, status = v, v.Status

	case domain.KindCompanyAccess:
		a, _, err := s.stores.Access.Get(ctx, ref.ID)
		if err != nil {
			return nil, notFoundOr(err, ref)
		}
		used, err := s.usage.Get(ctx, a.CompanyID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "usage counter unavailable")
		}
		result.Entity, status = a, a.Status
		result.Access = &AccessView{
			ChecksUsed:      used,
			CheckLimit:      a.CheckLimit,
			EffectiveStatus: string(policy.EvaluateAccess(a, used)),
		}

	case domain.KindAppeal:
		a, _, err := s.stores.Appeals.Get(ctx, ref.ID)
		if err != nil {
			return nil, notFoundOr(err, ref)
		}
		result.Entity, status = a, a.Status

	case domain.KindSupportTicket:
		t, _, err := s.stores.Tickets.Get(ctx, ref.ID)
		if err != nil {
			return nil, notFoundOr(err, ref)
		}
		result.Entity, status = t, t.Status

	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown entity kind %q", ref.Kind)
	}

	result.Actions = models.TableFor(ref.Kind).ActionsFor(status)

	linked, err := s.linker.LinksOf(ctx, ref)
	if err != nil {
		return nil, err
	}
	result.Links = linked

	history, err := s.ledger.Recent(ctx, ref.Kind, ref.ID, detailAuditLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "audit ledger unavailable")
	}
	result.History = history
	return result, nil
}

// Audit runs a filtered ledger query for the console's audit browser.
func (s *Service) Audit(ctx context.Context, filter audit.Filter) (audit.Page, error) {
	page, err := s.ledger.Query(ctx, filter)
	if err != nil {
		return audit.Page{}, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "audit ledger unavailable")
	}
	return page, nil
}

func notFoundOr(err error, ref domain.Ref) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", ref)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "store read failed")
}
