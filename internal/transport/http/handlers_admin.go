package httptransport

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"spisok/internal/audit"
	"spisok/internal/gateway"
	"spisok/internal/moderation/statemachine"
	"spisok/internal/query"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
	"spisok/pkg/platform/httputil"
	"spisok/pkg/requestcontext"
)

// ActionGateway is the mutation surface the transport depends on.
type ActionGateway interface {
	Perform(ctx context.Context, in gateway.PerformInput) (*gateway.TransitionResult, error)
	AttachDocument(ctx context.Context, in gateway.AttachDocumentInput) (*gateway.TransitionResult, error)
	CreateRegistration(ctx context.Context, in gateway.CreateRegistrationInput) (*gateway.CreateResult, error)
	CreateVerification(ctx context.Context, in gateway.CreateVerificationInput) (*gateway.CreateResult, error)
	CreateCompanyAccess(ctx context.Context, in gateway.CreateCompanyAccessInput) (*gateway.CreateResult, error)
	CreateAppeal(ctx context.Context, in gateway.CreateAppealInput) (*gateway.CreateResult, error)
	CreateTicket(ctx context.Context, in gateway.CreateTicketInput) (*gateway.CreateResult, error)
	RecordCheck(ctx context.Context, companyID string) (*gateway.UsageResult, error)
	ResetUsage(ctx context.Context, companyID string) (*gateway.UsageResult, error)
}

// Directory is the read surface the transport depends on.
type Directory interface {
	List(ctx context.Context, in query.ListInput) (*query.ListResult, error)
	Detail(ctx context.Context, ref domain.Ref) (*query.DetailResult, error)
	Audit(ctx context.Context, filter audit.Filter) (audit.Page, error)
}

// targetFromURL resolves the {kind}/{id} route parameters.
func targetFromURL(r *http.Request) (domain.Ref, error) {
	kind, ok := domain.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		return domain.Ref{}, dErrors.Newf(dErrors.CodeBadRequest, "unknown entity kind %q", chi.URLParam(r, "kind"))
	}
	return domain.Ref{Kind: kind, ID: chi.URLParam(r, "id")}, nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	kind, ok := domain.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "unknown entity kind %q", chi.URLParam(r, "kind")))
		return
	}
	q := r.URL.Query()
	in := query.ListInput{
		Kind:   kind,
		Status: statemachine.Status(q.Get("status")),
		Search: q.Get("search"),
	}
	in.Offset, _ = strconv.Atoi(q.Get("offset"))
	in.Limit, _ = strconv.Atoi(q.Get("limit"))

	result, err := h.query.List(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	ref, err := targetFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.query.Detail(r.Context(), ref)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type performRequest struct {
	Action string            `json:"action"`
	Reason string            `json:"reason"`
	Params map[string]string `json:"params,omitempty"`
}

func (h *Handler) handlePerform(w http.ResponseWriter, r *http.Request) {
	ref, err := targetFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[performRequest](w, r)
	if !ok {
		return
	}
	if req.Action == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "action is required"))
		return
	}

	result, err := h.gateway.Perform(r.Context(), gateway.PerformInput{
		Target: ref,
		Action: statemachine.Action(req.Action),
		Reason: req.Reason,
		Params: req.Params,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "action rejected",
			"request_id", requestcontext.RequestID(r.Context()),
			"target", ref.String(),
			"action", req.Action,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type attachDocumentRequest struct {
	DocumentRef         string `json:"document_ref"`
	DocumentKind        string `json:"document_kind"`
	RetainAfterDecision bool   `json:"retain_after_decision"`
	Reason              string `json:"reason"`
}

func (h *Handler) handleAttachDocument(w http.ResponseWriter, r *http.Request) {
	ref, err := targetFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[attachDocumentRequest](w, r)
	if !ok {
		return
	}

	result, err := h.gateway.AttachDocument(r.Context(), gateway.AttachDocumentInput{
		Target:              ref,
		DocumentRef:         req.DocumentRef,
		DocumentKind:        req.DocumentKind,
		RetainAfterDecision: req.RetainAfterDecision,
		Reason:              req.Reason,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAuditQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		TargetID: q.Get("target_id"),
		ActorID:  q.Get("actor_id"),
		Cursor:   q.Get("cursor"),
	}
	if raw := q.Get("kind"); raw != "" {
		kind, ok := domain.ParseKind(raw)
		if !ok {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "unknown entity kind %q", raw))
			return
		}
		filter.TargetKind = kind
	}
	for _, bound := range []struct {
		param string
		dst   *time.Time
	}{
		{"since", &filter.Since},
		{"until", &filter.Until},
	} {
		if raw := q.Get(bound.param); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "%s must be RFC 3339", bound.param))
				return
			}
			*bound.dst = t
		}
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.query.Audit(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}
