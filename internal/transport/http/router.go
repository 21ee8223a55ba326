// Package httptransport is the thin HTTP layer over the gateway and query
// services. Handlers decode, delegate, and encode; every rule about what an
// action may do lives below this package.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spisok/internal/platform/metrics"
	"spisok/pkg/platform/httputil"
	"spisok/pkg/platform/middleware/actor"
	"spisok/pkg/platform/middleware/requestid"
	"spisok/pkg/platform/middleware/requesttime"
)

// Handler bundles the HTTP endpoints with their dependencies.
type Handler struct {
	gateway ActionGateway
	query   Directory
	health  func() error
	logger  *slog.Logger
}

// New constructs the HTTP handler set. health reports storage reachability
// for /healthz; pass nil when everything is in-memory.
func New(gw ActionGateway, q Directory, health func() error, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{gateway: gw, query: q, health: health, logger: logger}
}

// NewRouter mounts all endpoints. The prometheus gatherer backs /metrics.
func NewRouter(h *Handler, m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(actor.Middleware)
	r.Use(h.recover)
	r.Use(h.logRequests)
	r.Use(observe(m))

	r.Get("/healthz", h.handleHealth)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/intake", func(r chi.Router) {
		r.Use(actor.Require)
		r.Post("/registrations", h.handleCreateRegistration)
		r.Post("/verifications", h.handleCreateVerification)
		r.Post("/appeals", h.handleCreateAppeal)
		r.Post("/tickets", h.handleCreateTicket)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(actor.Require)
		r.Get("/audit", h.handleAuditQuery)
		r.Post("/company-access", h.handleCreateCompanyAccess)
		r.Get("/{kind}", h.handleList)
		r.Get("/{kind}/{id}", h.handleDetail)
		r.Post("/{kind}/{id}/actions", h.handlePerform)
		r.Post("/{kind}/{id}/documents", h.handleAttachDocument)
	})

	r.Route("/internal/usage", func(r chi.Router) {
		r.Post("/{companyID}/checks", h.handleRecordCheck)
		r.Post("/{companyID}/reset", h.handleResetUsage)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(); err != nil {
			h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
