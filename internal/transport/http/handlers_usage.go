package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"spisok/pkg/platform/httputil"
)

// Usage endpoints serve the check-submission collaborator, not admins, so
// they live under /internal and skip the actor requirement.

func (h *Handler) handleRecordCheck(w http.ResponseWriter, r *http.Request) {
	result, err := h.gateway.RecordCheck(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleResetUsage(w http.ResponseWriter, r *http.Request) {
	result, err := h.gateway.ResetUsage(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
