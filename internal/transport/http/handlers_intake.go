package httptransport

import (
	"net/http"

	"spisok/internal/gateway"
	"spisok/pkg/platform/httputil"
)

func (h *Handler) handleCreateRegistration(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[gateway.CreateRegistrationInput](w, r)
	if !ok {
		return
	}
	result, err := h.gateway.CreateRegistration(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleCreateVerification(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[gateway.CreateVerificationInput](w, r)
	if !ok {
		return
	}
	result, err := h.gateway.CreateVerification(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleCreateCompanyAccess(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[gateway.CreateCompanyAccessInput](w, r)
	if !ok {
		return
	}
	result, err := h.gateway.CreateCompanyAccess(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleCreateAppeal(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[gateway.CreateAppealInput](w, r)
	if !ok {
		return
	}
	result, err := h.gateway.CreateAppeal(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[gateway.CreateTicketInput](w, r)
	if !ok {
		return
	}
	result, err := h.gateway.CreateTicket(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}
