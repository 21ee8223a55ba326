package httptransport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spisok/internal/audit"
	"spisok/internal/events"
	"spisok/internal/gateway"
	"spisok/internal/links"
	"spisok/internal/moderation/store"
	"spisok/internal/platform/logger"
	"spisok/internal/platform/metrics"
	"spisok/internal/query"
	"spisok/internal/usage"
)

const actorHeader = "admin-7"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.New()
	stores := store.NewStores()
	ledger := audit.NewInMemoryStore()
	linker := links.NewInMemoryLinker()
	recorder := usage.NewInMemoryRecorder()
	publisher := events.NewLogPublisher(log)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	gw := gateway.New(stores, ledger, linker, recorder, publisher,
		gateway.WithLogger(log),
		gateway.WithMetrics(m),
	)
	q := query.New(stores, ledger, linker, recorder)
	return NewRouter(New(gw, q, nil, log), m, reg)
}

func doJSON(t *testing.T, router http.Handler, method, path string, payload any, actor string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-Actor-ID", actor)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createRegistration(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/intake/registrations", map[string]any{
		"subject_kind":  "executor",
		"subject_id":    "exec-1",
		"contact":       "exec@example.com",
		"consent_given": true,
		"reason":        "signup form",
	}, actorHeader)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Target struct {
			ID string `json:"id"`
		} `json:"target"`
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Target.ID)
	require.Equal(t, "NEW", resp.Status)
	return resp.Target.ID
}

func TestActorHeaderRequired(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/intake/registrations", map[string]any{
		"subject_kind": "executor",
		"subject_id":   "exec-1",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "bad_request", body["error"])
}

func TestRegistrationActionFlow(t *testing.T) {
	router := newTestRouter(t)
	id := createRegistration(t, router)

	rec := doJSON(t, router, http.MethodPost, "/admin/registration/"+id+"/actions", map[string]any{
		"action": "review",
		"reason": "profile checks out",
	}, actorHeader)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		FromStatus string `json:"from_status"`
		NewStatus  string `json:"new_status"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "NEW", result.FromStatus)
	assert.Equal(t, "REVIEWED", result.NewStatus)

	// REVIEWED is terminal; a second action conflicts.
	rec = doJSON(t, router, http.MethodPost, "/admin/registration/"+id+"/actions", map[string]any{
		"action": "reject",
		"reason": "changed my mind",
	}, actorHeader)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var errBody map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errBody))
	assert.Equal(t, "invalid_transition", errBody["error"])
}

func TestEmptyReasonRejected(t *testing.T) {
	router := newTestRouter(t)
	id := createRegistration(t, router)

	rec := doJSON(t, router, http.MethodPost, "/admin/registration/"+id+"/actions", map[string]any{
		"action": "review",
		"reason": "  ",
	}, actorHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "empty_reason", body["error"])
}

func TestListAndDetail(t *testing.T) {
	router := newTestRouter(t)
	id := createRegistration(t, router)

	rec := doJSON(t, router, http.MethodGet, "/admin/registration?status=NEW", nil, actorHeader)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Items []struct {
			Target struct {
				ID string `json:"id"`
			} `json:"target"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, id, list.Items[0].Target.ID)

	rec = doJSON(t, router, http.MethodGet, "/admin/registration/"+id, nil, actorHeader)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		Actions []string `json:"actions"`
		History []struct {
			Action string `json:"action"`
		} `json:"history"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Contains(t, detail.Actions, "review")
	require.Len(t, detail.History, 1)
	assert.Equal(t, "created", detail.History[0].Action)
}

func TestUnknownKindRejected(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/admin/reviews", nil, actorHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownEntityIs404(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/admin/appeal/A-missing", nil, actorHeader)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsageEndpoints(t *testing.T) {
	router := newTestRouter(t)

	// Counting checks for an unprovisioned company fails.
	rec := doJSON(t, router, http.MethodPost, "/internal/usage/company-1/checks", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/admin/company-access", map[string]any{
		"company_id":         "company-1",
		"check_limit":        2,
		"auto_block_enabled": true,
		"reason":             "verification approved",
	}, actorHeader)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var usageResp struct {
		ChecksUsed      int64  `json:"checks_used"`
		EffectiveStatus string `json:"effective_status"`
	}
	for i := 1; i <= 2; i++ {
		rec = doJSON(t, router, http.MethodPost, "/internal/usage/company-1/checks", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&usageResp))
		assert.Equal(t, int64(i), usageResp.ChecksUsed)
	}
	assert.Equal(t, "BLOCKED", usageResp.EffectiveStatus)

	rec = doJSON(t, router, http.MethodPost, "/internal/usage/company-1/reset", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&usageResp))
	assert.Zero(t, usageResp.ChecksUsed)
	assert.Equal(t, "ACTIVE", usageResp.EffectiveStatus)
}

func TestAuditEndpoint(t *testing.T) {
	router := newTestRouter(t)
	createRegistration(t, router)

	rec := doJSON(t, router, http.MethodGet, "/admin/audit?kind=registration", nil, actorHeader)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Entries []struct {
			Action string `json:"action"`
		} `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "created", page.Entries[0].Action)

	rec = doJSON(t, router, http.MethodGet, "/admin/audit?since=yesterday", nil, actorHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMalformedBodyRejected(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/intake/tickets", bytes.NewBufferString("{not json"))
	req.Header.Set("X-Actor-ID", actorHeader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
