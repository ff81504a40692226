// Package api exposes the admission controller over HTTP: an explicit
// decision endpoint, an admission-guarded analysis intake, the audit trail,
// and health checks.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gatekeeper/internal/admission"
	"gatekeeper/internal/models"
	"gatekeeper/internal/schema"
	"gatekeeper/internal/storage"
	"gatekeeper/internal/version"

	"github.com/google/uuid"
)

// Handlers contains HTTP handlers for the gatekeeper API.
type Handlers struct {
	gate  admission.Gate
	store storage.Store
	now   func() time.Time
}

// HandlerOption configures optional handler behavior.
type HandlerOption func(*Handlers)

// WithClock overrides the time source. Used by tests to drive deterministic
// admission decisions.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handlers) {
		h.now = now
	}
}

// NewHandlers creates a new handlers instance.
func NewHandlers(gate admission.Gate, store storage.Store, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		gate:  gate,
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Decide handles explicit admission checks.
// POST /api/v1/admission/decide
func (h *Handlers) Decide(w http.ResponseWriter, r *http.Request) {
	var req models.DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "invalid JSON body")
		return
	}

	if req.ClientID == "" {
		slog.Warn("Admission check without client id", "remote_addr", r.RemoteAddr)
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "client_id is required")
		return
	}

	now := h.now()
	decision := h.gate.Decide(req.ClientID, now)
	h.audit(r, req.ClientID, now, decision)

	resp := models.DecideResponse{
		Allowed:         decision.Allowed,
		Reason:          decision.Reason,
		TokensRemaining: decision.TokensRemaining,
	}
	if decision.RetryAfter > 0 {
		resp.RetryAfterMs = decision.RetryAfter.Milliseconds()
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

// SubmitAnalysis accepts an analysis response payload after structural
// validation. Admission control for this endpoint is enforced by middleware;
// the handler only validates and acknowledges.
// POST /api/v1/analysis
func (h *Handlers) SubmitAnalysis(w http.ResponseWriter, r *http.Request) {
	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "invalid JSON body")
		return
	}

	if !schema.IsValidAnalysisResponse(payload) {
		slog.Warn("Rejected malformed analysis payload", "remote_addr", r.RemoteAddr)
		h.writeErrorResponse(w, http.StatusUnprocessableEntity, models.ErrorCodeInvalidPayload, "payload is not a valid analysis response")
		return
	}

	h.writeJSONResponse(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// RecentDecisions returns the newest audit records.
// GET /api/v1/admission/recent
func (h *Handlers) RecentDecisions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n < 1 {
			h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := h.store.RecentDecisions(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to list decisions", "error", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "failed to list decisions")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, models.RecentDecisionsResponse{
		Decisions: recs,
		Count:     len(recs),
	})
}

// HealthCheck reports service health including the audit store.
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthCheckResponse{
		Status:     "healthy",
		Timestamp:  time.Now(),
		Version:    version.GetInfo().Version,
		Components: map[string]models.ComponentHealth{},
	}

	status := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Components["storage"] = models.ComponentHealth{Status: "unhealthy", Error: err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		resp.Components["storage"] = models.ComponentHealth{Status: "healthy"}
	}

	h.writeJSONResponse(w, status, resp)
}

// audit records a decision best-effort; storage problems never affect the
// admission outcome.
func (h *Handlers) audit(r *http.Request, clientID string, at time.Time, decision admission.Decision) {
	rec := &models.DecisionRecord{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		Allowed:   decision.Allowed,
		Reason:    decision.Reason,
		DecidedAt: at,
	}
	if err := h.store.RecordDecision(r.Context(), rec); err != nil {
		slog.Warn("Failed to record admission decision", "error", err, "client_id", clientID)
	}
}

// writeJSONResponse writes a JSON response with the given status code.
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes a standardized error response.
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.NewErrorResponse(message, code)); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
