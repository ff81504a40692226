package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gatekeeper/internal/admission"
	"gatekeeper/internal/models"
	"gatekeeper/internal/storage"

	"github.com/google/uuid"
)

// clientIDHeader is the preferred way for callers to identify themselves;
// proxy headers and the remote address are fallbacks.
const clientIDHeader = "X-Client-ID"

// AdmissionMiddleware returns HTTP middleware that enforces admission control
// on the wrapped routes. Every decision is recorded in the audit store
// best-effort. Denied requests get a 429 with Retry-After; a request without
// any resolvable client identity gets a 400.
func AdmissionMiddleware(gate admission.Gate, store storage.Store, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := resolveClientID(r)

			at := now()
			decision := gate.Decide(clientID, at)

			// A contract violation, not a decision; nothing to audit.
			if decision.Reason == admission.ReasonMissingClientID {
				writeMiddlewareError(w, http.StatusBadRequest,
					models.NewErrorResponse("client identity is required", models.ErrorCodeBadRequest))
				slog.Warn("Request without client identity", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				return
			}

			recordDecision(r, store, clientID, at, decision)

			w.Header().Set("X-Admission-Remaining", fmt.Sprintf("%d", decision.TokensRemaining))

			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			retryAfterSecs := int(decision.RetryAfter.Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSecs))
			writeMiddlewareError(w, http.StatusTooManyRequests,
				models.NewErrorResponse("admission denied", models.ErrorCodeAdmissionDenied))

			slog.Warn("Admission denied",
				"client_id", clientID,
				"reason", decision.Reason,
				"retry_after", retryAfterSecs,
			)
		})
	}
}

// resolveClientID determines the client identity for admission control,
// checking the dedicated header first and proxy headers after.
func resolveClientID(r *http.Request) string {
	if id := r.Header.Get(clientIDHeader); id != "" {
		return id
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}

// recordDecision audits one middleware decision; failures are logged, never
// surfaced.
func recordDecision(r *http.Request, store storage.Store, clientID string, at time.Time, decision admission.Decision) {
	if store == nil {
		return
	}
	rec := &models.DecisionRecord{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		Allowed:   decision.Allowed,
		Reason:    decision.Reason,
		DecidedAt: at,
	}
	if err := store.RecordDecision(r.Context(), rec); err != nil {
		slog.Warn("Failed to record admission decision", "error", err, "client_id", clientID)
	}
}

func writeMiddlewareError(w http.ResponseWriter, status int, resp *models.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
