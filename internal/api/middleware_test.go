package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gatekeeper/internal/admission"
	"gatekeeper/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func newTestMiddleware(t *testing.T) (func(http.Handler) http.Handler, *fakeClock, *storage.MemoryStore) {
	t.Helper()
	clock := &fakeClock{now: testStart}
	gate := admission.NewController(admission.Config{
		PerClientCooldown:    5 * time.Second,
		GlobalMaxTokens:      3,
		GlobalRefillInterval: 60 * time.Second,
		StaleEntryTTL:        60 * time.Second,
	})
	store := storage.NewMemoryStore(storage.Config{})
	return AdmissionMiddleware(gate, store, clock.Now), clock, store
}

func TestAdmissionMiddleware_Allowed(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)
	handler := mw(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("POST", "/api/v1/analysis", nil)
	req.Header.Set("X-Client-ID", "tab-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("X-Admission-Remaining"))
}

func TestAdmissionMiddleware_CooldownDenied(t *testing.T) {
	mw, clock, store := newTestMiddleware(t)
	handler := mw(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("POST", "/api/v1/analysis", nil)
	req.Header.Set("X-Client-ID", "tab-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	clock.Advance(time.Second)

	req = httptest.NewRequest("POST", "/api/v1/analysis", nil)
	req.Header.Set("X-Client-ID", "tab-1")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	recs, err := store.RecentDecisions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.False(t, recs[0].Allowed)
	assert.Equal(t, admission.ReasonClientCooldown, recs[0].Reason)
}

func TestAdmissionMiddleware_GlobalBudgetDenied(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)
	handler := mw(http.HandlerFunc(okHandler))

	for _, id := range []string{"a", "b", "c"} {
		req := httptest.NewRequest("POST", "/api/v1/analysis", nil)
		req.Header.Set("X-Client-ID", id)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, "client %s should be admitted", id)
	}

	req := httptest.NewRequest("POST", "/api/v1/analysis", nil)
	req.Header.Set("X-Client-ID", "d")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-Admission-Remaining"))
}

func TestAdmissionMiddleware_FallsBackToRemoteAddr(t *testing.T) {
	mw, _, store := newTestMiddleware(t)
	handler := mw(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("POST", "/api/v1/analysis", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	recs, err := store.RecentDecisions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "192.168.1.1:12345", recs[0].ClientID)
}

func TestAdmissionMiddleware_MissingIdentityNotAudited(t *testing.T) {
	mw, _, store := newTestMiddleware(t)
	handler := mw(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("POST", "/api/v1/analysis", nil)
	req.RemoteAddr = ""
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	recs, err := store.RecentDecisions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recs, "contract violations are not audited as decisions")
}

func TestResolveClientID(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*http.Request)
		expect string
	}{
		{
			"header wins",
			func(r *http.Request) {
				r.Header.Set("X-Client-ID", "tab-7")
				r.Header.Set("X-Forwarded-For", "10.0.0.1")
			},
			"tab-7",
		},
		{
			"first forwarded hop",
			func(r *http.Request) { r.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2") },
			"10.0.0.1",
		},
		{
			"real ip",
			func(r *http.Request) { r.Header.Set("X-Real-IP", "10.0.0.3") },
			"10.0.0.3",
		},
		{
			"remote addr fallback",
			func(r *http.Request) {},
			"192.0.2.1:1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			tt.setup(req)
			assert.Equal(t, tt.expect, resolveClientID(req))
		})
	}
}
