package models

import "time"

// DecisionRecord is one audited admission decision. Records exist for
// operator inspection only; the admission state itself is never persisted.
type DecisionRecord struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// DecideRequest is the body of an explicit admission check.
type DecideRequest struct {
	ClientID string `json:"client_id"`
}

// DecideResponse reports the outcome of an explicit admission check.
type DecideResponse struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason,omitempty"`
	TokensRemaining int    `json:"tokens_remaining"`
	RetryAfterMs    int64  `json:"retry_after_ms,omitempty"`
}

// RecentDecisionsResponse wraps the audit listing endpoint.
type RecentDecisionsResponse struct {
	Decisions []*DecisionRecord `json:"decisions"`
	Count     int               `json:"count"`
}
