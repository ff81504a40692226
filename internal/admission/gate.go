// Package admission decides whether an incoming request may proceed. Every
// request carries an opaque client identifier and is checked against two
// composed limits: a global token budget shared by all clients and a
// per-client cooldown enforcing minimum spacing between admitted requests.
// Implementations must be safe for concurrent use.
package admission

import "time"

// Deny reasons reported in Decision.Reason.
const (
	ReasonGlobalBudget    = "global_budget"
	ReasonClientCooldown  = "client_cooldown"
	ReasonMissingClientID = "missing_client_id"
)

// Gate is the admission contract. Decide evaluates a single request and
// Maintenance purges stale per-client state; both must be callable
// concurrently.
type Gate interface {
	// Decide evaluates the request identified by clientID at the given
	// instant and returns the full decision, including state for
	// populating response headers.
	Decide(clientID string, now time.Time) Decision

	// Maintenance removes per-client entries that have been idle longer
	// than the configured TTL. Safe to call on an empty controller and
	// safe to call redundantly.
	Maintenance(now time.Time)
}

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed         bool
	Reason          string        // Empty when allowed
	TokensRemaining int           // Global tokens left after this call
	RetryAfter      time.Duration // How long to wait (meaningful only when denied)
}
