package admission

import (
	"sync"
	"time"
)

// Default policy values applied by NewController when a Config field is zero.
const (
	DefaultPerClientCooldown    = 5 * time.Second
	DefaultGlobalMaxTokens      = 3
	DefaultGlobalRefillInterval = 60 * time.Second
	DefaultStaleEntryTTL        = 60 * time.Second
)

// Config holds the admission policy, fixed at construction.
type Config struct {
	// PerClientCooldown is the minimum spacing between admitted requests
	// from one client.
	PerClientCooldown time.Duration

	// GlobalMaxTokens is the shared bucket capacity.
	GlobalMaxTokens int

	// GlobalRefillInterval is the window after which a full batch of
	// tokens is credited.
	GlobalRefillInterval time.Duration

	// StaleEntryTTL is the idle age after which a client's cooldown entry
	// is purged by Maintenance.
	StaleEntryTTL time.Duration
}

// withDefaults fills zero fields with the default policy.
func (c Config) withDefaults() Config {
	if c.PerClientCooldown <= 0 {
		c.PerClientCooldown = DefaultPerClientCooldown
	}
	if c.GlobalMaxTokens <= 0 {
		c.GlobalMaxTokens = DefaultGlobalMaxTokens
	}
	if c.GlobalRefillInterval <= 0 {
		c.GlobalRefillInterval = DefaultGlobalRefillInterval
	}
	if c.StaleEntryTTL <= 0 {
		c.StaleEntryTTL = DefaultStaleEntryTTL
	}
	return c
}

// Controller is an in-memory admission controller. A single mutex guards the
// global bucket and the per-client table so Decide and Maintenance serialize
// against each other. Construct one per process and share it; there is no
// package-level instance.
type Controller struct {
	cfg Config

	mu         sync.Mutex
	tokens     int
	lastRefill time.Time
	lastSeen   map[string]time.Time
}

var _ Gate = (*Controller)(nil)

// NewController creates a controller with a full bucket. Zero config fields
// fall back to the defaults. The refill clock starts at the first call to
// Decide, not at construction.
func NewController(cfg Config) *Controller {
	cfg = cfg.withDefaults()
	return &Controller{
		cfg:      cfg,
		tokens:   cfg.GlobalMaxTokens,
		lastSeen: make(map[string]time.Time),
	}
}

// Allow reports whether the request identified by clientID may proceed at the
// given instant. It is shorthand for Decide(clientID, now).Allowed.
func (c *Controller) Allow(clientID string, now time.Time) bool {
	return c.Decide(clientID, now).Allowed
}

// Decide evaluates one request. The refill is applied on every call before
// the checks; the table and the token count are only mutated on admission.
// An empty clientID violates the caller contract and is rejected without
// touching any state.
func (c *Controller) Decide(clientID string, now time.Time) Decision {
	if clientID == "" {
		return Decision{Reason: ReasonMissingClientID}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.refill(now)

	if c.tokens < 1 {
		return Decision{
			Reason:          ReasonGlobalBudget,
			TokensRemaining: c.tokens,
			RetryAfter:      c.cfg.GlobalRefillInterval - now.Sub(c.lastRefill),
		}
	}

	if last, ok := c.lastSeen[clientID]; ok {
		if wait := c.cfg.PerClientCooldown - now.Sub(last); wait > 0 {
			// Rejected on cooldown alone: the global token stays unspent.
			return Decision{
				Reason:          ReasonClientCooldown,
				TokensRemaining: c.tokens,
				RetryAfter:      wait,
			}
		}
	}

	c.lastSeen[clientID] = now
	c.tokens--
	return Decision{Allowed: true, TokensRemaining: c.tokens}
}

// refill credits a full-capacity batch for every whole interval elapsed since
// lastRefill, capped at capacity, and resets the anchor to now. Partial
// intervals are not credited and the fractional remainder is dropped with the
// anchor reset, so a long idle stretch yields at most one full bucket.
// Callers must hold c.mu.
func (c *Controller) refill(now time.Time) {
	if c.lastRefill.IsZero() {
		c.lastRefill = now
		return
	}
	elapsed := now.Sub(c.lastRefill)
	if elapsed < c.cfg.GlobalRefillInterval {
		return
	}
	intervals := int(elapsed / c.cfg.GlobalRefillInterval)
	c.tokens += intervals * c.cfg.GlobalMaxTokens
	if c.tokens > c.cfg.GlobalMaxTokens {
		c.tokens = c.cfg.GlobalMaxTokens
	}
	c.lastRefill = now
}

// Maintenance removes every cooldown entry whose last admission is older than
// StaleEntryTTL. The global bucket is untouched.
func (c *Controller) Maintenance(now time.Time) {
	cutoff := now.Add(-c.cfg.StaleEntryTTL)
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, last := range c.lastSeen {
		if last.Before(cutoff) {
			delete(c.lastSeen, id)
		}
	}
}

// ClientCount returns the number of tracked cooldown entries.
func (c *Controller) ClientCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lastSeen)
}

// Tokens returns the current global token count without applying a refill.
func (c *Controller) Tokens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}
