// Package storage persists admission decisions for operator inspection.
// Only the audit trail is stored; the admission state itself (token bucket,
// cooldown table) lives in memory and is deliberately not persisted.
package storage

import (
	"context"
	"time"

	"gatekeeper/internal/models"
)

// Store is the decision audit trail. Implementations must be safe for
// concurrent use.
type Store interface {
	// RecordDecision appends one decision to the audit trail.
	RecordDecision(ctx context.Context, rec *models.DecisionRecord) error

	// RecentDecisions returns up to limit decisions, newest first.
	RecentDecisions(ctx context.Context, limit int) ([]*models.DecisionRecord, error)

	// PurgeBefore removes records decided before the cutoff and returns
	// how many were removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close closes the storage connection and cleans up resources.
	Close() error
}

// Config holds configuration for storage backends.
type Config struct {
	// Type selects the backend: memory, sqlite, or postgres.
	Type string

	// Path is the database file for the sqlite backend.
	Path string

	// DSN is the connection string for database backends.
	DSN string

	// MaxOpenConns and MaxIdleConns bound the database connection pool.
	MaxOpenConns int
	MaxIdleConns int
}
