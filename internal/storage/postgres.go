package storage

import (
	"context"
	"fmt"
	"time"

	"gatekeeper/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS decisions (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	allowed    BOOLEAN NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	decided_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_decided_at ON decisions (decided_at);
`

// PostgresStore persists the audit trail in PostgreSQL via a pgx connection
// pool. Used when several operators share one audit trail; admission state
// itself stays node-local regardless of backend.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed store and initializes the
// schema.
func NewPostgresStore(config Config) (*PostgresStore, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("dsn is required for postgres storage")
	}

	poolCfg, err := pgxpool.ParseConfig(config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}
	if config.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(config.MaxOpenConns)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(context.Background(), postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// RecordDecision appends one decision to the audit trail.
func (ps *PostgresStore) RecordDecision(ctx context.Context, rec *models.DecisionRecord) error {
	_, err := ps.pool.Exec(ctx,
		`INSERT INTO decisions (id, client_id, allowed, reason, decided_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.ClientID, rec.Allowed, rec.Reason, rec.DecidedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// RecentDecisions returns up to limit decisions, newest first.
func (ps *PostgresStore) RecentDecisions(ctx context.Context, limit int) ([]*models.DecisionRecord, error) {
	if limit <= 0 {
		limit = defaultMaxRecords
	}

	rows, err := ps.pool.Query(ctx,
		`SELECT id, client_id, allowed, reason, decided_at FROM decisions ORDER BY decided_at DESC, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var out []*models.DecisionRecord
	for rows.Next() {
		var rec models.DecisionRecord
		if err := rows.Scan(&rec.ID, &rec.ClientID, &rec.Allowed, &rec.Reason, &rec.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decisions: %w", err)
	}
	return out, nil
}

// PurgeBefore removes records decided before the cutoff.
func (ps *PostgresStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := ps.pool.Exec(ctx, `DELETE FROM decisions WHERE decided_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge decisions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping verifies the database is reachable.
func (ps *PostgresStore) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Close releases the connection pool.
func (ps *PostgresStore) Close() error {
	ps.pool.Close()
	return nil
}
