package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gatekeeper/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS decisions (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	allowed    INTEGER NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	decided_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_decided_at ON decisions (decided_at);
`

// SQLiteStore persists the audit trail in a SQLite database file using the
// CGo-free modernc.org/sqlite driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) a SQLite-backed store.
// Config.DSN takes precedence over Config.Path.
func NewSQLiteStore(config Config) (*SQLiteStore, error) {
	dsn := config.DSN
	if dsn == "" {
		dsn = config.Path
	}
	if dsn == "" {
		return nil, fmt.Errorf("path or dsn is required for sqlite storage")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// RecordDecision appends one decision to the audit trail.
func (ss *SQLiteStore) RecordDecision(ctx context.Context, rec *models.DecisionRecord) error {
	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO decisions (id, client_id, allowed, reason, decided_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.ClientID, boolToInt(rec.Allowed), rec.Reason, rec.DecidedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// RecentDecisions returns up to limit decisions, newest first.
func (ss *SQLiteStore) RecentDecisions(ctx context.Context, limit int) ([]*models.DecisionRecord, error) {
	if limit <= 0 {
		limit = defaultMaxRecords
	}

	rows, err := ss.db.QueryContext(ctx,
		`SELECT id, client_id, allowed, reason, decided_at FROM decisions ORDER BY decided_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var out []*models.DecisionRecord
	for rows.Next() {
		var rec models.DecisionRecord
		var allowed int
		if err := rows.Scan(&rec.ID, &rec.ClientID, &allowed, &rec.Reason, &rec.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		rec.Allowed = allowed != 0
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decisions: %w", err)
	}
	return out, nil
}

// PurgeBefore removes records decided before the cutoff.
func (ss *SQLiteStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := ss.db.ExecContext(ctx, `DELETE FROM decisions WHERE decided_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge decisions: %w", err)
	}
	return res.RowsAffected()
}

// Ping verifies the database is reachable.
func (ss *SQLiteStore) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the database handle.
func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
