package storage

import (
	"context"
	"sync"
	"time"

	"gatekeeper/internal/models"
)

// defaultMaxRecords bounds the in-memory audit trail; the oldest records are
// dropped once the bound is reached.
const defaultMaxRecords = 1024

// MemoryStore keeps the audit trail in process memory. Suited for tests and
// single-node deployments where the trail does not need to outlive the
// process.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*models.DecisionRecord
	max     int
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(_ Config) *MemoryStore {
	return &MemoryStore{max: defaultMaxRecords}
}

// RecordDecision appends one decision, evicting the oldest record when full.
func (ms *MemoryStore) RecordDecision(_ context.Context, rec *models.DecisionRecord) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	cp := *rec
	ms.records = append(ms.records, &cp)
	if len(ms.records) > ms.max {
		ms.records = ms.records[len(ms.records)-ms.max:]
	}
	return nil
}

// RecentDecisions returns up to limit decisions, newest first.
func (ms *MemoryStore) RecentDecisions(_ context.Context, limit int) ([]*models.DecisionRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if limit <= 0 || limit > len(ms.records) {
		limit = len(ms.records)
	}

	out := make([]*models.DecisionRecord, 0, limit)
	for i := len(ms.records) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *ms.records[i]
		out = append(out, &cp)
	}
	return out, nil
}

// PurgeBefore removes records decided before the cutoff.
func (ms *MemoryStore) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	kept := ms.records[:0]
	var removed int64
	for _, rec := range ms.records {
		if rec.DecidedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	ms.records = kept
	return removed, nil
}

// Ping always succeeds for the in-memory backend.
func (ms *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory backend.
func (ms *MemoryStore) Close() error { return nil }
