package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurger_RemovesExpiredRecords(t *testing.T) {
	store := NewMemoryStore(Config{})
	ctx := context.Background()

	require.NoError(t, store.RecordDecision(ctx, record("old", "tab-1", true, time.Now().Add(-time.Hour))))
	require.NoError(t, store.RecordDecision(ctx, record("new", "tab-2", true, time.Now())))

	p := NewPurger(store, 30*time.Minute, 10*time.Millisecond)
	defer p.Close()

	assert.Eventually(t, func() bool {
		recs, err := store.RecentDecisions(ctx, 10)
		return err == nil && len(recs) == 1 && recs[0].ID == "new"
	}, time.Second, 10*time.Millisecond)
}

// countingPurgeStore counts PurgeBefore invocations.
type countingPurgeStore struct {
	*MemoryStore
	mu    sync.Mutex
	calls int
}

func (s *countingPurgeStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.MemoryStore.PurgeBefore(ctx, cutoff)
}

func (s *countingPurgeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestPurger_CloseStopsLoop(t *testing.T) {
	store := &countingPurgeStore{MemoryStore: NewMemoryStore(Config{})}
	p := NewPurger(store, time.Hour, 10*time.Millisecond)

	p.Close()
	// Double close must not panic.
	p.Close()

	// Allow any tick already in flight to drain before sampling.
	time.Sleep(30 * time.Millisecond)
	settled := store.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, store.count())
}

// failingPurgeStore always fails PurgeBefore.
type failingPurgeStore struct {
	*MemoryStore
}

func (s *failingPurgeStore) PurgeBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("disk full")
}

func TestPurger_SurvivesStoreErrors(t *testing.T) {
	store := &failingPurgeStore{MemoryStore: NewMemoryStore(Config{})}
	p := NewPurger(store, time.Hour, 10*time.Millisecond)
	defer p.Close()

	// The loop must keep running despite purge failures.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, store.RecordDecision(context.Background(), record("r", "tab-1", true, time.Now())))
	recs, err := store.RecentDecisions(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
