package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Store = (*SQLiteStore)(nil)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(Config{Path: filepath.Join(t.TempDir(), "audit.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore(Config{})
	assert.Error(t, err)
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordDecision(ctx, record("1", "tab-a", true, base)))
	require.NoError(t, store.RecordDecision(ctx, record("2", "tab-b", false, base.Add(time.Second))))

	recs, err := store.RecentDecisions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2", recs[0].ID, "newest first")
	assert.False(t, recs[0].Allowed)
	assert.Equal(t, "global_budget", recs[0].Reason)
	assert.Equal(t, "1", recs[1].ID)
	assert.True(t, recs[1].Allowed)
	assert.True(t, recs[1].DecidedAt.Equal(base))
}

func TestSQLiteStore_RecentDecisions_Limit(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := record(string(rune('a'+i)), "tab", true, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, store.RecordDecision(ctx, rec))
	}

	recs, err := store.RecentDecisions(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.Equal(t, "e", recs[0].ID)
}

func TestSQLiteStore_PurgeBefore(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordDecision(ctx, record("old", "tab-a", true, base)))
	require.NoError(t, store.RecordDecision(ctx, record("new", "tab-b", true, base.Add(time.Hour))))

	removed, err := store.PurgeBefore(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	recs, err := store.RecentDecisions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "new", recs[0].ID)
}

func TestSQLiteStore_Ping(t *testing.T) {
	store := newTestSQLiteStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
