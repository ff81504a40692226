package admission

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// recordingGate counts Maintenance invocations.
type recordingGate struct {
	mu    sync.Mutex
	calls int
}

func (g *recordingGate) Decide(string, time.Time) Decision { return Decision{Allowed: true} }

func (g *recordingGate) Maintenance(time.Time) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
}

func (g *recordingGate) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestJanitor_RunsMaintenance(t *testing.T) {
	gate := &recordingGate{}
	j := NewJanitor(gate, 20*time.Millisecond)
	defer j.Close()

	assert.Eventually(t, func() bool {
		return gate.count() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestJanitor_CloseStopsLoop(t *testing.T) {
	gate := &recordingGate{}
	j := NewJanitor(gate, 10*time.Millisecond)

	j.Close()
	// Double close must not panic.
	j.Close()

	// Allow any tick already in flight to drain before sampling.
	time.Sleep(30 * time.Millisecond)
	settled := gate.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, gate.count())
}

func TestJanitor_PurgesControllerEntries(t *testing.T) {
	c := NewController(Config{
		PerClientCooldown:    time.Millisecond,
		GlobalMaxTokens:      100,
		GlobalRefillInterval: time.Hour,
		StaleEntryTTL:        10 * time.Millisecond,
	})
	j := NewJanitor(c, 20*time.Millisecond)
	defer j.Close()

	c.Allow("ephemeral", time.Now())

	assert.Eventually(t, func() bool {
		return c.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}
