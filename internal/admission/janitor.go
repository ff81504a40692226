package admission

import (
	"sync"
	"time"
)

// Janitor drives Gate.Maintenance on a fixed period from a background
// goroutine. It is owned by the process lifecycle: construct it after the
// controller and Close it during shutdown so the goroutine exits cleanly.
type Janitor struct {
	gate     Gate
	interval time.Duration
	done     chan struct{}
	once     sync.Once
}

// NewJanitor starts the maintenance loop. A non-positive interval falls back
// to the stale-entry TTL default.
func NewJanitor(gate Gate, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = DefaultStaleEntryTTL
	}
	j := &Janitor{
		gate:     gate,
		interval: interval,
		done:     make(chan struct{}),
	}
	go j.run()
	return j
}

func (j *Janitor) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case now := <-ticker.C:
			j.gate.Maintenance(now)
		}
	}
}

// Close stops the maintenance loop. Safe to call more than once.
func (j *Janitor) Close() {
	j.once.Do(func() { close(j.done) })
}
