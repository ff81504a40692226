package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Purger enforces the audit trail retention period from a background
// goroutine, deleting records older than the configured age on a fixed
// period. Construct it after the store and Close it during shutdown.
type Purger struct {
	store     Store
	retention time.Duration
	interval  time.Duration
	done      chan struct{}
	once      sync.Once
}

// NewPurger starts the retention loop. A non-positive interval falls back to
// the retention period itself.
func NewPurger(store Store, retention, interval time.Duration) *Purger {
	if interval <= 0 {
		interval = retention
	}
	p := &Purger{
		store:     store,
		retention: retention,
		interval:  interval,
		done:      make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Purger) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case now := <-ticker.C:
			removed, err := p.store.PurgeBefore(context.Background(), now.Add(-p.retention))
			if err != nil {
				slog.Warn("Failed to purge audit records", "error", err)
				continue
			}
			if removed > 0 {
				slog.Debug("Purged audit records", "removed", removed)
			}
		}
	}
}

// Close stops the retention loop. Safe to call more than once.
func (p *Purger) Close() {
	p.once.Do(func() { close(p.done) })
}
