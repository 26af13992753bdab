// internal/launchpad/activity.go
package launchpad

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ActivityWindow is the length of the per-mint activity window.
const ActivityWindow = time.Minute

// ActivityTracker counts launchpad log activity per mint over a sliding
// one-minute window.
type ActivityTracker struct {
	mu     sync.Mutex
	byMint map[string][]time.Time
	now    func() time.Time
	logger *zap.Logger
}

// NewActivityTracker creates an empty tracker.
func NewActivityTracker(logger *zap.Logger) *ActivityTracker {
	return &ActivityTracker{
		byMint: make(map[string][]time.Time),
		now:    time.Now,
		logger: logger.Named("activity"),
	}
}

// RecordActivity appends an observation and evicts expired ones.
func (t *ActivityTracker) RecordActivity(mint string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	cutoff := now.Add(-ActivityWindow)
	ts := append(t.byMint[mint], now)
	i := 0
	for i < len(ts) && ts[i].Before(cutoff) {
		i++
	}
	t.byMint[mint] = ts[i:]
}

// Activity1m counts observations within the last minute. It does not evict.
func (t *ActivityTracker) Activity1m(mint string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-ActivityWindow)
	n := 0
	for _, ts := range t.byMint[mint] {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// Sweep drops mints with no observation inside the window and returns how
// many were removed.
func (t *ActivityTracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-ActivityWindow)
	removed := 0
	for mint, ts := range t.byMint {
		if len(ts) == 0 || ts[len(ts)-1].Before(cutoff) {
			delete(t.byMint, mint)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked mints.
func (t *ActivityTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byMint)
}

// Run sweeps periodically until ctx is done.
func (t *ActivityTracker) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Sweep(); n > 0 {
				t.logger.Debug("Swept idle mints", zap.Int("removed", n))
			}
		}
	}
}
