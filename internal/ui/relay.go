// internal/ui/relay.go
package ui

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const (
	statusRetryInterval = 250 * time.Millisecond
	dropReportInterval  = 30 * time.Second
)

// RelayStats counts what the relay did with feed messages.
type RelayStats struct {
	Delivered     uint64
	Dropped       uint64
	StatusPending bool
}

// Relay hands feed messages to the bubbletea loop without ever blocking the
// websocket reader. When the UI falls behind, mint events are dropped and
// counted. A connection status is never dropped: it waits until there is
// room, and a newer status replaces it.
type Relay struct {
	out    chan<- tea.Msg
	logger *zap.Logger

	mu     sync.Mutex
	status *FeedStatusMsg

	delivered uint64
	dropped   uint64

	stop      chan struct{}
	closeOnce sync.Once
}

// NewRelay creates a relay writing to out. Close stops its background loop.
func NewRelay(out chan<- tea.Msg, logger *zap.Logger) *Relay {
	return newRelay(out, logger, statusRetryInterval, dropReportInterval)
}

func newRelay(out chan<- tea.Msg, logger *zap.Logger, retry, report time.Duration) *Relay {
	r := &Relay{
		out:    out,
		logger: logger.Named("relay"),
		stop:   make(chan struct{}),
	}
	go r.loop(retry, report)
	return r
}

// Send delivers msg if the UI queue has room. A pending status always goes
// first so the header never lags behind the table.
func (r *Relay) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := msg.(FeedStatusMsg); ok {
		r.status = &st
		r.flushStatusLocked()
		return
	}
	if !r.flushStatusLocked() || !r.offer(msg) {
		atomic.AddUint64(&r.dropped, 1)
	}
}

// Stats returns the relay counters.
func (r *Relay) Stats() RelayStats {
	r.mu.Lock()
	pending := r.status != nil
	r.mu.Unlock()
	return RelayStats{
		Delivered:     atomic.LoadUint64(&r.delivered),
		Dropped:       atomic.LoadUint64(&r.dropped),
		StatusPending: pending,
	}
}

// Close stops the background loop. Safe to call more than once.
func (r *Relay) Close() {
	r.closeOnce.Do(func() { close(r.stop) })
}

func (r *Relay) flushStatusLocked() bool {
	if r.status == nil {
		return true
	}
	if !r.offer(*r.status) {
		return false
	}
	r.status = nil
	return true
}

func (r *Relay) offer(msg tea.Msg) bool {
	select {
	case r.out <- msg:
		atomic.AddUint64(&r.delivered, 1)
		return true
	default:
		return false
	}
}

// loop retries a stuck status and reports drops, both to the log and to the
// notice line of the UI.
func (r *Relay) loop(retry, report time.Duration) {
	retryTicker := time.NewTicker(retry)
	defer retryTicker.Stop()
	reportTicker := time.NewTicker(report)
	defer reportTicker.Stop()

	var reported uint64
	for {
		select {
		case <-r.stop:
			return
		case <-retryTicker.C:
			r.mu.Lock()
			r.flushStatusLocked()
			r.mu.Unlock()
		case <-reportTicker.C:
			st := r.Stats()
			if st.Dropped == reported {
				continue
			}
			fresh := st.Dropped - reported
			reported = st.Dropped
			r.logger.Warn("UI is falling behind the feed",
				zap.Uint64("delivered", st.Delivered),
				zap.Uint64("dropped", st.Dropped),
				zap.Uint64("dropped_since_last", fresh))

			r.mu.Lock()
			r.offer(LogMsg{Level: "warn", Message: fmt.Sprintf("%d events skipped, UI is behind the feed", fresh)})
			r.mu.Unlock()
		}
	}
}
