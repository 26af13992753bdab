// internal/events/store.go
package events

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
	"github.com/rovshanmuradov/mintwatch/internal/utils/metrics"
)

const (
	// MinLimit is the smallest accepted buffer capacity.
	MinLimit = 50
	// DefaultLimit is used when no capacity is configured.
	DefaultLimit = 300
	// DefaultSubscriberBuffer is the per-subscriber queue length.
	DefaultSubscriberBuffer = 256
)

// ErrStoreClosed is returned by Push after Close.
var ErrStoreClosed = errors.New("event store is closed")

// Store is a bounded ring buffer of recent mint events with live fan-out.
// Push, eviction and broadcast happen under one lock, so every subscriber
// sees events in push order and snapshots never observe a torn update.
type Store struct {
	mu     sync.RWMutex
	ring   []domain.MintEvent
	head   int // index of the oldest event
	size   int
	lastTs int64
	subs   map[string]*subscription
	closed bool

	subBuffer int
	pushed    uint64
	dropped   uint64

	metrics *metrics.Collector
	logger  *zap.Logger
}

// Option настраивает Store.
type Option func(*Store)

// WithSubscriberBuffer sets the queue length of new subscriptions.
func WithSubscriberBuffer(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.subBuffer = n
		}
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a store holding at most limit events (floor MinLimit).
func NewStore(limit int, logger *zap.Logger, opts ...Option) *Store {
	limit = clampLimit(limit)
	s := &Store{
		ring:      make([]domain.MintEvent, limit),
		subs:      make(map[string]*subscription),
		subBuffer: DefaultSubscriberBuffer,
		logger:    logger.Named("event_store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func clampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	if n < MinLimit {
		return MinLimit
	}
	return n
}

// Push appends e, evicting the oldest event when full, then delivers it to
// every subscriber. A subscriber whose queue is full misses the event; the
// producer never blocks.
func (s *Store) Push(e domain.MintEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	// Enrichment finishes out of detection order; keep ts non-decreasing.
	if e.Ts < s.lastTs {
		e.Ts = s.lastTs
	}
	s.lastTs = e.Ts
	e.Details = e.Details.Clone()
	e.Seq = atomic.AddUint64(&s.pushed, 1)

	limit := len(s.ring)
	if s.size < limit {
		s.ring[(s.head+s.size)%limit] = e
		s.size++
	} else {
		s.ring[s.head] = e
		s.head = (s.head + 1) % limit
	}

	for id, sub := range s.subs {
		select {
		case sub.ch <- e:
		default:
			atomic.AddUint64(&sub.dropped, 1)
			atomic.AddUint64(&s.dropped, 1)
			s.metrics.RecordSubscriberDrop()
			s.logger.Debug("Subscriber queue full, dropping event",
				zap.String("subscription_id", id),
				zap.String("mint", e.Mint))
		}
	}

	s.metrics.RecordEvent(e.Source, string(e.Stage))
	s.metrics.SetStoreSize(s.size)
	return nil
}

// Snapshot returns a point-in-time copy, newest first.
func (s *Store) Snapshot() []domain.MintEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []domain.MintEvent {
	out := make([]domain.MintEvent, s.size)
	limit := len(s.ring)
	for i := 0; i < s.size; i++ {
		out[s.size-1-i] = s.ring[(s.head+i)%limit]
	}
	return out
}

// Size returns the number of buffered events.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Limit returns the current capacity.
func (s *Store) Limit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ring)
}

// SetLimit changes the capacity (floor MinLimit). Shrinking evicts the
// oldest events.
func (s *Store) SetLimit(n int) {
	n = clampLimit(n)

	s.mu.Lock()
	defer s.mu.Unlock()

	if n == len(s.ring) {
		return
	}
	newest := s.snapshotLocked()
	if len(newest) > n {
		newest = newest[:n]
	}
	ring := make([]domain.MintEvent, n)
	for i := range newest {
		ring[i] = newest[len(newest)-1-i]
	}
	s.ring = ring
	s.head = 0
	s.size = len(newest)
	s.metrics.SetStoreSize(s.size)

	s.logger.Info("Event buffer resized", zap.Int("limit", n), zap.Int("size", s.size))
}

// Subscribe registers a live listener. Only events pushed after the call
// are delivered.
func (s *Store) Subscribe() Subscription {
	return s.SubscribeBuffered(0)
}

// SubscribeBuffered is Subscribe with an explicit queue length.
func (s *Store) SubscribeBuffered(buffer int) Subscription {
	if buffer <= 0 {
		buffer = s.subBuffer
	}
	sub := &subscription{
		id:    uuid.New().String(),
		ch:    make(chan domain.MintEvent, buffer),
		store: s,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		sub.closeOnce.Do(func() { close(sub.ch) })
		return sub
	}
	s.subs[sub.id] = sub

	s.logger.Debug("Subscriber added", zap.String("subscription_id", sub.id))
	return sub
}

// unsubscribe removes a subscription and closes its channel.
func (s *Store) unsubscribe(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.id]; !ok {
		return
	}
	delete(s.subs, sub.id)
	sub.closeOnce.Do(func() { close(sub.ch) })

	s.logger.Debug("Subscriber removed", zap.String("subscription_id", sub.id))
}

// Close rejects further pushes and closes every subscriber channel.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for id, sub := range s.subs {
		sub.closeOnce.Do(func() { close(sub.ch) })
		delete(s.subs, id)
	}
	s.logger.Info("Event store closed", zap.Uint64("pushed", atomic.LoadUint64(&s.pushed)))
	return nil
}

// Stats returns statistics about the store.
func (s *Store) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"size":        s.size,
		"limit":       len(s.ring),
		"subscribers": len(s.subs),
		"pushed":      atomic.LoadUint64(&s.pushed),
		"dropped":     atomic.LoadUint64(&s.dropped),
	}
}
