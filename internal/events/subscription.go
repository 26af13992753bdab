// internal/events/subscription.go
package events

import (
	"sync"
	"sync/atomic"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

// Subscription represents a live listener on the store.
type Subscription interface {
	// ID is the unique subscription id.
	ID() string
	// C delivers events in push order; it is closed on Unsubscribe or
	// store Close.
	C() <-chan domain.MintEvent
	// Dropped counts events lost because the queue was full.
	Dropped() uint64
	// Unsubscribe removes the subscription. Safe to call more than once.
	Unsubscribe()
}

// subscription is the internal implementation of Subscription.
type subscription struct {
	id        string
	ch        chan domain.MintEvent
	store     *Store
	dropped   uint64
	closeOnce sync.Once
}

func (s *subscription) ID() string                 { return s.id }
func (s *subscription) C() <-chan domain.MintEvent { return s.ch }
func (s *subscription) Dropped() uint64            { return atomic.LoadUint64(&s.dropped) }

// Unsubscribe removes this subscription from the store.
func (s *subscription) Unsubscribe() {
	s.store.unsubscribe(s)
}
