// internal/stream/engine.go
package stream

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
	"github.com/rovshanmuradov/mintwatch/internal/events"
	"github.com/rovshanmuradov/mintwatch/internal/stage"
)

// Paging bounds for Query.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// EventSource is the part of the event store the engine reads.
type EventSource interface {
	Snapshot() []domain.MintEvent
	SubscribeBuffered(buffer int) events.Subscription
}

// Engine merges replayed history with live events and applies filters.
type Engine struct {
	source EventSource
	buffer int
	now    func() time.Time
	logger *zap.Logger
}

// NewEngine creates an engine over source. buffer is the live queue length
// per stream (0 uses the store default).
func NewEngine(source EventSource, buffer int, logger *zap.Logger) *Engine {
	return &Engine{
		source: source,
		buffer: buffer,
		now:    time.Now,
		logger: logger.Named("stream"),
	}
}

// Stream emits up to replay matching buffered events (newest first), then
// matching live events in arrival order. The channel is closed when ctx is
// done or the store closes.
func (e *Engine) Stream(ctx context.Context, f Filter, replay int) <-chan domain.MintEvent {
	// Subscribe before the snapshot so nothing pushed in between is lost.
	// Live events already covered by the snapshot are skipped by sequence.
	sub := e.source.SubscribeBuffered(e.buffer)

	var (
		history []domain.MintEvent
		covered uint64
	)
	if replay > 0 {
		snap := e.source.Snapshot()
		if len(snap) > 0 {
			covered = snap[0].Seq
		}
		for _, ev := range snap {
			if len(history) == replay {
				break
			}
			if f.Match(ev) {
				history = append(history, ev)
			}
		}
	}

	out := make(chan domain.MintEvent)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()

		for _, ev := range history {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.C():
				if !ok {
					return
				}
				if ev.Seq != 0 && ev.Seq <= covered {
					continue
				}
				if !f.Match(ev) {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	e.logger.Debug("Stream opened",
		zap.String("subscription_id", sub.ID()),
		zap.Int("replay", len(history)))
	return out
}

// PageRequest selects a page of the filtered snapshot.
type PageRequest struct {
	Offset int
	Limit  int
	// LiveStage re-evaluates each event's stage at query time instead of
	// using the stage frozen at ingestion.
	LiveStage bool
}

// Page is a slice of the filtered snapshot plus the unpaged total.
type Page struct {
	Total  int                `json:"total"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
	Items  []domain.MintEvent `json:"items"`
}

// Query filters the current snapshot (newest first) and returns one page.
func (e *Engine) Query(f Filter, req PageRequest) Page {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	now := e.now()
	items := make([]domain.MintEvent, 0)
	total := 0
	for _, ev := range e.source.Snapshot() {
		if req.LiveStage {
			ev = stage.Recompute(ev, now)
		}
		if !f.Match(ev) {
			continue
		}
		if total >= offset && len(items) < limit {
			items = append(items, ev)
		}
		total++
	}
	return Page{Total: total, Offset: offset, Limit: limit, Items: items}
}
