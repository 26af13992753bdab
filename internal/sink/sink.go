// internal/sink/sink.go
package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
	"github.com/rovshanmuradov/mintwatch/internal/events"
)

// Emitter writes one event to an external destination.
type Emitter interface {
	Emit(ctx context.Context, e domain.MintEvent) error
}

// Run forwards every event of sub to emit until ctx is done or the store
// closes, then unsubscribes. The caller subscribes so that events pushed
// before Run is scheduled are not lost. Emit errors are logged and the event
// is skipped.
func Run(ctx context.Context, sub events.Subscription, emit Emitter, logger *zap.Logger) {
	defer sub.Unsubscribe()

	var sent, failed uint64
	defer func() {
		logger.Info("Sink stopped",
			zap.Uint64("sent", sent),
			zap.Uint64("failed", failed),
			zap.Uint64("dropped", sub.Dropped()))
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}
			if err := emit.Emit(ctx, e); err != nil {
				failed++
				logger.Warn("Failed to emit event", zap.String("mint", e.Mint), zap.Error(err))
				continue
			}
			sent++
		}
	}
}
