// internal/watcher/watcher.go
package watcher

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/blockchain"
	"github.com/rovshanmuradov/mintwatch/internal/domain"
	"github.com/rovshanmuradov/mintwatch/internal/extractor"
	"github.com/rovshanmuradov/mintwatch/internal/stage"
)

// Notification outcomes recorded in metrics.
const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
	outcomeIgnored   = "ignored"
	outcomeFailedTx  = "failed_tx"
	outcomeActivity  = "activity"
)

var initializeMintMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Instruction:\s*InitializeMint`),
	regexp.MustCompile(`(?i)InitializeMint2`),
}

// IsInitializeMintLog reports whether any log line marks a mint initialization.
func IsInitializeMintLog(logs []string) bool {
	for _, l := range logs {
		for _, re := range initializeMintMarkers {
			if re.MatchString(l) {
				return true
			}
		}
	}
	return false
}

// watcher follows the logs of one program.
type watcher struct {
	name          string
	program       solana.PublicKey
	trackActivity bool
	cancel        context.CancelFunc
	done          chan struct{}
	manager       *Manager
}

// Stop cancels the subscription and waits for the receive loop to exit.
// In-flight notifications finish on the manager's context.
func (w *watcher) Stop() {
	w.cancel()
	<-w.done
}

// run keeps the subscription alive until ctx is cancelled.
func (w *watcher) run(ctx context.Context) {
	m := w.manager
	log := m.logger.With(zap.String("watcher", w.name))
	defer close(w.done)
	defer m.remove(w)

	policy := m.reconnectPolicy()
	for {
		stream, err := m.chain.SubscribeLogs(ctx, w.program)
		if err == nil {
			policy.Reset()
			err = w.consume(ctx, stream)
			stream.Close()
		}
		if ctx.Err() != nil {
			log.Debug("Watcher stopped")
			return
		}

		delay := policy.NextBackOff()
		log.Warn("Log subscription lost, reconnecting",
			zap.Error(err),
			zap.Duration("retry_in", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// consume reads notifications until the stream fails or ctx is done.
func (w *watcher) consume(ctx context.Context, stream blockchain.LogStream) error {
	for {
		n, err := stream.Recv(ctx)
		if err != nil {
			return err
		}
		if n == nil {
			return blockchain.ErrStreamClosed
		}
		w.handle(n)
	}
}

// handle decides what a notification needs and hands the work to a
// goroutine so the receive loop never blocks on RPC calls.
func (w *watcher) handle(n *blockchain.LogNotification) {
	m := w.manager

	// Упавшая транзакция не создает минт, но на лаунчпаде это все равно
	// активность по токену.
	if n.Failed {
		m.metrics.RecordNotification(w.name, outcomeFailedTx)
		if w.trackActivity {
			w.spawn(n.Signature, false)
		}
		return
	}

	detect := false
	if IsInitializeMintLog(n.Logs) {
		if m.seen.MarkIfNew(n.Signature) {
			detect = true
		} else {
			m.metrics.RecordNotification(w.name, outcomeDuplicate)
		}
	}

	if !detect && !w.trackActivity {
		m.metrics.RecordNotification(w.name, outcomeIgnored)
		return
	}
	if detect {
		m.metrics.RecordNotification(w.name, outcomeAccepted)
	} else {
		m.metrics.RecordNotification(w.name, outcomeActivity)
	}
	w.spawn(n.Signature, detect)
}

func (w *watcher) spawn(sig solana.Signature, detect bool) {
	m := w.manager
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		w.process(sig, detect)
	}()
}

func (w *watcher) process(sig solana.Signature, detect bool) {
	m := w.manager
	log := m.logger.With(zap.String("watcher", w.name), zap.String("signature", sig.String()))

	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.JobTimeout)
	defer cancel()

	if err := m.slots.Acquire(ctx, 1); err != nil {
		return
	}
	defer m.slots.Release(1)

	tx, err := m.chain.GetConfirmedTransaction(ctx, sig)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Debug("Transaction fetch failed", zap.Error(err))
		}
		return
	}
	if tx == nil {
		log.Debug("Transaction not found")
		return
	}

	if w.trackActivity && m.activity != nil {
		extractor.ForEachTokenInstruction(tx, func(_, first solana.PublicKey) {
			m.activity.RecordActivity(first.String())
		})
	}

	if !detect {
		return
	}
	for _, mint := range extractor.ExtractMints(tx) {
		w.emit(ctx, mint, log)
	}
}

// emit enriches one mint and pushes the finished event.
func (w *watcher) emit(ctx context.Context, mint solana.PublicKey, log *zap.Logger) {
	m := w.manager

	e, err := domain.NewMintEvent(w.name, mint.String(), m.now())
	if err != nil {
		log.Debug("Invalid mint", zap.String("mint", mint.String()), zap.Error(err))
		return
	}
	if m.enricher != nil {
		e.Details = m.enricher.Enrich(ctx, mint)
	}
	e.Stage = stage.Compute(e, m.now())

	if err := m.sink.Push(e); err != nil {
		log.Debug("Event dropped", zap.String("mint", e.Mint), zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("source", e.Source),
		zap.String("mint", e.Mint),
	}
	if e.Stage != domain.StageUndefined {
		fields = append(fields, zap.String("stage", string(e.Stage)))
	}
	if d := e.Details; d != nil {
		if d.Decimals != nil {
			fields = append(fields, zap.Uint8("decimals", *d.Decimals))
		}
		fields = append(fields,
			zap.Bool("freeze_authority", d.FreezeAuthority != nil),
			zap.Bool("mint_authority", d.MintAuthority != nil))
		if tag := e.LaunchpadTag(); tag != "" {
			fields = append(fields, zap.String("launchpad", tag))
		}
	}
	m.logger.Info("Mint detected", fields...)
}
