// internal/watcher/manager.go
package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/rovshanmuradov/mintwatch/internal/blockchain"
	"github.com/rovshanmuradov/mintwatch/internal/domain"
	"github.com/rovshanmuradov/mintwatch/internal/launchpad"
	"github.com/rovshanmuradov/mintwatch/internal/utils/metrics"
)

// ErrManagerClosed is returned by Watch after Close.
var ErrManagerClosed = errors.New("watcher manager is closed")

// Enricher builds event details for a detected mint.
type Enricher interface {
	Enrich(ctx context.Context, mint solana.PublicKey) *domain.Details
}

// EventSink receives finished events.
type EventSink interface {
	Push(e domain.MintEvent) error
}

// ActivityRecorder counts launchpad activity per mint.
type ActivityRecorder interface {
	RecordActivity(mint string)
}

// Config управляет поведением наблюдателей.
type Config struct {
	// DedupTTL is how long a processed signature is remembered.
	DedupTTL time.Duration
	// DedupSize bounds how many signatures are remembered.
	DedupSize int
	// MaxInFlight bounds concurrent transaction processing.
	MaxInFlight int64
	// JobTimeout bounds the processing of one notification.
	JobTimeout time.Duration
	// ReconnectMin and ReconnectMax bound the resubscribe backoff.
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

func (c Config) withDefaults() Config {
	if c.DedupTTL <= 0 {
		c.DedupTTL = 10 * time.Minute
	}
	if c.DedupSize <= 0 {
		c.DedupSize = 100_000
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 64
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 30 * time.Second
	}
	if c.ReconnectMin <= 0 {
		c.ReconnectMin = 500 * time.Millisecond
	}
	if c.ReconnectMax <= 0 {
		c.ReconnectMax = 30 * time.Second
	}
	return c
}

// Manager owns every program-log watcher. The two token-program watchers run
// for the manager's lifetime; launchpad watchers are started and stopped by
// the catalog through Watch.
type Manager struct {
	chain    blockchain.Client
	enricher Enricher
	sink     EventSink
	activity ActivityRecorder
	cfg      Config
	seen     *signatureSet
	slots    *semaphore.Weighted
	metrics  *metrics.Collector
	logger   *zap.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	watchers map[*watcher]struct{}
	closed   bool
}

// NewManager creates a manager bound to parent. Nothing runs until Start.
func NewManager(
	parent context.Context,
	chain blockchain.Client,
	enricher Enricher,
	sink EventSink,
	activity ActivityRecorder,
	cfg Config,
	m *metrics.Collector,
	logger *zap.Logger,
) *Manager {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(parent)
	return &Manager{
		chain:    chain,
		enricher: enricher,
		sink:     sink,
		activity: activity,
		cfg:      cfg,
		seen:     newSignatureSet(cfg.DedupSize, cfg.DedupTTL),
		slots:    semaphore.NewWeighted(cfg.MaxInFlight),
		metrics:  m,
		logger:   logger.Named("watcher"),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		watchers: make(map[*watcher]struct{}),
	}
}

// Start launches the permanent spl-token and token-2022 watchers.
func (m *Manager) Start() error {
	for _, p := range []struct {
		source  string
		program solana.PublicKey
	}{
		{domain.SourceSPLToken, domain.TokenProgramID},
		{domain.SourceToken2022, domain.Token2022ProgramID},
	} {
		if _, err := m.start(p.source, p.program, false); err != nil {
			return err
		}
	}
	return nil
}

// Watch starts a launchpad watcher. It implements launchpad.Subscriber.
func (m *Manager) Watch(lp domain.Launchpad) (launchpad.Handle, error) {
	return m.start(lp.Name, lp.ProgramID, true)
}

func (m *Manager) start(name string, program solana.PublicKey, trackActivity bool) (*watcher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}

	ctx, cancel := context.WithCancel(m.ctx)
	w := &watcher{
		name:          name,
		program:       program,
		trackActivity: trackActivity,
		cancel:        cancel,
		done:          make(chan struct{}),
		manager:       m,
	}
	m.watchers[w] = struct{}{}
	m.metrics.AddActiveWatchers(1)

	go w.run(ctx)

	m.logger.Info("Watcher started",
		zap.String("watcher", name),
		zap.String("program", program.String()),
		zap.Bool("track_activity", trackActivity))
	return w, nil
}

func (m *Manager) remove(w *watcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.watchers[w]; ok {
		delete(m.watchers, w)
		m.metrics.AddActiveWatchers(-1)
	}
}

// Active returns the names of running watchers.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.watchers))
	for w := range m.watchers {
		out = append(out, w.name)
	}
	return out
}

// Close stops every watcher and waits for in-flight notifications.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	watchers := make([]*watcher, 0, len(m.watchers))
	for w := range m.watchers {
		watchers = append(watchers, w)
	}
	m.mu.Unlock()

	m.cancel()
	for _, w := range watchers {
		<-w.done
	}
	m.wg.Wait()

	m.logger.Info("All watchers stopped")
	return nil
}

// reconnectPolicy returns the resubscribe backoff.
func (m *Manager) reconnectPolicy() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.cfg.ReconnectMin
	policy.MaxInterval = m.cfg.ReconnectMax
	return policy
}
