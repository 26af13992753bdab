// internal/app/runner.go
package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/mintwatch/internal/api"
	"github.com/rovshanmuradov/mintwatch/internal/authority"
	"github.com/rovshanmuradov/mintwatch/internal/blockchain"
	"github.com/rovshanmuradov/mintwatch/internal/blockchain/solbc"
	"github.com/rovshanmuradov/mintwatch/internal/config"
	"github.com/rovshanmuradov/mintwatch/internal/curve"
	"github.com/rovshanmuradov/mintwatch/internal/enrich"
	"github.com/rovshanmuradov/mintwatch/internal/events"
	"github.com/rovshanmuradov/mintwatch/internal/launchpad"
	"github.com/rovshanmuradov/mintwatch/internal/market"
	"github.com/rovshanmuradov/mintwatch/internal/sink"
	"github.com/rovshanmuradov/mintwatch/internal/sink/journal"
	"github.com/rovshanmuradov/mintwatch/internal/sink/kafka"
	"github.com/rovshanmuradov/mintwatch/internal/stream"
	"github.com/rovshanmuradov/mintwatch/internal/utils/metrics"
	"github.com/rovshanmuradov/mintwatch/internal/watcher"
)

const (
	marketHTTPTimeout = 8 * time.Second
	txRetryDelay      = 400 * time.Millisecond
)

// Option настраивает Runner.
type Option func(*Runner)

// WithChain replaces the RPC client built from the config.
func WithChain(c blockchain.Client) Option {
	return func(r *Runner) { r.chain = c }
}

// WithListener serves the API on ln instead of cfg.HTTPAddr.
func WithListener(ln net.Listener) Option {
	return func(r *Runner) { r.listener = ln }
}

type namedSink struct {
	name    string
	emitter sink.Emitter
}

// Runner wires the ingestion pipeline, the store and its consumers.
type Runner struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Collector

	chain    blockchain.Client
	listener net.Listener

	store    *events.Store
	catalog  *launchpad.Catalog
	activity *launchpad.ActivityTracker
	manager  *watcher.Manager
	engine   *stream.Engine
	server   *api.Server
	sinks    []namedSink

	shutdown *ShutdownHandler
}

// NewRunner builds every component. Nothing connects until Run.
func NewRunner(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics.NewCollector(),
		shutdown: NewShutdownHandler(logger, DefaultShutdownTimeout),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.chain == nil {
		r.chain = solbc.NewClient(cfg.RPCHTTPURL, cfg.RPCWSURL, logger,
			solbc.WithRetries(uint(cfg.TxFetchRetries), txRetryDelay),
			solbc.WithMetrics(r.metrics))
	}

	r.store = events.NewStore(cfg.EventsBuffer, logger,
		events.WithSubscriberBuffer(cfg.SubscriberBuffer),
		events.WithMetrics(r.metrics))
	r.shutdown.Add("event store", r.store)

	entries := launchpad.ParseCatalog(cfg.Launchpads, logger)
	r.catalog = launchpad.NewCatalog(entries, nil, logger)
	r.activity = launchpad.NewActivityTracker(logger)

	httpClient := market.NewHTTPClient(marketHTTPTimeout)
	dex := market.NewDexScreener(cfg.DexScreenerURL, httpClient, r.metrics, logger)
	solPrice := market.NewSolPriceService(cfg.CoinGeckoURL, httpClient, dex, r.metrics, logger)

	enricher := enrich.NewEnricher(enrich.Config{
		ShowMintInfo: cfg.ShowMintInfo,
		CheckRoute:   cfg.CheckRoute,
		SlippageBps:  cfg.SlippageBps,
	}, enrich.Deps{
		Chain:     r.chain,
		Authority: authority.NewClassifier(r.chain, r.catalog, logger),
		Route:     market.NewRouteChecker(cfg.JupiterURL, httpClient, r.metrics, logger),
		Stats:     market.NewStatsService(dex, solPrice, logger),
		Curve:     enrich.NewCurveEnricher(curve.DefaultRegistry(entries, r.chain, logger), logger),
		Activity:  r.activity,
		Metrics:   r.metrics,
	}, logger)

	r.manager = watcher.NewManager(ctx, r.chain, enricher, r.store, r.activity, watcher.Config{
		DedupTTL:    cfg.DedupTTL,
		DedupSize:   cfg.DedupSize,
		MaxInFlight: int64(cfg.MaxInFlight),
	}, r.metrics, logger)
	r.catalog.SetSubscriber(r.manager)
	r.shutdown.Add("watchers", r.manager)
	r.shutdown.Add("launchpad catalog", r.catalog)

	if err := r.openSinks(); err != nil {
		_ = r.shutdown.Shutdown()
		return nil, err
	}

	r.engine = stream.NewEngine(r.store, cfg.SubscriberBuffer, logger)
	r.server = api.NewServer(cfg.HTTPAddr, r.engine, r.catalog, r.metrics, logger)
	return r, nil
}

func (r *Runner) openSinks() error {
	if r.cfg.JournalPath != "" {
		j, err := journal.New(r.cfg.JournalPath, r.cfg.JournalFormat, journal.DefaultFlushInterval, r.logger)
		if err != nil {
			return err
		}
		r.sinks = append(r.sinks, namedSink{"journal", j})
		r.shutdown.Add("journal", j)
	}
	if len(r.cfg.Kafka.Brokers) > 0 {
		k, err := kafka.New(r.cfg.Kafka.Brokers, r.cfg.Kafka.Topic, nil, r.logger)
		if err != nil {
			return err
		}
		r.sinks = append(r.sinks, namedSink{"kafka", k})
		r.shutdown.Add("kafka", k)
	}
	return nil
}

// Handler exposes the API handler.
func (r *Runner) Handler() http.Handler {
	return r.server.Handler()
}

// Store exposes the event store.
func (r *Runner) Store() *events.Store {
	return r.store
}

// Run starts ingestion and serving and blocks until ctx is done or a
// component fails. Everything is closed before it returns.
func (r *Runner) Run(ctx context.Context) error {
	defer func() {
		if err := r.shutdown.Shutdown(); err != nil {
			r.logger.Warn("Shutdown finished with errors", zap.Error(err))
		}
	}()

	// Синки подписываются до старта наблюдателей, иначе первые события
	// не попадут в журнал и Kafka.
	subs := make([]events.Subscription, len(r.sinks))
	for i := range r.sinks {
		subs[i] = r.store.SubscribeBuffered(r.cfg.SubscriberBuffer)
	}

	if err := r.manager.Start(); err != nil {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
		return fmt.Errorf("failed to start token watchers: %w", err)
	}
	if len(r.cfg.ActiveLaunchpads) > 0 {
		active := r.catalog.SetActive(r.cfg.ActiveLaunchpads)
		r.logger.Info("Launchpads activated", zap.Strings("active", active))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.activity.Run(gctx, r.cfg.ActivitySweep)
		return nil
	})
	for i, s := range r.sinks {
		sub, s := subs[i], s
		g.Go(func() error {
			sink.Run(gctx, sub, s.emitter, r.logger.Named(s.name))
			return nil
		})
	}
	g.Go(func() error {
		if r.listener != nil {
			return r.server.Serve(gctx, r.listener)
		}
		return r.server.ListenAndServe(gctx)
	})

	r.logger.Info("mintwatch started",
		zap.Strings("launchpads", r.catalog.Available()),
		zap.Bool("show_mint_info", r.cfg.ShowMintInfo),
		zap.Bool("check_route", r.cfg.CheckRoute))

	return g.Wait()
}
