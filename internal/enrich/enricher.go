// internal/enrich/enricher.go
package enrich

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
	"github.com/rovshanmuradov/mintwatch/internal/utils/metrics"
)

// Step names used in logs and the enrich_failures metric.
const (
	StepMintInfo = "mint_info"
	StepStats    = "stats"
)

// RouteChecker reports whether the mint is tradable on an aggregator.
type RouteChecker interface {
	HasRoute(ctx context.Context, mint string, slippageBps int) bool
}

// StatsProvider resolves market stats for a routed mint.
type StatsProvider interface {
	GetStats(ctx context.Context, mint string) *domain.Stats
}

// AuthorityClassifier labels an authority by its owning program.
type AuthorityClassifier interface {
	Classify(ctx context.Context, key *solana.PublicKey) domain.AuthorityOwnerInfo
}

// ActivitySource counts recent launchpad activity per mint.
type ActivitySource interface {
	Activity1m(mint string) int
}

// Config toggles optional steps.
type Config struct {
	ShowMintInfo bool
	CheckRoute   bool
	SlippageBps  int
}

// Deps are the collaborators of the enricher. Any of Route, Stats, Curve and
// Activity may be nil, which skips that step.
type Deps struct {
	Chain     AccountReader
	Authority AuthorityClassifier
	Route     RouteChecker
	Stats     StatsProvider
	Curve     *CurveEnricher
	Activity  ActivitySource
	Metrics   *metrics.Collector
}

// Enricher builds the Details of a freshly detected mint.
type Enricher struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger
}

// NewEnricher creates an enricher.
func NewEnricher(cfg Config, deps Deps, logger *zap.Logger) *Enricher {
	return &Enricher{
		cfg:    cfg,
		deps:   deps,
		logger: logger.Named("enricher"),
	}
}

// Enrich runs every enabled step and never fails: a step that errors only
// leaves its fields empty and the remaining steps still run.
func (e *Enricher) Enrich(ctx context.Context, mint solana.PublicKey) *domain.Details {
	d := &domain.Details{}
	log := e.logger.With(zap.String("mint", mint.String()))

	if e.cfg.ShowMintInfo {
		e.applyMintInfo(ctx, log, mint, d)
	}

	if e.cfg.CheckRoute && e.deps.Route != nil {
		routed := e.deps.Route.HasRoute(ctx, mint.String(), e.cfg.SlippageBps)
		d.HasRoute = &routed
	}

	if d.Routed() && e.deps.Stats != nil {
		if stats := e.deps.Stats.GetStats(ctx, mint.String()); stats != nil {
			d.Stats = stats
		} else {
			e.deps.Metrics.RecordEnrichFailure(StepStats)
		}
	}

	if e.deps.Curve != nil {
		e.deps.Curve.Apply(ctx, mint, d)
	}

	if e.deps.Activity != nil {
		d.Activity1m = e.deps.Activity.Activity1m(mint.String())
	}

	return d
}

// applyMintInfo fills decimals and authorities. A failed or missing account
// leaves them absent.
func (e *Enricher) applyMintInfo(ctx context.Context, log *zap.Logger, mint solana.PublicKey, d *domain.Details) {
	info, err := ReadMintInfo(ctx, e.deps.Chain, mint)
	if err != nil {
		e.fail(log, StepMintInfo, err)
		return
	}
	if info == nil {
		log.Debug("Mint account not found")
		e.deps.Metrics.RecordEnrichFailure(StepMintInfo)
		return
	}
	dec := info.Decimals
	d.Decimals = &dec
	d.MintAuthority = keyString(info.MintAuthority)
	d.FreezeAuthority = keyString(info.FreezeAuthority)

	if e.deps.Authority != nil {
		d.AuthorityOwner = e.classifyAuthorities(ctx, info)
	}
}

// classifyAuthorities resolves both authority owners concurrently.
func (e *Enricher) classifyAuthorities(ctx context.Context, info *MintInfo) *domain.AuthorityOwners {
	var owners domain.AuthorityOwners
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		owners.Mint = e.deps.Authority.Classify(gctx, info.MintAuthority)
		return nil
	})
	g.Go(func() error {
		owners.Freeze = e.deps.Authority.Classify(gctx, info.FreezeAuthority)
		return nil
	})
	_ = g.Wait()
	return &owners
}

func (e *Enricher) fail(log *zap.Logger, step string, err error) {
	e.deps.Metrics.RecordEnrichFailure(step)
	log.Debug("Enrichment step failed", zap.String("step", step), zap.Error(err))
}

func keyString(k *solana.PublicKey) *string {
	if k == nil {
		return nil
	}
	s := k.String()
	return &s
}
