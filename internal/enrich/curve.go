// internal/enrich/curve.go
package enrich

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/curve"
	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

// CurveEnricher attaches bonding-curve membership and stats to unrouted mints.
type CurveEnricher struct {
	registry *curve.Registry
	logger   *zap.Logger
}

// NewCurveEnricher creates a curve enricher over registry.
func NewCurveEnricher(registry *curve.Registry, logger *zap.Logger) *CurveEnricher {
	return &CurveEnricher{
		registry: registry,
		logger:   logger.Named("curve"),
	}
}

// Apply mutates d in place. Drivers are tried hint first; the first match
// wins. A hinted driver without detection is trusted.
func (c *CurveEnricher) Apply(ctx context.Context, mint solana.PublicKey, d *domain.Details) {
	if d == nil || d.Routed() || c.registry == nil {
		return
	}

	hint := d.CurveTag
	if d.AuthorityOwner != nil && d.AuthorityOwner.Mint.Tag != "" {
		hint = d.AuthorityOwner.Mint.Tag
	}

	for _, drv := range c.registry.Ordered(hint) {
		var matched bool
		if drv.CanDetect() {
			matched = drv.Detect(ctx, mint)
		} else {
			matched = hint != "" && drv.Name == hint
		}
		if !matched {
			continue
		}

		d.CurveTag = drv.Name
		if d.AuthorityOwner == nil {
			d.AuthorityOwner = &domain.AuthorityOwners{Freeze: domain.NoneOwner()}
		}
		if d.AuthorityOwner.Mint.IsZero() {
			d.AuthorityOwner.Mint = domain.LaunchpadOwner(drv.Name, drv.ProgramID)
		}

		if drv.CanReadStats() {
			if cs := drv.ReadStats(ctx, mint); cs != nil {
				if d.Stats == nil {
					d.Stats = &domain.Stats{}
				}
				d.Stats.MergeCurve(*cs, "curve:"+drv.Name)
			}
		}

		c.logger.Debug("Curve matched",
			zap.String("mint", mint.String()),
			zap.String("driver", drv.Name))
		return
	}
}
