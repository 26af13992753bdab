// internal/curve/driver.go
package curve

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/blockchain"
	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

// AccountReader is the chain capability drivers need.
type AccountReader interface {
	GetAccount(ctx context.Context, key solana.PublicKey) (*blockchain.Account, error)
}

// Driver describes how to recognise and read a launchpad's bonding curve.
// Detect and ReadStats are optional; a driver with neither only provides a
// tag. Both must absorb their own errors and return a negative result.
type Driver struct {
	Name      string
	ProgramID solana.PublicKey
	Detect    func(ctx context.Context, mint solana.PublicKey) bool
	ReadStats func(ctx context.Context, mint solana.PublicKey) *domain.CurveStats
}

// CanDetect reports whether the driver has a detect capability.
func (d Driver) CanDetect() bool { return d.Detect != nil }

// CanReadStats reports whether the driver has a stats capability.
func (d Driver) CanReadStats() bool { return d.ReadStats != nil }

// TagOnly builds a driver without detection or decoding.
func TagOnly(name string, programID solana.PublicKey) Driver {
	return Driver{Name: name, ProgramID: programID}
}

// Registry is an ordered set of drivers. Order is the tie-break when several
// drivers could match.
type Registry struct {
	drivers []Driver
}

// NewRegistry keeps drivers in the given order.
func NewRegistry(drivers ...Driver) *Registry {
	return &Registry{drivers: append([]Driver(nil), drivers...)}
}

// Drivers returns the drivers in registry order.
func (r *Registry) Drivers() []Driver {
	return append([]Driver(nil), r.drivers...)
}

// Get returns the first driver with name.
func (r *Registry) Get(name string) (Driver, bool) {
	for _, d := range r.drivers {
		if d.Name == name {
			return d, true
		}
	}
	return Driver{}, false
}

// Ordered returns the drivers with the hinted one moved to the front.
func (r *Registry) Ordered(hint string) []Driver {
	out := make([]Driver, 0, len(r.drivers))
	hinted := -1
	if hint != "" {
		for i, d := range r.drivers {
			if d.Name == hint {
				hinted = i
				out = append(out, d)
				break
			}
		}
	}
	for i, d := range r.drivers {
		if i != hinted {
			out = append(out, d)
		}
	}
	return out
}

// DefaultRegistry registers the pump.fun driver first, then a tag-only
// driver for every other catalog entry. When the catalog lists the pump.fun
// program under its own name, the driver takes that name so authority tags
// and curve tags agree.
func DefaultRegistry(entries []domain.Launchpad, chain AccountReader, logger *zap.Logger) *Registry {
	pump := NewPumpFunDriver(chain, logger)
	for _, e := range entries {
		if e.ProgramID.Equals(pump.ProgramID) {
			pump.Name = e.Name
			break
		}
	}
	drivers := []Driver{pump}
	seen := map[string]struct{}{pump.Name: {}}
	for _, e := range entries {
		if e.ProgramID.Equals(pump.ProgramID) {
			continue
		}
		if _, dup := seen[e.Name]; dup {
			continue
		}
		seen[e.Name] = struct{}{}
		drivers = append(drivers, TagOnly(e.Name, e.ProgramID))
	}
	return NewRegistry(drivers...)
}
