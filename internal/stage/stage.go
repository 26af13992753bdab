// internal/stage/stage.go
package stage

import (
	"time"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

// Thresholds of the lifecycle rules.
const (
	SurgeActivity   = 30
	NewCreationAge  = 3 * time.Minute
	AlmostBondedAge = 20 * time.Minute
)

// Compute maps an event to its lifecycle stage at time now. Rules are
// evaluated in order and the first match wins.
func Compute(e domain.MintEvent, now time.Time) domain.Stage {
	d := e.Details
	if d == nil {
		return domain.StageUndefined
	}
	if d.Routed() {
		return domain.StageMigrated
	}
	if !InCurve(d) {
		return domain.StageUndefined
	}
	if d.Activity1m >= SurgeActivity {
		return domain.StageSurge
	}
	age := e.Age(now)
	switch {
	case age < NewCreationAge:
		return domain.StageNewCreation
	case age >= AlmostBondedAge:
		return domain.StageAlmostBonded
	default:
		return domain.StagePump
	}
}

// InCurve reports curve membership: launchpad-owned mint authority and a
// renounced freeze authority.
func InCurve(d *domain.Details) bool {
	if d == nil || d.AuthorityOwner == nil {
		return false
	}
	return d.AuthorityOwner.Mint.Label == domain.LabelLaunchpad && d.FreezeAuthority == nil
}

// Recompute returns a copy of e with the stage evaluated at now. Stored
// events keep their ingestion-time stage; read paths may opt into this.
func Recompute(e domain.MintEvent, now time.Time) domain.MintEvent {
	e.Stage = Compute(e, now)
	return e
}
