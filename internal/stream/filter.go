// internal/stream/filter.go
package stream

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
	"github.com/rovshanmuradov/mintwatch/internal/stage"
)

// Query shorthands accepted in place of a lifecycle stage.
const (
	// StagePumpFun keeps mints still on the pump.fun curve.
	StagePumpFun = "pumpfun"
	// StagePostMigration keeps mints whose mint and freeze authorities are
	// both renounced.
	StagePostMigration = "post-migration"
)

// Filter is a conjunction of optional predicates. A zero Filter matches
// every event.
type Filter struct {
	Tags        []string
	Stage       domain.Stage
	Sources     []string
	MinDec      *int
	MaxDec      *int
	OwnerMint   []domain.OwnerLabel
	OwnerFreeze []domain.OwnerLabel
	// CurveOf keeps in-curve mints of the named launchpad.
	CurveOf string
	// Renounced keeps mints with known, renounced mint and freeze
	// authorities.
	Renounced bool
}

// Match evaluates every set predicate against e.
func (f Filter) Match(e domain.MintEvent) bool {
	if len(f.Tags) > 0 && !f.matchTag(e) {
		return false
	}
	if f.Stage != domain.StageUndefined && e.Stage != f.Stage {
		return false
	}
	if len(f.Sources) > 0 && !contains(f.Sources, e.Source) {
		return false
	}
	if f.CurveOf != "" && !inCurveOf(e.Details, f.CurveOf) {
		return false
	}
	if f.Renounced && !renounced(e.Details) {
		return false
	}
	if f.MinDec != nil || f.MaxDec != nil {
		dec, ok := e.Decimals()
		if !ok {
			return false
		}
		if f.MinDec != nil && dec < *f.MinDec {
			return false
		}
		if f.MaxDec != nil && dec > *f.MaxDec {
			return false
		}
	}
	if len(f.OwnerMint) > 0 && !containsLabel(f.OwnerMint, e.MintOwnerLabel()) {
		return false
	}
	if len(f.OwnerFreeze) > 0 && !containsLabel(f.OwnerFreeze, e.FreezeOwnerLabel()) {
		return false
	}
	return true
}

func (f Filter) matchTag(e domain.MintEvent) bool {
	if e.Details == nil {
		return false
	}
	if ao := e.Details.AuthorityOwner; ao != nil && ao.Mint.Tag != "" && contains(f.Tags, ao.Mint.Tag) {
		return true
	}
	return e.Details.CurveTag != "" && contains(f.Tags, e.Details.CurveTag)
}

// inCurveOf accepts the catalog tag or the tag of the curve driver that
// detected the mint; catalog names are operator-chosen.
func inCurveOf(d *domain.Details, tag string) bool {
	return stage.InCurve(d) && (d.AuthorityOwner.Mint.Tag == tag || d.CurveTag == tag)
}

// renounced needs the mint account to have been read; absent authorities on
// a failed lookup are unknown, not renounced.
func renounced(d *domain.Details) bool {
	return d != nil && d.Decimals != nil && d.MintAuthority == nil && d.FreezeAuthority == nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsLabel(set []domain.OwnerLabel, v domain.OwnerLabel) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ParseFilter reads the filter from query parameters: tags, stage, source,
// minDec, maxDec, ownerMint, ownerFreeze. List values are comma separated
// and lowercased. stage also accepts StagePumpFun and StagePostMigration.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{
		Tags:    parseCSV(q.Get("tags")),
		Sources: parseCSV(q.Get("source")),
	}
	switch st := strings.TrimSpace(q.Get("stage")); st {
	case StagePumpFun:
		f.CurveOf = StagePumpFun
	case StagePostMigration:
		f.Renounced = true
	default:
		f.Stage = domain.Stage(st)
	}
	for _, l := range parseCSV(q.Get("ownerMint")) {
		f.OwnerMint = append(f.OwnerMint, domain.OwnerLabel(l))
	}
	for _, l := range parseCSV(q.Get("ownerFreeze")) {
		f.OwnerFreeze = append(f.OwnerFreeze, domain.OwnerLabel(l))
	}

	var err error
	if f.MinDec, err = parseOptionalInt(q, "minDec"); err != nil {
		return Filter{}, err
	}
	if f.MaxDec, err = parseOptionalInt(q, "maxDec"); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func parseCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseOptionalInt(q url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &v, nil
}
