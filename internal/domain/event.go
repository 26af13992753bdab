// internal/domain/event.go
package domain

import (
	"errors"
	"time"

	"github.com/mr-tron/base58"
)

// Source values for the two fixed token programs. Launchpad watchers use the
// launchpad tag as source.
const (
	SourceSPLToken   = "spl-token"
	SourceToken2022  = "token-2022"
	mintKeyByteCount = 32
)

// ErrInvalidMint is returned when a mint string is not a 32-byte base58 key.
var ErrInvalidMint = errors.New("invalid mint address")

// MintEvent is a single detected mint creation. Once stored it is never
// mutated; the store and filters pass it by value.
type MintEvent struct {
	Source  string   `json:"source"`
	Mint    string   `json:"mint"`
	Ts      int64    `json:"ts"`
	Details *Details `json:"details,omitempty"`
	Stage   Stage    `json:"stage,omitempty"`
	// Seq is the store's push order, starting at 1. Zero until stored.
	Seq uint64 `json:"-"`
}

// NewMintEvent validates the mint and stamps the ingestion time.
func NewMintEvent(source, mint string, now time.Time) (MintEvent, error) {
	if err := ValidateMint(mint); err != nil {
		return MintEvent{}, err
	}
	return MintEvent{
		Source: source,
		Mint:   mint,
		Ts:     now.UnixMilli(),
	}, nil
}

// Time returns the ingestion timestamp.
func (e MintEvent) Time() time.Time {
	return time.UnixMilli(e.Ts)
}

// Age returns how long ago the event was ingested.
func (e MintEvent) Age(now time.Time) time.Duration {
	return now.Sub(e.Time())
}

// Decimals returns the decimals value if enrichment found one.
func (e MintEvent) Decimals() (int, bool) {
	if e.Details == nil || e.Details.Decimals == nil {
		return 0, false
	}
	return int(*e.Details.Decimals), true
}

// LaunchpadTag returns the tag from the mint authority owner, falling back to
// the curve tag.
func (e MintEvent) LaunchpadTag() string {
	if e.Details == nil {
		return ""
	}
	if ao := e.Details.AuthorityOwner; ao != nil && ao.Mint.Tag != "" {
		return ao.Mint.Tag
	}
	return e.Details.CurveTag
}

// MintOwnerLabel returns the mint authority owner label, "none" when missing.
func (e MintEvent) MintOwnerLabel() OwnerLabel {
	if e.Details == nil || e.Details.AuthorityOwner == nil || e.Details.AuthorityOwner.Mint.Label == "" {
		return LabelNone
	}
	return e.Details.AuthorityOwner.Mint.Label
}

// FreezeOwnerLabel returns the freeze authority owner label, "none" when missing.
func (e MintEvent) FreezeOwnerLabel() OwnerLabel {
	if e.Details == nil || e.Details.AuthorityOwner == nil || e.Details.AuthorityOwner.Freeze.Label == "" {
		return LabelNone
	}
	return e.Details.AuthorityOwner.Freeze.Label
}

// ValidateMint checks that s is a base58 encoding of exactly 32 bytes.
func ValidateMint(s string) error {
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != mintKeyByteCount {
		return ErrInvalidMint
	}
	return nil
}

// Details is the optional enrichment payload of an event.
type Details struct {
	Decimals        *uint8           `json:"decimals,omitempty"`
	MintAuthority   *string          `json:"mintAuthority"`
	FreezeAuthority *string          `json:"freezeAuthority"`
	AuthorityOwner  *AuthorityOwners `json:"authorityOwner,omitempty"`
	HasRoute        *bool            `json:"hasRoute,omitempty"`
	Activity1m      int              `json:"activity1m"`
	CurveTag        string           `json:"curveTag,omitempty"`
	Stats           *Stats           `json:"stats,omitempty"`
}

// Routed reports whether a market route was confirmed.
func (d *Details) Routed() bool {
	return d != nil && d.HasRoute != nil && *d.HasRoute
}

// Clone returns a deep copy so a stored event never shares mutable state
// with the enrichment path.
func (d *Details) Clone() *Details {
	if d == nil {
		return nil
	}
	out := *d
	if d.Decimals != nil {
		v := *d.Decimals
		out.Decimals = &v
	}
	if d.MintAuthority != nil {
		v := *d.MintAuthority
		out.MintAuthority = &v
	}
	if d.FreezeAuthority != nil {
		v := *d.FreezeAuthority
		out.FreezeAuthority = &v
	}
	if d.HasRoute != nil {
		v := *d.HasRoute
		out.HasRoute = &v
	}
	if d.AuthorityOwner != nil {
		ao := *d.AuthorityOwner
		out.AuthorityOwner = &ao
	}
	if d.Stats != nil {
		s := *d.Stats
		out.Stats = &s
	}
	return &out
}

// AuthorityOwners holds the owner classification of both authorities.
type AuthorityOwners struct {
	Mint   AuthorityOwnerInfo `json:"mint"`
	Freeze AuthorityOwnerInfo `json:"freeze"`
}

// Stats merges market-pair data and bonding-curve data. Source records who
// produced the values.
type Stats struct {
	DexID        string   `json:"dexId,omitempty"`
	PairAddress  string   `json:"pairAddress,omitempty"`
	PriceUsd     *float64 `json:"priceUsd,omitempty"`
	PriceSol     *float64 `json:"priceSol,omitempty"`
	LiquidityUsd *float64 `json:"liquidityUsd,omitempty"`
	Volume24h    *float64 `json:"volume24h,omitempty"`
	Fdv          *float64 `json:"fdv,omitempty"`
	MarketCap    *float64 `json:"marketCap,omitempty"`

	CurveProgressPct *float64 `json:"curveProgressPct,omitempty"`
	MarketCapSol     *float64 `json:"mcSol,omitempty"`
	Complete         *bool    `json:"complete,omitempty"`

	Source string `json:"source,omitempty"`
}

// MergeCurve copies curve values into s and records the provenance.
func (s *Stats) MergeCurve(cs CurveStats, source string) {
	progress, mc, complete := cs.CurveProgressPct, cs.MarketCapSol, cs.Complete
	s.CurveProgressPct = &progress
	s.MarketCapSol = &mc
	s.Complete = &complete
	s.Source = source
}

// CurveStats is a decoded bonding-curve snapshot. MarketCapSol is in SOL.
type CurveStats struct {
	CurveProgressPct float64 `json:"curveProgressPct"`
	MarketCapSol     float64 `json:"mcSol"`
	Complete         bool    `json:"complete"`
}
