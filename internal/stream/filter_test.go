package stream

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

func u8(v uint8) *uint8 { return &v }
func intp(v int) *int   { return &v }

func launchpadEvent(tag string, dec uint8) domain.MintEvent {
	return domain.MintEvent{
		Source: domain.SourceSPLToken,
		Mint:   "M",
		Stage:  domain.StagePump,
		Details: &domain.Details{
			Decimals: u8(dec),
			AuthorityOwner: &domain.AuthorityOwners{
				Mint:   domain.AuthorityOwnerInfo{Label: domain.LabelLaunchpad, Tag: tag},
				Freeze: domain.NoneOwner(),
			},
		},
	}
}

func TestZeroFilterMatchesEverything(t *testing.T) {
	assert.True(t, Filter{}.Match(domain.MintEvent{Mint: "x"}))
	assert.True(t, Filter{}.Match(launchpadEvent("pump", 6)))
}

func TestTagMatchesAuthorityTagOrCurveTag(t *testing.T) {
	f := Filter{Tags: []string{"pump"}}
	assert.True(t, f.Match(launchpadEvent("pump", 6)))
	assert.False(t, f.Match(launchpadEvent("moonit", 6)))

	curveOnly := domain.MintEvent{Details: &domain.Details{CurveTag: "pump"}}
	assert.True(t, f.Match(curveOnly))
	assert.False(t, f.Match(domain.MintEvent{}))
}

func TestDecimalBoundsAreInclusive(t *testing.T) {
	f := Filter{MinDec: intp(6), MaxDec: intp(9)}
	assert.True(t, f.Match(launchpadEvent("pump", 6)))
	assert.True(t, f.Match(launchpadEvent("pump", 9)))
	assert.False(t, f.Match(launchpadEvent("pump", 5)))
	assert.False(t, f.Match(launchpadEvent("pump", 10)))

	// Unknown decimals never satisfy a bound.
	assert.False(t, f.Match(domain.MintEvent{Mint: "x"}))
}

func TestStageSourceAndOwnerPredicates(t *testing.T) {
	e := launchpadEvent("pump", 6)

	assert.True(t, Filter{Stage: domain.StagePump}.Match(e))
	assert.False(t, Filter{Stage: domain.StageSurge}.Match(e))

	assert.True(t, Filter{Sources: []string{domain.SourceSPLToken}}.Match(e))
	assert.False(t, Filter{Sources: []string{domain.SourceToken2022}}.Match(e))

	assert.True(t, Filter{OwnerMint: []domain.OwnerLabel{domain.LabelLaunchpad}}.Match(e))
	assert.False(t, Filter{OwnerMint: []domain.OwnerLabel{domain.LabelSystem}}.Match(e))
	assert.True(t, Filter{OwnerFreeze: []domain.OwnerLabel{domain.LabelNone}}.Match(e))

	// Events without details report "none" for both owners.
	assert.True(t, Filter{OwnerFreeze: []domain.OwnerLabel{domain.LabelNone}}.Match(domain.MintEvent{}))
}

func TestParseFilter(t *testing.T) {
	q, err := url.ParseQuery("tags=Pump,%20moonit&stage=almostBonded&source=token-2022&minDec=6&maxDec=9&ownerMint=launchpad,system&ownerFreeze=none")
	require.NoError(t, err)

	f, err := ParseFilter(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"pump", "moonit"}, f.Tags)
	assert.Equal(t, domain.StageAlmostBonded, f.Stage)
	assert.Equal(t, []string{"token-2022"}, f.Sources)
	assert.Equal(t, 6, *f.MinDec)
	assert.Equal(t, 9, *f.MaxDec)
	assert.Equal(t, []domain.OwnerLabel{domain.LabelLaunchpad, domain.LabelSystem}, f.OwnerMint)
	assert.Equal(t, []domain.OwnerLabel{domain.LabelNone}, f.OwnerFreeze)

	empty, err := ParseFilter(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, empty.MinDec)
	assert.Empty(t, empty.Tags)

	_, err = ParseFilter(url.Values{"minDec": {"six"}})
	assert.Error(t, err)
}

func TestStageShorthands(t *testing.T) {
	q, err := url.ParseQuery("stage=pumpfun")
	require.NoError(t, err)
	f, err := ParseFilter(q)
	require.NoError(t, err)
	assert.Equal(t, domain.StageUndefined, f.Stage)
	assert.Equal(t, "pumpfun", f.CurveOf)

	assert.True(t, f.Match(launchpadEvent("pumpfun", 6)))
	assert.False(t, f.Match(launchpadEvent("moonit", 6)))
	// Catalog entry named "pump", detected by the pump.fun curve driver.
	detected := launchpadEvent("pump", 6)
	detected.Details.CurveTag = "pumpfun"
	assert.True(t, f.Match(detected))
	frozen := launchpadEvent("pumpfun", 6)
	frozen.Details.FreezeAuthority = new(string)
	assert.False(t, f.Match(frozen))

	f, err = ParseFilter(url.Values{"stage": {"post-migration"}})
	require.NoError(t, err)
	assert.True(t, f.Renounced)

	auth := "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	assert.True(t, f.Match(domain.MintEvent{Details: &domain.Details{Decimals: u8(6)}}))
	assert.False(t, f.Match(domain.MintEvent{Details: &domain.Details{Decimals: u8(6), MintAuthority: &auth}}))
	assert.False(t, f.Match(domain.MintEvent{Details: &domain.Details{Decimals: u8(6), FreezeAuthority: &auth}}))
	// Unread mint info says nothing about the authorities.
	assert.False(t, f.Match(domain.MintEvent{Details: &domain.Details{}}))
	assert.False(t, f.Match(domain.MintEvent{}))
}
