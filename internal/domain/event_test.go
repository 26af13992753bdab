package domain

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMint(t *testing.T) {
	assert.NoError(t, ValidateMint(solana.TokenProgramID.String()))
	assert.ErrorIs(t, ValidateMint("not-base58-0OIl"), ErrInvalidMint)
	assert.ErrorIs(t, ValidateMint("abc"), ErrInvalidMint)
	assert.ErrorIs(t, ValidateMint(""), ErrInvalidMint)
}

func TestNewMintEvent(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	mint := solana.NewWallet().PublicKey().String()

	e, err := NewMintEvent(SourceToken2022, mint, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_000), e.Ts)
	assert.Equal(t, 2*time.Minute, e.Age(now.Add(2*time.Minute)))

	_, err = NewMintEvent(SourceSPLToken, "bogus", now)
	assert.ErrorIs(t, err, ErrInvalidMint)
}

func TestOwnerLabelsDefaultToNone(t *testing.T) {
	e := MintEvent{}
	assert.Equal(t, LabelNone, e.MintOwnerLabel())
	assert.Equal(t, LabelNone, e.FreezeOwnerLabel())

	e.Details = &Details{AuthorityOwner: &AuthorityOwners{
		Mint:   LaunchpadOwner("pumpfun", solana.SystemProgramID),
		Freeze: NoAccountOwner(),
	}}
	assert.Equal(t, LabelLaunchpad, e.MintOwnerLabel())
	assert.Equal(t, LabelNoAccount, e.FreezeOwnerLabel())
	assert.Equal(t, "pumpfun", e.LaunchpadTag())
}

func TestLaunchpadTagFallsBackToCurveTag(t *testing.T) {
	e := MintEvent{Details: &Details{CurveTag: "moonit"}}
	assert.Equal(t, "moonit", e.LaunchpadTag())
}

func TestDetailsCloneIsDeep(t *testing.T) {
	dec := uint8(6)
	routed := false
	d := &Details{
		Decimals:       &dec,
		HasRoute:       &routed,
		AuthorityOwner: &AuthorityOwners{Mint: NoneOwner()},
		Stats:          &Stats{Source: "dexscreener"},
	}
	c := d.Clone()
	*c.Decimals = 9
	*c.HasRoute = true
	c.AuthorityOwner.Mint = NoAccountOwner()
	c.Stats.Source = "curve:pumpfun"

	assert.Equal(t, uint8(6), *d.Decimals)
	assert.False(t, *d.HasRoute)
	assert.Equal(t, LabelNone, d.AuthorityOwner.Mint.Label)
	assert.Equal(t, "dexscreener", d.Stats.Source)
	assert.Nil(t, (*Details)(nil).Clone())
}

func TestTokenSource(t *testing.T) {
	s, ok := TokenSource(solana.Token2022ProgramID)
	assert.True(t, ok)
	assert.Equal(t, SourceToken2022, s)
	_, ok = TokenSource(solana.SystemProgramID)
	assert.False(t, ok)
}
