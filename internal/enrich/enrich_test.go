package enrich

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/blockchain"
	"github.com/rovshanmuradov/mintwatch/internal/curve"
	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

type fakeChain struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*blockchain.Account
	err      error
}

func (f *fakeChain) GetAccount(_ context.Context, key solana.PublicKey) (*blockchain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.accounts[key], nil
}

type stubClassifier struct{ info domain.AuthorityOwnerInfo }

func (s stubClassifier) Classify(_ context.Context, key *solana.PublicKey) domain.AuthorityOwnerInfo {
	if key == nil {
		return domain.NoneOwner()
	}
	return s.info
}

type stubRoute bool

func (r stubRoute) HasRoute(context.Context, string, int) bool { return bool(r) }

type stubStats struct{ stats *domain.Stats }

func (s stubStats) GetStats(context.Context, string) *domain.Stats { return s.stats }

type stubActivity int

func (a stubActivity) Activity1m(string) int { return int(a) }

func encodeMint(t *testing.T, m token.Mint, extra int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, m.MarshalWithEncoder(bin.NewBinEncoder(&buf)))
	require.Equal(t, mintAccountSize, buf.Len())
	buf.Write(make([]byte, extra))
	return buf.Bytes()
}

func TestDecodeMint(t *testing.T) {
	auth := solana.NewWallet().PublicKey()
	data := encodeMint(t, token.Mint{MintAuthority: &auth, Supply: 1000, Decimals: 6, IsInitialized: true}, 0)

	info, err := DecodeMint(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), info.Decimals)
	assert.Equal(t, uint64(1000), info.Supply)
	require.NotNil(t, info.MintAuthority)
	assert.Equal(t, auth, *info.MintAuthority)
	assert.Nil(t, info.FreezeAuthority)

	_, err = DecodeMint(data[:40])
	assert.Error(t, err)
}

func TestReadMintInfoOwners(t *testing.T) {
	t22 := solana.NewWallet().PublicKey()
	spl := solana.NewWallet().PublicKey()
	foreign := solana.NewWallet().PublicKey()
	data := encodeMint(t, token.Mint{Decimals: 9, IsInitialized: true}, 0)

	chain := &fakeChain{accounts: map[solana.PublicKey]*blockchain.Account{
		// token-2022 mints carry extension bytes after the base layout
		t22:     {Owner: domain.Token2022ProgramID, Data: append(append([]byte{}, data...), make([]byte, 90)...)},
		spl:     {Owner: domain.TokenProgramID, Data: data},
		foreign: {Owner: solana.SystemProgramID, Data: data},
	}}
	ctx := context.Background()

	info, err := ReadMintInfo(ctx, chain, t22)
	require.NoError(t, err)
	assert.Equal(t, domain.Token2022ProgramID, info.Program)

	info, err = ReadMintInfo(ctx, chain, spl)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenProgramID, info.Program)

	info, err = ReadMintInfo(ctx, chain, foreign)
	require.NoError(t, err)
	assert.Nil(t, info)

	info, err = ReadMintInfo(ctx, chain, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestEnrichFullPipeline(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	auth := solana.NewWallet().PublicKey()
	chain := &fakeChain{accounts: map[solana.PublicKey]*blockchain.Account{
		mint: {Owner: domain.TokenProgramID, Data: encodeMint(t, token.Mint{MintAuthority: &auth, Decimals: 6, IsInitialized: true}, 0)},
	}}
	price := 0.25
	e := NewEnricher(Config{ShowMintInfo: true, CheckRoute: true, SlippageBps: 200}, Deps{
		Chain:     chain,
		Authority: stubClassifier{info: domain.AuthorityOwnerInfo{Label: domain.LabelSystem}},
		Route:     stubRoute(true),
		Stats:     stubStats{stats: &domain.Stats{PriceUsd: &price, Source: "dexscreener"}},
		Activity:  stubActivity(4),
	}, zap.NewNop())

	d := e.Enrich(context.Background(), mint)
	require.NotNil(t, d)
	assert.Equal(t, uint8(6), *d.Decimals)
	assert.Equal(t, auth.String(), *d.MintAuthority)
	assert.Nil(t, d.FreezeAuthority)
	assert.Equal(t, domain.LabelSystem, d.AuthorityOwner.Mint.Label)
	assert.Equal(t, domain.LabelNone, d.AuthorityOwner.Freeze.Label)
	assert.True(t, d.Routed())
	assert.Equal(t, "dexscreener", d.Stats.Source)
	assert.Equal(t, 4, d.Activity1m)
}

func TestEnrichMissingMintAccount(t *testing.T) {
	e := NewEnricher(Config{ShowMintInfo: true, CheckRoute: true},
		Deps{Chain: &fakeChain{}, Route: stubRoute(false), Activity: stubActivity(1)}, zap.NewNop())
	d := e.Enrich(context.Background(), solana.NewWallet().PublicKey())
	require.NotNil(t, d)
	assert.Nil(t, d.Decimals)
	assert.Nil(t, d.MintAuthority)
	assert.Nil(t, d.AuthorityOwner)
	require.NotNil(t, d.HasRoute)
	assert.Equal(t, 1, d.Activity1m)
}

// A transient RPC failure on the mint account must not hide the curve.
func TestEnrichMintInfoFailureKeepsCurveAndActivity(t *testing.T) {
	yes := true
	drv := statsDriver("pump", &yes, &domain.CurveStats{CurveProgressPct: 42, MarketCapSol: 30})
	e := NewEnricher(Config{ShowMintInfo: true, CheckRoute: true}, Deps{
		Chain:     &fakeChain{err: errors.New("rpc timeout")},
		Authority: stubClassifier{},
		Route:     stubRoute(false),
		Curve:     NewCurveEnricher(curve.NewRegistry(drv), zap.NewNop()),
		Activity:  stubActivity(35),
	}, zap.NewNop())

	d := e.Enrich(context.Background(), solana.NewWallet().PublicKey())
	require.NotNil(t, d)
	assert.Nil(t, d.Decimals)
	assert.Nil(t, d.FreezeAuthority)
	assert.False(t, d.Routed())
	assert.Equal(t, "pump", d.CurveTag)
	require.NotNil(t, d.Stats)
	require.NotNil(t, d.Stats.CurveProgressPct)
	assert.InDelta(t, 42.0, *d.Stats.CurveProgressPct, 1e-9)
	assert.Equal(t, 35, d.Activity1m)
	require.NotNil(t, d.AuthorityOwner)
	assert.Equal(t, domain.LabelLaunchpad, d.AuthorityOwner.Mint.Label)
}

func TestEnrichWithoutMintInfo(t *testing.T) {
	e := NewEnricher(Config{CheckRoute: true}, Deps{Route: stubRoute(false), Activity: stubActivity(2)}, zap.NewNop())
	d := e.Enrich(context.Background(), solana.NewWallet().PublicKey())
	require.NotNil(t, d)
	assert.Nil(t, d.Decimals)
	assert.False(t, d.Routed())
	require.NotNil(t, d.HasRoute)
	assert.Equal(t, 2, d.Activity1m)
	assert.Nil(t, d.Stats)
}

func statsDriver(name string, detect *bool, cs *domain.CurveStats) curve.Driver {
	drv := curve.Driver{Name: name, ProgramID: solana.NewWallet().PublicKey()}
	if detect != nil {
		v := *detect
		drv.Detect = func(context.Context, solana.PublicKey) bool { return v }
	}
	if cs != nil {
		drv.ReadStats = func(context.Context, solana.PublicKey) *domain.CurveStats { return cs }
	}
	return drv
}

func TestCurveApplyMergesStats(t *testing.T) {
	yes := true
	drv := statsDriver("pump", &yes, &domain.CurveStats{CurveProgressPct: 42, MarketCapSol: 10, Complete: false})
	ce := NewCurveEnricher(curve.NewRegistry(drv), zap.NewNop())

	d := &domain.Details{}
	ce.Apply(context.Background(), solana.NewWallet().PublicKey(), d)

	assert.Equal(t, "pump", d.CurveTag)
	require.NotNil(t, d.Stats)
	assert.InDelta(t, 42.0, *d.Stats.CurveProgressPct, 1e-9)
	assert.InDelta(t, 10.0, *d.Stats.MarketCapSol, 1e-9)
	assert.False(t, *d.Stats.Complete)
	assert.True(t, strings.HasSuffix(d.Stats.Source, "pump"))

	// Launchpad owner is synthesised for an unclassified mint authority.
	require.NotNil(t, d.AuthorityOwner)
	assert.Equal(t, domain.LabelLaunchpad, d.AuthorityOwner.Mint.Label)
	assert.Equal(t, "pump", d.AuthorityOwner.Mint.Tag)
	assert.Equal(t, drv.ProgramID.String(), *d.AuthorityOwner.Mint.ProgramID)
}

func TestCurveApplySkipsRoutedMints(t *testing.T) {
	yes := true
	ce := NewCurveEnricher(curve.NewRegistry(statsDriver("pump", &yes, &domain.CurveStats{})), zap.NewNop())
	routed := true
	d := &domain.Details{HasRoute: &routed}
	ce.Apply(context.Background(), solana.NewWallet().PublicKey(), d)
	assert.Empty(t, d.CurveTag)
	assert.Nil(t, d.Stats)
}

func TestCurveApplyHintAndTagOnly(t *testing.T) {
	no := false
	pump := statsDriver("pump", &no, nil)
	moon := curve.TagOnly("moonit", solana.NewWallet().PublicKey())
	ce := NewCurveEnricher(curve.NewRegistry(pump, moon), zap.NewNop())

	// A tag-only driver matches only when hinted.
	d := &domain.Details{}
	ce.Apply(context.Background(), solana.NewWallet().PublicKey(), d)
	assert.Empty(t, d.CurveTag)

	system := domain.ProgramOwner(domain.LabelSystem, solana.SystemProgramID)
	d = &domain.Details{AuthorityOwner: &domain.AuthorityOwners{
		Mint: domain.AuthorityOwnerInfo{Label: domain.LabelLaunchpad, Tag: "moonit"},
	}}
	ce.Apply(context.Background(), solana.NewWallet().PublicKey(), d)
	assert.Equal(t, "moonit", d.CurveTag)
	assert.Equal(t, "moonit", d.AuthorityOwner.Mint.Tag)

	// An existing classification is kept.
	yes := true
	ce = NewCurveEnricher(curve.NewRegistry(statsDriver("pump", &yes, nil)), zap.NewNop())
	d = &domain.Details{AuthorityOwner: &domain.AuthorityOwners{Mint: system}}
	ce.Apply(context.Background(), solana.NewWallet().PublicKey(), d)
	assert.Equal(t, "pump", d.CurveTag)
	assert.Equal(t, domain.LabelSystem, d.AuthorityOwner.Mint.Label)
	assert.Nil(t, d.Stats)
}

func TestCurveApplyFirstMatchWins(t *testing.T) {
	yes := true
	first := statsDriver("a", &yes, &domain.CurveStats{CurveProgressPct: 1})
	second := statsDriver("b", &yes, &domain.CurveStats{CurveProgressPct: 2})
	ce := NewCurveEnricher(curve.NewRegistry(first, second), zap.NewNop())

	d := &domain.Details{CurveTag: "b"}
	ce.Apply(context.Background(), solana.NewWallet().PublicKey(), d)
	assert.Equal(t, "b", d.CurveTag)
	assert.Equal(t, "curve:b", d.Stats.Source)
}
