// internal/curve/pumpfun.go
package curve

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

// PumpFunProgramID is the pump.fun bonding-curve program.
var PumpFunProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

const (
	pumpFunName        = "pumpfun"
	bondingCurveSeed   = "bonding-curve"
	bondingCurveMinLen = 49 // discriminator + 5*u64 + bool
	creatorOffset      = bondingCurveMinLen
	lamportsPerSol     = 1_000_000_000
)

// BondingCurve is the decoded pump.fun curve account.
type BondingCurve struct {
	Discriminator        uint64
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
	Creator              *solana.PublicKey `bin:"-"`
}

// DeriveBondingCurvePDA returns the curve account address for mint.
func DeriveBondingCurvePDA(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(bondingCurveSeed), mint.Bytes()},
		PumpFunProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive bonding curve PDA: %w", err)
	}
	return addr, nil
}

// DecodeBondingCurve decodes the fixed little-endian layout. The creator
// key is present only on newer accounts.
func DecodeBondingCurve(data []byte) (*BondingCurve, error) {
	if len(data) < bondingCurveMinLen {
		return nil, fmt.Errorf("bonding curve data too short: %d", len(data))
	}
	var bc BondingCurve
	if err := bin.NewBorshDecoder(data[:bondingCurveMinLen]).Decode(&bc); err != nil {
		return nil, fmt.Errorf("decode bonding curve: %w", err)
	}
	if len(data) >= creatorOffset+solana.PublicKeyLength {
		creator := solana.PublicKeyFromBytes(data[creatorOffset : creatorOffset+solana.PublicKeyLength])
		bc.Creator = &creator
	}
	return &bc, nil
}

// Stats computes progress (percent of supply sold, clamped to 0..100) and
// the implied market cap in SOL.
func (bc *BondingCurve) Stats() domain.CurveStats {
	supply := decimal.NewFromUint64(bc.TokenTotalSupply)
	hundred := decimal.NewFromInt(100)

	progress := decimal.Zero
	if !supply.IsZero() {
		sold := supply.Sub(decimal.NewFromUint64(bc.RealTokenReserves))
		progress = sold.Div(supply).Mul(hundred)
	}
	if progress.LessThan(decimal.Zero) {
		progress = decimal.Zero
	}
	if progress.GreaterThan(hundred) {
		progress = hundred
	}

	mc := decimal.Zero
	if bc.VirtualTokenReserves > 0 {
		mc = supply.
			Mul(decimal.NewFromUint64(bc.VirtualSolReserves)).
			Div(decimal.NewFromUint64(bc.VirtualTokenReserves)).
			Div(decimal.NewFromInt(lamportsPerSol))
	}

	p, _ := progress.Round(4).Float64()
	m, _ := mc.Round(9).Float64()
	return domain.CurveStats{
		CurveProgressPct: p,
		MarketCapSol:     m,
		Complete:         bc.Complete,
	}
}

// NewPumpFunDriver returns the full-capability pump.fun driver.
func NewPumpFunDriver(chain AccountReader, logger *zap.Logger) Driver {
	log := logger.Named("curve.pumpfun")

	fetch := func(ctx context.Context, mint solana.PublicKey) []byte {
		pda, err := DeriveBondingCurvePDA(mint)
		if err != nil {
			return nil
		}
		acc, err := chain.GetAccount(ctx, pda)
		if err != nil {
			log.Debug("curve account lookup failed",
				zap.String("mint", mint.String()),
				zap.Error(err))
			return nil
		}
		if acc == nil || !acc.Owner.Equals(PumpFunProgramID) {
			return nil
		}
		return acc.Data
	}

	return Driver{
		Name:      pumpFunName,
		ProgramID: PumpFunProgramID,
		Detect: func(ctx context.Context, mint solana.PublicKey) bool {
			return fetch(ctx, mint) != nil
		},
		ReadStats: func(ctx context.Context, mint solana.PublicKey) *domain.CurveStats {
			data := fetch(ctx, mint)
			if data == nil {
				return nil
			}
			bc, err := DecodeBondingCurve(data)
			if err != nil {
				log.Debug("curve decode failed",
					zap.String("mint", mint.String()),
					zap.Error(err))
				return nil
			}
			stats := bc.Stats()
			return &stats
		},
	}
}
