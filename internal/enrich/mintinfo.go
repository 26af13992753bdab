// internal/enrich/mintinfo.go
package enrich

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/rovshanmuradov/mintwatch/internal/blockchain"
	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

// mintAccountSize is the base SPL mint layout; token-2022 appends extensions.
const mintAccountSize = 82

// AccountReader fetches raw accounts.
type AccountReader interface {
	GetAccount(ctx context.Context, key solana.PublicKey) (*blockchain.Account, error)
}

// MintInfo is the decoded base mint layout.
type MintInfo struct {
	Program         solana.PublicKey
	Decimals        uint8
	Supply          uint64
	MintAuthority   *solana.PublicKey
	FreezeAuthority *solana.PublicKey
}

// mintPrograms lists the owners accepted for a mint account, token-2022 first.
var mintPrograms = []solana.PublicKey{domain.Token2022ProgramID, domain.TokenProgramID}

// ReadMintInfo fetches and decodes a mint account. It returns nil, nil when
// the account does not exist or is not owned by a token program.
func ReadMintInfo(ctx context.Context, chain AccountReader, mint solana.PublicKey) (*MintInfo, error) {
	acc, err := chain.GetAccount(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("get mint account: %w", err)
	}
	if acc == nil {
		return nil, nil
	}

	for _, program := range mintPrograms {
		if !acc.Owner.Equals(program) {
			continue
		}
		info, err := DecodeMint(acc.Data)
		if err != nil {
			return nil, err
		}
		info.Program = program
		return info, nil
	}
	return nil, nil
}

// DecodeMint decodes the first 82 bytes of a mint account.
func DecodeMint(data []byte) (*MintInfo, error) {
	if len(data) < mintAccountSize {
		return nil, fmt.Errorf("mint account too short: %d bytes", len(data))
	}

	var m token.Mint
	if err := m.UnmarshalWithDecoder(bin.NewBinDecoder(data[:mintAccountSize])); err != nil {
		return nil, fmt.Errorf("decode mint: %w", err)
	}
	return &MintInfo{
		Decimals:        m.Decimals,
		Supply:          m.Supply,
		MintAuthority:   m.MintAuthority,
		FreezeAuthority: m.FreezeAuthority,
	}, nil
}
