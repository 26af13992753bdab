// internal/extractor/extractor.go
package extractor

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/mintwatch/internal/blockchain"
	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

// ForEachTokenInstruction calls fn with the resolved first account of every
// inner instruction executed by a token program. Instructions whose program
// or first account cannot be resolved are skipped.
func ForEachTokenInstruction(tx *blockchain.ConfirmedTx, fn func(program, first solana.PublicKey)) {
	if tx == nil {
		return
	}
	for _, ix := range tx.InnerInstructions {
		program, ok := tx.Key(ix.ProgramIDIndex)
		if !ok || !domain.IsTokenProgram(program) {
			continue
		}
		if len(ix.Accounts) == 0 {
			continue
		}
		first, ok := tx.Key(ix.Accounts[0])
		if !ok {
			continue
		}
		fn(program, first)
	}
}

// ExtractMints returns the distinct mints referenced as first account of a
// token-program inner instruction, in order of first appearance.
func ExtractMints(tx *blockchain.ConfirmedTx) []solana.PublicKey {
	var out []solana.PublicKey
	seen := make(map[solana.PublicKey]struct{})
	ForEachTokenInstruction(tx, func(_, mint solana.PublicKey) {
		if _, dup := seen[mint]; dup {
			return
		}
		seen[mint] = struct{}{}
		out = append(out, mint)
	})
	return out
}
