// internal/authority/classifier.go
package authority

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/blockchain"
	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

// AccountReader fetches raw accounts.
type AccountReader interface {
	GetAccount(ctx context.Context, key solana.PublicKey) (*blockchain.Account, error)
}

// ProgramTagger maps an owner program to a launchpad tag.
type ProgramTagger interface {
	ClassifyOwnerProgram(owner solana.PublicKey) (string, bool)
}

// Classifier resolves an authority key to the label of its owning program.
type Classifier struct {
	chain  AccountReader
	tagger ProgramTagger
	logger *zap.Logger
}

// NewClassifier creates a classifier. tagger may be nil.
func NewClassifier(chain AccountReader, tagger ProgramTagger, logger *zap.Logger) *Classifier {
	return &Classifier{
		chain:  chain,
		tagger: tagger,
		logger: logger.Named("authority"),
	}
}

// Classify looks up the account behind key (one RPC call, never cached).
// A failed lookup is treated as a missing account.
func (c *Classifier) Classify(ctx context.Context, key *solana.PublicKey) domain.AuthorityOwnerInfo {
	if key == nil {
		return domain.NoneOwner()
	}

	acc, err := c.chain.GetAccount(ctx, *key)
	if err != nil {
		c.logger.Debug("authority lookup failed",
			zap.String("authority", key.String()),
			zap.Error(err))
		return domain.NoAccountOwner()
	}
	if acc == nil {
		return domain.NoAccountOwner()
	}

	return c.classifyOwner(acc.Owner)
}

func (c *Classifier) classifyOwner(owner solana.PublicKey) domain.AuthorityOwnerInfo {
	if c.tagger != nil {
		if tag, ok := c.tagger.ClassifyOwnerProgram(owner); ok {
			return domain.LaunchpadOwner(tag, owner)
		}
	}
	switch {
	case owner.Equals(domain.SystemProgramID):
		return domain.ProgramOwner(domain.LabelSystem, owner)
	case owner.Equals(domain.TokenProgramID):
		return domain.ProgramOwner(domain.LabelSPLToken, owner)
	case owner.Equals(domain.Token2022ProgramID):
		return domain.ProgramOwner(domain.LabelToken2022, owner)
	default:
		return domain.ProgramOwner(domain.LabelOther, owner)
	}
}
