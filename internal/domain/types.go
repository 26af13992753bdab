// internal/domain/types.go
package domain

import "github.com/gagliardetto/solana-go"

// OwnerLabel classifies the program owning an authority account.
type OwnerLabel string

const (
	LabelNone      OwnerLabel = "none"
	LabelNoAccount OwnerLabel = "no-account"
	LabelSystem    OwnerLabel = "system"
	LabelSPLToken  OwnerLabel = "spl-token"
	LabelToken2022 OwnerLabel = "token-2022"
	LabelLaunchpad OwnerLabel = "launchpad"
	LabelOther     OwnerLabel = "other"
)

// AuthorityOwnerInfo is the classification result for an authority key.
// Tag is set only for LabelLaunchpad.
type AuthorityOwnerInfo struct {
	Label     OwnerLabel `json:"label"`
	Tag       string     `json:"tag,omitempty"`
	ProgramID *string    `json:"programId,omitempty"`
}

// NoneOwner is the result for an absent authority.
func NoneOwner() AuthorityOwnerInfo {
	return AuthorityOwnerInfo{Label: LabelNone}
}

// NoAccountOwner is the result for an authority without an on-chain account.
func NoAccountOwner() AuthorityOwnerInfo {
	return AuthorityOwnerInfo{Label: LabelNoAccount}
}

// ProgramOwner builds a non-launchpad result owned by program.
func ProgramOwner(label OwnerLabel, program solana.PublicKey) AuthorityOwnerInfo {
	pid := program.String()
	return AuthorityOwnerInfo{Label: label, ProgramID: &pid}
}

// LaunchpadOwner builds a launchpad result.
func LaunchpadOwner(tag string, program solana.PublicKey) AuthorityOwnerInfo {
	pid := program.String()
	return AuthorityOwnerInfo{Label: LabelLaunchpad, Tag: tag, ProgramID: &pid}
}

// IsZero reports whether the info carries no classification at all.
func (a AuthorityOwnerInfo) IsZero() bool {
	return a.Label == "" || a.Label == LabelNone
}

// Stage is the lifecycle phase of a mint. Empty means undefined.
type Stage string

const (
	StageUndefined    Stage = ""
	StageNewCreation  Stage = "newCreation"
	StagePump         Stage = "pump"
	StageSurge        Stage = "surge"
	StageAlmostBonded Stage = "almostBonded"
	StageMigrated     Stage = "migrated"
)

// Launchpad is a catalog entry.
type Launchpad struct {
	Name      string           `json:"name"`
	ProgramID solana.PublicKey `json:"programId"`
}

// Well-known program ids used for classification.
var (
	SystemProgramID    = solana.SystemProgramID
	TokenProgramID     = solana.TokenProgramID
	Token2022ProgramID = solana.Token2022ProgramID
)

// TokenSource maps a token program id to the event source name.
func TokenSource(program solana.PublicKey) (string, bool) {
	switch {
	case program.Equals(TokenProgramID):
		return SourceSPLToken, true
	case program.Equals(Token2022ProgramID):
		return SourceToken2022, true
	}
	return "", false
}

// IsTokenProgram reports whether program is one of the two token programs.
func IsTokenProgram(program solana.PublicKey) bool {
	_, ok := TokenSource(program)
	return ok
}
