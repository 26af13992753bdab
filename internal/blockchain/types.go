// internal/blockchain/types.go
package blockchain

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ErrStreamClosed is returned by LogStream.Recv after Close.
var ErrStreamClosed = errors.New("log stream closed")

// LogNotification is one confirmed program-log notification.
type LogNotification struct {
	Signature solana.Signature
	Logs      []string
	Failed    bool
}

// LogStream delivers log notifications for a single program.
type LogStream interface {
	Recv(ctx context.Context) (*LogNotification, error)
	Close()
}

// InnerInstruction is a compiled instruction executed via CPI.
type InnerInstruction struct {
	ProgramIDIndex uint16
	Accounts       []uint16
}

// ConfirmedTx carries the parts of a confirmed transaction the pipeline reads:
// the full account-key table (static keys followed by loaded writable and
// loaded readonly keys) and the flattened inner instructions.
type ConfirmedTx struct {
	Signature         solana.Signature
	Slot              uint64
	AccountKeys       []solana.PublicKey
	InnerInstructions []InnerInstruction
}

// Key resolves an index into the account-key table.
func (tx *ConfirmedTx) Key(index uint16) (solana.PublicKey, bool) {
	if tx == nil || int(index) >= len(tx.AccountKeys) {
		return solana.PublicKey{}, false
	}
	return tx.AccountKeys[index], true
}

// Account is the raw view of an on-chain account.
type Account struct {
	Owner solana.PublicKey
	Data  []byte
}

// Client определяет общий интерфейс для взаимодействия с блокчейном.
type Client interface {
	// Подписка на логи программы (commitment confirmed).
	SubscribeLogs(ctx context.Context, program solana.PublicKey) (LogStream, error)
	// Подтверждённая транзакция; nil, nil если не найдена.
	GetConfirmedTransaction(ctx context.Context, sig solana.Signature) (*ConfirmedTx, error)
	// Информация об аккаунте; nil, nil если аккаунта нет.
	GetAccount(ctx context.Context, key solana.PublicKey) (*Account, error)
}
