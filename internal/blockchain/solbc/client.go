// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/blockchain"
	"github.com/rovshanmuradov/mintwatch/internal/utils/metrics"
)

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
type Client struct {
	rpc        *rpc.Client
	wsURL      string
	retries    uint
	retryDelay time.Duration
	metrics    *metrics.Collector
	logger     *zap.Logger
}

// Option настраивает Client.
type Option func(*Client)

// WithRetries задаёт число попыток получения транзакции.
func WithRetries(n uint, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		c.retryDelay = delay
	}
}

// WithMetrics подключает коллектор метрик.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient создаёт новый клиент, принимая RPC URL и логгер через dependency injection.
func NewClient(rpcURL, wsURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		rpc:        rpc.New(rpcURL),
		wsURL:      wsURL,
		retries:    3,
		retryDelay: 400 * time.Millisecond,
		logger:     logger.Named("solbc-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var maxTxVersion uint64 = 0

// GetConfirmedTransaction fetches a confirmed transaction and flattens it into
// the account-key table and inner instructions. A transaction that is not
// (yet) visible at confirmed commitment is retried and finally reported as
// nil without error.
func (c *Client) GetConfirmedTransaction(ctx context.Context, sig solana.Signature) (*blockchain.ConfirmedTx, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryDelay
	policy.MaxInterval = c.retryDelay * 10

	notify := func(err error, d time.Duration) {
		fields := append([]zap.Field{
			zap.String("signature", sig.String()),
			zap.Duration("backoff", d),
		}, rpcErrorFields(err)...)
		c.logger.Debug("getTransaction retry", fields...)
	}

	operation := func() (*rpc.GetTransactionResult, error) {
		start := time.Now()
		res, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			Commitment:                     rpc.CommitmentConfirmed,
			MaxSupportedTransactionVersion: &maxTxVersion,
		})
		c.metrics.RecordRPCLatency("getTransaction", time.Since(start), err)
		if ClassifyRPCError(err) == KindPermanent {
			return nil, backoff.Permanent(err)
		}
		return res, err
	}

	tries := c.retries
	if tries == 0 {
		tries = 1
	}
	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(notify))
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction %s: %w", sig, err)
	}
	return decodeTransaction(sig, res)
}

func decodeTransaction(sig solana.Signature, res *rpc.GetTransactionResult) (*blockchain.ConfirmedTx, error) {
	if res == nil || res.Transaction == nil {
		return nil, nil
	}
	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("decode transaction %s: %w", sig, err)
	}

	out := &blockchain.ConfirmedTx{
		Signature: sig,
		Slot:      res.Slot,
	}
	out.AccountKeys = append(out.AccountKeys, tx.Message.AccountKeys...)
	if res.Meta == nil {
		return out, nil
	}
	// v0: ключи из lookup tables идут после статических, сначала writable.
	out.AccountKeys = append(out.AccountKeys, res.Meta.LoadedAddresses.Writable...)
	out.AccountKeys = append(out.AccountKeys, res.Meta.LoadedAddresses.ReadOnly...)

	for _, inner := range res.Meta.InnerInstructions {
		for _, ix := range inner.Instructions {
			out.InnerInstructions = append(out.InnerInstructions, blockchain.InnerInstruction{
				ProgramIDIndex: ix.ProgramIDIndex,
				Accounts:       ix.Accounts,
			})
		}
	}
	return out, nil
}

// GetAccount returns the owner and raw data of an account, nil if it does not exist.
func (c *Client) GetAccount(ctx context.Context, key solana.PublicKey) (*blockchain.Account, error) {
	start := time.Now()
	res, err := c.rpc.GetAccountInfoWithOpts(ctx, key, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		c.metrics.RecordRPCLatency("getAccountInfo", time.Since(start), nil)
		return nil, nil
	}
	c.metrics.RecordRPCLatency("getAccountInfo", time.Since(start), err)
	if err != nil {
		c.logger.Debug("GetAccountInfo error",
			append([]zap.Field{zap.String("pubkey", key.String())}, rpcErrorFields(err)...)...)
		return nil, err
	}

	acc := &blockchain.Account{Owner: res.Value.Owner}
	if res.Value.Data != nil {
		acc.Data = res.Value.Data.GetBinary()
	}
	return acc, nil
}

// Гарантируем, что Client реализует интерфейс blockchain.Client.
var _ blockchain.Client = (*Client)(nil)
