// internal/blockchain/solbc/logs.go
package solbc

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/blockchain"
)

// SubscribeLogs opens a dedicated websocket connection and subscribes to
// confirmed logs mentioning program. Each stream owns its connection so a
// dropped socket only affects one watcher.
func (c *Client) SubscribeLogs(ctx context.Context, program solana.PublicKey) (blockchain.LogStream, error) {
	conn, err := ws.Connect(ctx, c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("ws connect: %w", err)
	}
	sub, err := conn.LogsSubscribeMentions(program, rpc.CommitmentConfirmed)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("logsSubscribe %s: %w", program, err)
	}
	c.logger.Debug("logs subscription opened", zap.String("program", program.String()))
	return &logStream{conn: conn, sub: sub, program: program, logger: c.logger}, nil
}

type logStream struct {
	conn    *ws.Client
	sub     *ws.LogSubscription
	program solana.PublicKey
	logger  *zap.Logger

	once sync.Once
}

func (s *logStream) Recv(ctx context.Context) (*blockchain.LogNotification, error) {
	res, err := s.sub.Recv(ctx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, blockchain.ErrStreamClosed
	}
	return &blockchain.LogNotification{
		Signature: res.Value.Signature,
		Logs:      res.Value.Logs,
		Failed:    res.Value.Err != nil,
	}, nil
}

func (s *logStream) Close() {
	s.once.Do(func() {
		s.sub.Unsubscribe()
		s.conn.Close()
		s.logger.Debug("logs subscription closed", zap.String("program", s.program.String()))
	})
}
