// internal/blockchain/solbc/errors.go
package solbc

import (
	"errors"
	"strings"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"
)

// Коды JSON-RPC, после которых повтор не поможет.
const (
	codeMethodNotFound        = -32601
	codeInvalidParams         = -32602
	codeUnsupportedTxVersion  = -32015
	codeTransactionHistoryOff = -32011
)

// RPCErrorKind groups node errors for retry decisions and logging.
type RPCErrorKind string

const (
	KindNone        RPCErrorKind = ""
	KindNotFound    RPCErrorKind = "not_found"
	KindRateLimited RPCErrorKind = "rate_limited"
	KindPermanent   RPCErrorKind = "permanent"
	KindTransient   RPCErrorKind = "transient"
)

// ClassifyRPCError maps an RPC error to its kind.
func ClassifyRPCError(err error) RPCErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, rpc.ErrNotFound) {
		return KindNotFound
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case codeMethodNotFound, codeInvalidParams, codeUnsupportedTxVersion, codeTransactionHistoryOff:
			return KindPermanent
		case 429:
			return KindRateLimited
		}
		return KindTransient
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") {
		return KindRateLimited
	}
	return KindTransient
}

// rpcErrorFields returns log fields describing err.
func rpcErrorFields(err error) []zap.Field {
	fields := []zap.Field{zap.String("kind", string(ClassifyRPCError(err))), zap.Error(err)}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		fields = append(fields, zap.Int("rpc_code", rpcErr.Code))
	}
	return fields
}
