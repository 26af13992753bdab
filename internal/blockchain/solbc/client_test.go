package solbc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildResult(t *testing.T, static []solana.PublicKey, writable, readonly []solana.PublicKey, metaInner string) *rpc.GetTransactionResult {
	t.Helper()

	tx := &solana.Transaction{
		Signatures: []solana.Signature{{}},
		Message: solana.Message{
			Header:      solana.MessageHeader{NumRequiredSignatures: 1},
			AccountKeys: static,
		},
	}
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	keysJSON := func(keys []solana.PublicKey) string {
		b, _ := json.Marshal(keys)
		return string(b)
	}
	body := fmt.Sprintf(`{
		"slot": 77,
		"transaction": [%q, "base64"],
		"meta": {
			"err": null,
			"fee": 5000,
			"innerInstructions": %s,
			"loadedAddresses": {"writable": %s, "readonly": %s}
		}
	}`, base64.StdEncoding.EncodeToString(raw), metaInner, keysJSON(writable), keysJSON(readonly))

	var res rpc.GetTransactionResult
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	return &res
}

func TestDecodeTransactionKeyTableOrder(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	lutW := solana.NewWallet().PublicKey()
	lutR := solana.NewWallet().PublicKey()

	res := buildResult(t,
		[]solana.PublicKey{payer, mint, solana.Token2022ProgramID},
		[]solana.PublicKey{lutW},
		[]solana.PublicKey{lutR},
		`[{"index":0,"instructions":[{"programIdIndex":2,"accounts":[1,3],"data":""}]}]`)

	out, err := decodeTransaction(solana.Signature{}, res)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, uint64(77), out.Slot)
	assert.Equal(t, []solana.PublicKey{payer, mint, solana.Token2022ProgramID, lutW, lutR}, out.AccountKeys)
	require.Len(t, out.InnerInstructions, 1)
	assert.Equal(t, uint16(2), out.InnerInstructions[0].ProgramIDIndex)
	assert.Equal(t, []uint16{1, 3}, out.InnerInstructions[0].Accounts)

	k, ok := out.Key(4)
	assert.True(t, ok)
	assert.Equal(t, lutR, k)
	_, ok = out.Key(5)
	assert.False(t, ok)
}

func TestDecodeTransactionWithoutInner(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	res := buildResult(t, []solana.PublicKey{payer}, nil, nil, `[]`)

	out, err := decodeTransaction(solana.Signature{}, res)
	require.NoError(t, err)
	assert.Empty(t, out.InnerInstructions)
	assert.Len(t, out.AccountKeys, 1)
}

func TestDecodeTransactionNil(t *testing.T) {
	out, err := decodeTransaction(solana.Signature{}, nil)
	assert.NoError(t, err)
	assert.Nil(t, out)
}
