package bundlecore

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func signedTxs(t *testing.T, n int) []*types.Transaction {
	t.Helper()
	signer := newKeySigner(t)
	out := make([]*types.Transaction, n)
	for i := range out {
		u := BuildTx(testPayload, DefaultGasLimit, FeeQuote{Mode: FeeModeLegacy, GasPrice: GweiToWei(12)}, testChainID, nil)
		env, err := u.Envelope(uint64(i))
		require.NoError(t, err)
		out[i], err = signer.SignTx(env)
		require.NoError(t, err)
	}
	return out
}

func TestPackPreservesOrder(t *testing.T) {
	txs := signedTxs(t, 3)
	id := uuid.New()
	b, err := Pack(txs, id, 1234)
	require.NoError(t, err)
	require.Equal(t, id, b.ReplacementUUID)
	require.Equal(t, uint64(1234), b.TargetBlock)
	require.Len(t, b.Transactions, 3)
	for i, tx := range b.Transactions {
		require.Equal(t, txs[i].Hash(), tx.Hash())
		require.Equal(t, txs[i].Hash(), b.TxHashes()[i])
	}

	raw, err := b.RawTransactions()
	require.NoError(t, err)
	require.Len(t, raw, 3)
	for i, r := range raw {
		require.True(t, strings.HasPrefix(r, "0x"))
		var tx types.Transaction
		require.NoError(t, tx.UnmarshalBinary(hexutil.MustDecode(r)))
		require.Equal(t, txs[i].Hash(), tx.Hash())
	}
}

func TestPackRejects(t *testing.T) {
	_, err := Pack(nil, uuid.New(), 1)
	require.Error(t, err)

	_, err = Pack(signedTxs(t, 1), uuid.Nil, 1)
	require.Error(t, err)

	_, err = Pack([]*types.Transaction{nil}, uuid.New(), 1)
	require.Error(t, err)
}
