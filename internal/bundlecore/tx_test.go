package bundlecore

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

var testPayload = Payload{
	To:   common.HexToAddress("0x10e0564886F0E56f31D375Bb6CcFf300FD58c715"),
	Data: common.FromHex("0xa9059cbb00"),
}

func TestBuildTxEIP1559Envelope(t *testing.T) {
	s, err := NewFeeStrategy(GweiToWei(3), nil, 2)
	require.NoError(t, err)
	q := s.Quote(GweiToWei(50))

	u := BuildTx(testPayload, DefaultGasLimit, q, testChainID, nil)
	require.Nil(t, u.Nonce)

	tx, err := u.Envelope(7)
	require.NoError(t, err)
	require.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	require.Equal(t, uint64(7), tx.Nonce())
	require.Equal(t, uint64(500_000), tx.Gas())
	require.Equal(t, testPayload.To, *tx.To())
	require.Equal(t, testPayload.Data, tx.Data())
	require.Equal(t, 0, tx.Value().Sign())
	require.Equal(t, testChainID, tx.ChainId())
	require.Equal(t, "66281250002", tx.GasFeeCap().String())
	require.Equal(t, GweiToWei(3).String(), tx.GasTipCap().String())
}

func TestBuildTxLegacyEnvelope(t *testing.T) {
	s, err := NewFeeStrategy(nil, nil, 1)
	require.NoError(t, err)
	nonce := uint64(41)

	u := BuildTx(testPayload, 21_000, s.Quote(nil), testChainID, &nonce)
	nonce = 99
	require.NotNil(t, u.Nonce)
	require.Equal(t, uint64(41), *u.Nonce)

	tx, err := u.Envelope(*u.Nonce)
	require.NoError(t, err)
	require.Equal(t, uint8(types.LegacyTxType), tx.Type())
	require.Equal(t, uint64(41), tx.Nonce())
	require.Equal(t, uint64(21_000), tx.Gas())
	require.Equal(t, GweiToWei(12).String(), tx.GasPrice().String())
	require.Equal(t, 0, tx.Value().Sign())
}

func TestBuildTxCopiesData(t *testing.T) {
	p := Payload{To: testPayload.To, Data: []byte{1, 2, 3}}
	u := BuildTx(p, 1, FeeQuote{Mode: FeeModeLegacy, GasPrice: big.NewInt(1)}, testChainID, nil)
	p.Data[0] = 9
	require.Equal(t, []byte{1, 2, 3}, u.Data)
}

func TestEnvelopeUnknownMode(t *testing.T) {
	u := BuildTx(testPayload, 1, FeeQuote{}, testChainID, nil)
	_, err := u.Envelope(0)
	require.Error(t, err)
}
