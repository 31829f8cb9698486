package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestSummarizeRewards(t *testing.T) {
	rows := [][]*big.Int{
		{big.NewInt(1), big.NewInt(10)},
		{big.NewInt(3), big.NewInt(30)},
		{big.NewInt(2)}, // short row
	}
	st := summarizeRewards(rows, []float64{50, 99})
	require.Len(t, st, 2)

	require.Equal(t, 50.0, st[0].Percentile)
	require.Equal(t, int64(1), st[0].Min.Int64())
	require.Equal(t, int64(2), st[0].Avg.Int64())
	require.Equal(t, int64(3), st[0].Max.Int64())

	require.Equal(t, int64(10), st[1].Min.Int64())
	require.Equal(t, int64(20), st[1].Avg.Int64())
	require.Equal(t, int64(30), st[1].Max.Int64())
}

func TestSummarizeRewardsEmptyColumn(t *testing.T) {
	st := summarizeRewards([][]*big.Int{{big.NewInt(4)}}, []float64{50, 95})
	require.Equal(t, int64(4), st[0].Avg.Int64())
	require.Zero(t, st[1].Min.Sign())
	require.Zero(t, st[1].Avg.Sign())
}

func TestCoinbasePayments(t *testing.T) {
	coinbase := common.HexToAddress("0x00000000000000000000000000000000000000cb")
	other := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tx := func(to *common.Address, value int64, data []byte) *types.Transaction {
		return types.NewTx(&types.LegacyTx{To: to, Value: big.NewInt(value), Gas: 21000, GasPrice: big.NewInt(1), Data: data})
	}
	txs := []*types.Transaction{
		tx(&coinbase, 7, nil),
		tx(&other, 9, nil),
		tx(nil, 5, []byte{0x60, 0x41, 0xff}),
		tx(nil, 6, []byte{0x60, 0x00}),
		tx(&coinbase, 0, nil),
	}
	got := coinbasePayments(coinbase, txs)
	require.Len(t, got, 2)
	require.Equal(t, int64(7), got[0].Int64())
	require.Equal(t, int64(5), got[1].Int64())
}

func TestSummarizeTransfers(t *testing.T) {
	s := SummarizeTransfers(nil)
	require.Zero(t, s.Count)
	require.Zero(t, s.Max.Sign())

	var vals []*big.Int
	for i := int64(100); i >= 1; i-- {
		vals = append(vals, big.NewInt(i))
	}
	s = SummarizeTransfers(vals)
	require.Equal(t, 100, s.Count)
	require.Equal(t, int64(5050), s.Sum.Int64())
	require.Equal(t, int64(100), s.Max.Int64())
	require.Equal(t, int64(50), s.P50.Int64())
	require.Equal(t, int64(95), s.P95.Int64())
	require.Equal(t, int64(99), s.P99.Int64())
	// input left untouched
	require.Equal(t, int64(100), vals[0].Int64())
}
