package bundlecore

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaxBaseFeeInFutureBlock(t *testing.T) {
	for _, gw := range []int64{1, 7, 30, 50, 250} {
		base := GweiToWei(gw)
		prev := base
		for blocks := uint64(1); blocks <= 6; blocks++ {
			got := MaxBaseFeeInFutureBlock(base, blocks)
			require.Equal(t, 1, got.Cmp(prev), "not increasing at %d gwei, %d blocks", gw, blocks)

			// rounding drift stays under 10 wei for six blocks
			want := new(big.Float).SetInt(base)
			for i := uint64(0); i < blocks; i++ {
				want.Mul(want, big.NewFloat(1.125))
			}
			diff := new(big.Float).Sub(new(big.Float).SetInt(got), want)
			d, _ := diff.Float64()
			require.GreaterOrEqual(t, d, 0.0)
			require.Less(t, d, 10.0)
			prev = got
		}
	}
}

func TestMaxBaseFeeInFutureBlockDoesNotMutate(t *testing.T) {
	base := GweiToWei(50)
	_ = MaxBaseFeeInFutureBlock(base, 3)
	require.Equal(t, GweiToWei(50), base)
}

func TestQuoteEIP1559(t *testing.T) {
	s, err := NewFeeStrategy(GweiToWei(3), nil, 2)
	require.NoError(t, err)

	q := s.Quote(GweiToWei(50))
	require.Equal(t, FeeModeEIP1559, q.Mode)
	require.Nil(t, q.GasPrice)
	require.Equal(t, "63281250002", MaxBaseFeeInFutureBlock(GweiToWei(50), 2).String())
	require.Equal(t, "66281250002", q.MaxFeePerGas.String())
	require.Equal(t, GweiToWei(3), q.MaxPriorityFeePerGas)
}

func TestQuoteLegacyIgnoresLeadTime(t *testing.T) {
	for _, lead := range []uint64{1, 2, 5, 25} {
		s, err := NewFeeStrategy(GweiToWei(3), nil, lead)
		require.NoError(t, err)
		q := s.Quote(nil)
		require.Equal(t, FeeModeLegacy, q.Mode)
		require.Equal(t, GweiToWei(12), q.GasPrice)
		require.Nil(t, q.MaxFeePerGas)
		require.Nil(t, q.MaxPriorityFeePerGas)
	}
}

func TestQuoteCustomLegacyPrice(t *testing.T) {
	s, err := NewFeeStrategy(nil, GweiToWei(20), 1)
	require.NoError(t, err)
	require.Equal(t, GweiToWei(20), s.Quote(nil).GasPrice)
	require.Equal(t, DefaultPriorityFee, s.PriorityFee)
}

func TestNewFeeStrategyErrors(t *testing.T) {
	_, err := NewFeeStrategy(GweiToWei(3), nil, 0)
	require.ErrorIs(t, err, ErrFeeProjection)

	_, err = NewFeeStrategy(big.NewInt(-1), nil, 2)
	require.ErrorIs(t, err, ErrFeeProjection)
}

func TestQuoteDoesNotShareState(t *testing.T) {
	s, err := NewFeeStrategy(GweiToWei(3), nil, 1)
	require.NoError(t, err)
	q := s.Quote(GweiToWei(10))
	q.MaxPriorityFeePerGas.SetInt64(0)
	require.Equal(t, GweiToWei(3), s.PriorityFee)

	l := s.Quote(nil)
	l.GasPrice.SetInt64(0)
	require.Equal(t, GweiToWei(12), s.Quote(nil).GasPrice)
}

func TestFormatGwei(t *testing.T) {
	require.Equal(t, "0", FormatGwei(nil))
	require.Equal(t, "12.00", FormatGwei(GweiToWei(12)))
	require.Equal(t, "66.28", FormatGwei(big.NewInt(66_281_250_002)))
}
