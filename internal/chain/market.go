package chain

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const DefaultMarketBlocks = 20

// RewardStats aggregates the priority fees paid at one percentile.
type RewardStats struct {
	Percentile float64
	Min        *big.Int
	Avg        *big.Int
	Max        *big.Int
}

// TipStats reads eth_feeHistory over the last blocks and summarizes the
// reward columns per percentile.
func (c *Client) TipStats(ctx context.Context, blocks uint64, percentiles []float64) ([]RewardStats, error) {
	if blocks == 0 {
		blocks = DefaultMarketBlocks
	}
	if len(percentiles) == 0 {
		percentiles = []float64{50, 95, 99}
	}
	fh, err := c.ec.FeeHistory(ctx, blocks, nil, percentiles)
	if err != nil {
		return nil, fmt.Errorf("fee history: %w", err)
	}
	if len(fh.Reward) == 0 {
		return nil, fmt.Errorf("fee history: empty reward")
	}
	return summarizeRewards(fh.Reward, percentiles), nil
}

// SuggestTip is the node's eth_maxPriorityFeePerGas.
func (c *Client) SuggestTip(ctx context.Context) (*big.Int, error) {
	return c.ec.SuggestGasTipCap(ctx)
}

func summarizeRewards(rows [][]*big.Int, percentiles []float64) []RewardStats {
	out := make([]RewardStats, len(percentiles))
	for j, p := range percentiles {
		st := RewardStats{Percentile: p, Min: big.NewInt(0), Avg: big.NewInt(0), Max: big.NewInt(0)}
		n := int64(0)
		for _, row := range rows {
			if j >= len(row) || row[j] == nil {
				continue
			}
			v := row[j]
			if n == 0 || v.Cmp(st.Min) < 0 {
				st.Min = new(big.Int).Set(v)
			}
			if v.Cmp(st.Max) > 0 {
				st.Max = new(big.Int).Set(v)
			}
			st.Avg.Add(st.Avg, v)
			n++
		}
		if n > 0 {
			st.Avg.Div(st.Avg, big.NewInt(n))
		}
		out[j] = st
	}
	return out
}

// TransferSummary holds simple stats over direct coinbase payments.
type TransferSummary struct {
	Count int
	Sum   *big.Int
	Max   *big.Int
	P50   *big.Int
	P95   *big.Int
	P99   *big.Int
}

// CoinbaseTransfers scans the last blocks for payments to the block builder:
// plain transfers to the coinbase and contract creations whose init code
// carries COINBASE SELFDESTRUCT (0x41ff).
func (c *Client) CoinbaseTransfers(ctx context.Context, blocks uint64) ([]*big.Int, error) {
	if blocks == 0 {
		blocks = DefaultMarketBlocks
	}
	head, err := c.ec.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	var out []*big.Int
	for i := uint64(0); i < blocks; i++ {
		n := new(big.Int).Sub(head.Number, new(big.Int).SetUint64(i))
		if n.Sign() <= 0 {
			break
		}
		b, err := c.ec.BlockByNumber(ctx, n)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			continue
		}
		out = append(out, coinbasePayments(b.Coinbase(), b.Transactions())...)
	}
	return out, nil
}

func coinbasePayments(coinbase common.Address, txs []*types.Transaction) []*big.Int {
	var out []*big.Int
	for _, tx := range txs {
		v := tx.Value()
		if v == nil || v.Sign() <= 0 {
			continue
		}
		to := tx.To()
		switch {
		case to == nil && bytes.Contains(tx.Data(), []byte{0x41, 0xff}):
			out = append(out, new(big.Int).Set(v))
		case to != nil && *to == coinbase:
			out = append(out, new(big.Int).Set(v))
		}
	}
	return out
}

func SummarizeTransfers(vals []*big.Int) TransferSummary {
	s := TransferSummary{Count: len(vals), Sum: big.NewInt(0), Max: big.NewInt(0), P50: big.NewInt(0), P95: big.NewInt(0), P99: big.NewInt(0)}
	if len(vals) == 0 {
		return s
	}
	sorted := make([]*big.Int, len(vals))
	for i, v := range vals {
		sorted[i] = new(big.Int).Set(v)
		s.Sum.Add(s.Sum, v)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })
	s.Max.Set(sorted[len(sorted)-1])
	s.P50 = quantile(sorted, 0.50)
	s.P95 = quantile(sorted, 0.95)
	s.P99 = quantile(sorted, 0.99)
	return s
}

// quantile expects sorted input; nearest-rank.
func quantile(sorted []*big.Int, q float64) *big.Int {
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return new(big.Int).Set(sorted[idx])
}
