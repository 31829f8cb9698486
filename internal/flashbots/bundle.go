package flashbots

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/flashbundle/internal/bundlecore"
)

// SignBundle signs txs in order. Transactions without a nonce get the next
// one for the signer: the latest on-chain nonce for the first, then +1 for
// every earlier transaction in the bundle.
func (c *Client) SignBundle(ctx context.Context, signer bundlecore.Signer, txs []*bundlecore.UnsignedTx) ([]*types.Transaction, error) {
	from := signer.Address()
	var (
		next     uint64
		haveNext bool
	)
	out := make([]*types.Transaction, 0, len(txs))
	for i, u := range txs {
		var nonce uint64
		switch {
		case u.Nonce != nil:
			nonce = *u.Nonce
		case haveNext:
			nonce = next
		default:
			n, err := c.chain.NonceAt(ctx, from)
			if err != nil {
				return nil, fmt.Errorf("nonce for %s: %w", from.Hex(), err)
			}
			nonce = n
		}
		next, haveNext = nonce+1, true

		env, err := u.Envelope(nonce)
		if err != nil {
			return nil, fmt.Errorf("tx %d: %w", i, err)
		}
		signed, err := signer.SignTx(env)
		if err != nil {
			return nil, fmt.Errorf("tx %d: %w", i, err)
		}
		out = append(out, signed)
	}
	return out, nil
}

// Submit sends the bundle with eth_sendBundle for its target block.
func (c *Client) Submit(ctx context.Context, b *bundlecore.SignedBundle) (*bundlecore.Submission, error) {
	raw, err := b.RawTransactions()
	if err != nil {
		return nil, err
	}
	accts, err := c.accounts(b)
	if err != nil {
		return nil, err
	}
	args := sendBundleArgs{
		Txs:             raw,
		BlockNumber:     hexutil.EncodeUint64(b.TargetBlock),
		ReplacementUUID: b.ReplacementUUID.String(),
	}
	var res sendBundleResult
	if err := c.call(ctx, "eth_sendBundle", []any{args}, &res); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"target":     b.TargetBlock,
		"bundleHash": res.BundleHash.Hex(),
		"txs":        len(raw),
	}).Debug("[send] eth_sendBundle ok")
	return &bundlecore.Submission{Bundle: b, BundleHash: res.BundleHash, Accounts: accts}, nil
}

func (c *Client) accounts(b *bundlecore.SignedBundle) ([]bundlecore.AccountNonce, error) {
	signer := types.LatestSignerForChainID(c.chainID)
	out := make([]bundlecore.AccountNonce, 0, len(b.Transactions))
	for i, tx := range b.Transactions {
		from, err := types.Sender(signer, tx)
		if err != nil {
			return nil, fmt.Errorf("tx %d sender: %w", i, err)
		}
		out = append(out, bundlecore.AccountNonce{Account: from, Nonce: tx.Nonce(), TxHash: tx.Hash()})
	}
	return out, nil
}

// Simulate runs eth_callBundle against the latest state.
func (c *Client) Simulate(ctx context.Context, b *bundlecore.SignedBundle) (*bundlecore.SimulationResult, error) {
	raw, err := b.RawTransactions()
	if err != nil {
		return nil, err
	}
	args := callBundleArgs{
		Txs:              raw,
		BlockNumber:      hexutil.EncodeUint64(b.TargetBlock),
		StateBlockNumber: "latest",
	}
	var res callBundleResult
	if err := c.call(ctx, "eth_callBundle", []any{args}, &res); err != nil {
		return nil, err
	}
	out := &bundlecore.SimulationResult{
		BundleHash:       res.BundleHash,
		StateBlockNumber: res.StateBlockNumber,
		TotalGasUsed:     res.TotalGasUsed,
		CoinbaseDiff:     parseDecimal(res.CoinbaseDiff),
		Results:          make([]bundlecore.SimulatedTx, 0, len(res.Results)),
	}
	for _, r := range res.Results {
		out.Results = append(out.Results, bundlecore.SimulatedTx{TxHash: r.TxHash, GasUsed: r.GasUsed, Error: r.Error, Revert: r.Revert})
	}
	return out, nil
}

// Cancel asks the relay to drop bundles sent with the given replacement
// uuid. Builders that already hold the bundle may still include it.
func (c *Client) Cancel(ctx context.Context, replacementUUID uuid.UUID) error {
	return c.call(ctx, "eth_cancelBundle", []any{cancelBundleArgs{ReplacementUUID: replacementUUID.String()}}, nil)
}

func (c *Client) UserStats(ctx context.Context, block uint64) (*bundlecore.UserStats, error) {
	var res userStatsResult
	if err := c.call(ctx, "flashbots_getUserStatsV2", []any{userStatsArgs{BlockNumber: hexutil.EncodeUint64(block)}}, &res); err != nil {
		return nil, err
	}
	return &bundlecore.UserStats{
		IsHighPriority:           res.IsHighPriority,
		AllTimeValidatorPayments: parseDecimal(res.AllTimeValidatorPayments),
		AllTimeGasSimulated:      parseDecimal(res.AllTimeGasSimulated),
		Last7dValidatorPayments:  parseDecimal(res.Last7dValidatorPayments),
		Last7dGasSimulated:       parseDecimal(res.Last7dGasSimulated),
		Last1dValidatorPayments:  parseDecimal(res.Last1dValidatorPayments),
		Last1dGasSimulated:       parseDecimal(res.Last1dGasSimulated),
	}, nil
}

func (c *Client) BundleStats(ctx context.Context, bundleHash common.Hash, block uint64) (*bundlecore.BundleStats, error) {
	var res bundleStatsResult
	args := bundleStatsArgs{BundleHash: bundleHash, BlockNumber: hexutil.EncodeUint64(block)}
	if err := c.call(ctx, "flashbots_getBundleStatsV2", []any{args}, &res); err != nil {
		return nil, err
	}
	conv := func(in []builderEvent) []bundlecore.BuilderEvent {
		out := make([]bundlecore.BuilderEvent, len(in))
		for i, e := range in {
			out[i] = bundlecore.BuilderEvent{Pubkey: e.Pubkey, Timestamp: e.Timestamp}
		}
		return out
	}
	return &bundlecore.BundleStats{
		IsHighPriority:         res.IsHighPriority,
		IsSimulated:            res.IsSimulated,
		SimulatedAt:            res.SimulatedAt,
		ReceivedAt:             res.ReceivedAt,
		ConsideredByBuildersAt: conv(res.ConsideredByBuildersAt),
		SealedByBuildersAt:     conv(res.SealedByBuildersAt),
	}, nil
}
