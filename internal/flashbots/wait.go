package flashbots

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/flashbundle/internal/bundlecore"
	"github.com/ligun0805/flashbundle/internal/chain"
)

// AwaitResolution blocks until the target block of s is mined, or until an
// earlier block shows that one of the bundle's nonces was used elsewhere.
// The returned error is only set when ctx ends or the head stream fails.
func (c *Client) AwaitResolution(ctx context.Context, s *bundlecore.Submission) (bundlecore.Outcome, error) {
	heads := make(chan chain.Header, 16)
	sub := c.heads.SubscribeHeads(heads)
	defer sub.Unsubscribe()

	target := s.Bundle.TargetBlock
	for {
		select {
		case <-ctx.Done():
			return bundlecore.Outcome{}, ctx.Err()
		case err, ok := <-sub.Err():
			if !ok || err == nil {
				err = bundlecore.ErrHeadSourceClosed
			}
			return bundlecore.Outcome{}, err
		case h := <-heads:
			if h.Number < target {
				if out, moved := c.nonceMoved(ctx, s); moved {
					return out, nil
				}
				continue
			}
			return c.inclusion(ctx, s), nil
		}
	}
}

func (c *Client) nonceMoved(ctx context.Context, s *bundlecore.Submission) (bundlecore.Outcome, bool) {
	for _, a := range s.Accounts {
		n, err := c.chain.NonceAt(ctx, a.Account)
		if err != nil {
			if !isCanceled(err) {
				c.log.WithError(err).Debug("[wait] nonce check failed, retrying next block")
			}
			return bundlecore.Outcome{}, false
		}
		if n > a.Nonce {
			return bundlecore.NonceTooHigh(a.Account, n, a.Nonce), true
		}
	}
	return bundlecore.Outcome{}, false
}

func (c *Client) inclusion(ctx context.Context, s *bundlecore.Submission) bundlecore.Outcome {
	target := s.Bundle.TargetBlock
	hashes, err := c.chain.TransactionHashes(ctx, target)
	if err != nil {
		return bundlecore.RelayFailure(fmt.Errorf("%w: target block lookup: %w", bundlecore.ErrRelayUnavailable, err))
	}
	mined := make(map[common.Hash]struct{}, len(hashes))
	for _, h := range hashes {
		mined[h] = struct{}{}
	}
	for _, a := range s.Accounts {
		if _, ok := mined[a.TxHash]; !ok {
			return bundlecore.BlockPassed()
		}
	}
	return bundlecore.Included()
}
