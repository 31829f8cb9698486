package chain

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

const (
	retryAttempts = 3
	retryBackoff  = 200 * time.Millisecond
)

// EstimateGas runs eth_estimateGas for a call from the signer against the
// latest state, retrying briefly on node hiccups.
func (c *Client) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	msg := ethereum.CallMsg{From: from, To: &to, Data: data, Value: big.NewInt(0)}
	var gas uint64
	err := withRetry(ctx, retryBackoff, func() error {
		g, err := c.ec.EstimateGas(ctx, msg)
		gas = g
		return err
	})
	return gas, err
}

func withRetry(ctx context.Context, backoff time.Duration, fn func() error) error {
	var err error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if err = fn(); err == nil || IsRevert(err) {
			return err
		}
		if attempt == retryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if isRateLimitError(err) {
			backoff *= 2
		}
	}
	return err
}

func isRateLimitError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005")
}

// IsRevert reports whether err is an EVM revert rather than a transport error.
func IsRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), "execution reverted")
}

// RevertReason trims a node error down to its "execution reverted" part.
func RevertReason(err error) string {
	s := err.Error()
	if i := strings.Index(s, "execution reverted"); i >= 0 {
		return s[i:]
	}
	return s
}
