package bundlecore

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/google/uuid"

	"github.com/ligun0805/flashbundle/internal/chain"
)

// Signer signs transactions on behalf of a single account.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction) (*types.Transaction, error)
}

// HeadSource delivers new block headers to subscribers.
type HeadSource interface {
	SubscribeHeads(ch chan<- chain.Header) event.Subscription
}

// NonceReader returns the mined transaction count of an account.
type NonceReader interface {
	NonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// Relay is the private bundle endpoint.
type Relay interface {
	SignBundle(ctx context.Context, signer Signer, txs []*UnsignedTx) ([]*types.Transaction, error)
	Submit(ctx context.Context, b *SignedBundle) (*Submission, error)
	AwaitResolution(ctx context.Context, s *Submission) (Outcome, error)
	Cancel(ctx context.Context, replacementUUID uuid.UUID) error
	Simulate(ctx context.Context, b *SignedBundle) (*SimulationResult, error)
	UserStats(ctx context.Context, block uint64) (*UserStats, error)
	BundleStats(ctx context.Context, bundleHash common.Hash, block uint64) (*BundleStats, error)
}

type SimulatedTx struct {
	TxHash  common.Hash
	GasUsed uint64
	Error   string
	Revert  string
}

type SimulationResult struct {
	BundleHash       common.Hash
	StateBlockNumber uint64
	TotalGasUsed     uint64
	CoinbaseDiff     *big.Int
	Results          []SimulatedTx
}

// Failure returns the first per-transaction error or revert reason, if any.
func (r *SimulationResult) Failure() string {
	for _, tx := range r.Results {
		if tx.Error != "" {
			return tx.Error
		}
		if tx.Revert != "" {
			return tx.Revert
		}
	}
	return ""
}

type UserStats struct {
	IsHighPriority           bool
	AllTimeValidatorPayments *big.Int
	AllTimeGasSimulated      *big.Int
	Last7dValidatorPayments  *big.Int
	Last7dGasSimulated       *big.Int
	Last1dValidatorPayments  *big.Int
	Last1dGasSimulated       *big.Int
}

type BuilderEvent struct {
	Pubkey    string
	Timestamp string
}

type BundleStats struct {
	IsHighPriority         bool
	IsSimulated            bool
	SimulatedAt            string
	ReceivedAt             string
	ConsideredByBuildersAt []BuilderEvent
	SealedByBuildersAt     []BuilderEvent
}
