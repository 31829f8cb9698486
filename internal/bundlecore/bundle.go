package bundlecore

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
)

// SignedBundle is an ordered list of signed transactions aimed at one block.
type SignedBundle struct {
	Transactions    []*types.Transaction
	ReplacementUUID uuid.UUID
	TargetBlock     uint64
}

// Pack wraps already signed transactions into a bundle. Order is kept as
// given since execution order is part of the bundle's meaning.
func Pack(txs []*types.Transaction, id uuid.UUID, target uint64) (*SignedBundle, error) {
	if len(txs) == 0 {
		return nil, errors.New("bundle has no transactions")
	}
	if id == uuid.Nil {
		return nil, errors.New("bundle replacement uuid is nil")
	}
	out := make([]*types.Transaction, len(txs))
	for i, tx := range txs {
		if tx == nil {
			return nil, fmt.Errorf("bundle transaction %d is nil", i)
		}
		out[i] = tx
	}
	return &SignedBundle{Transactions: out, ReplacementUUID: id, TargetBlock: target}, nil
}

// RawTransactions returns the 0x-prefixed binary encoding of every transaction.
func (b *SignedBundle) RawTransactions() ([]string, error) {
	out := make([]string, 0, len(b.Transactions))
	for i, tx := range b.Transactions {
		h, err := txAsHex(tx)
		if err != nil {
			return nil, fmt.Errorf("encode tx %d: %w", i, err)
		}
		out = append(out, h)
	}
	return out, nil
}

func (b *SignedBundle) TxHashes() []common.Hash {
	out := make([]common.Hash, len(b.Transactions))
	for i, tx := range b.Transactions {
		out[i] = tx.Hash()
	}
	return out
}

// AccountNonce ties a bundle transaction to its sender and nonce.
type AccountNonce struct {
	Account common.Address
	Nonce   uint64
	TxHash  common.Hash
}

// Submission is the handle of a bundle accepted by the relay.
type Submission struct {
	Bundle     *SignedBundle
	BundleHash common.Hash
	Accounts   []AccountNonce
}
