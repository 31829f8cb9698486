package bundlecore

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DefaultGasLimit is the gas ceiling applied when the caller sets none.
const DefaultGasLimit uint64 = 500_000

// Payload is an opaque encoded call and its destination.
type Payload struct {
	To   common.Address
	Data []byte
}

// UnsignedTx is a transaction envelope waiting for a nonce and a signature.
// A nil Nonce is filled in by the relay client when the bundle is signed.
type UnsignedTx struct {
	To      common.Address
	Data    []byte
	Gas     uint64
	Nonce   *uint64
	ChainID *big.Int
	Fee     FeeQuote
}

// BuildTx assembles an unsigned transaction. The gas limit is a ceiling and
// is never estimated; running out of gas only shows up as a missed bundle.
func BuildTx(p Payload, gasLimit uint64, q FeeQuote, chainID *big.Int, nonce *uint64) *UnsignedTx {
	tx := &UnsignedTx{
		To:      p.To,
		Data:    common.CopyBytes(p.Data),
		Gas:     gasLimit,
		ChainID: new(big.Int).Set(chainID),
		Fee:     q,
	}
	if nonce != nil {
		n := *nonce
		tx.Nonce = &n
	}
	return tx
}

// Envelope returns the go-ethereum transaction for the given nonce.
func (u *UnsignedTx) Envelope(nonce uint64) (*types.Transaction, error) {
	to := u.To
	switch u.Fee.Mode {
	case FeeModeLegacy:
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: new(big.Int).Set(u.Fee.GasPrice),
			Gas:      u.Gas,
			To:       &to,
			Value:    big.NewInt(0),
			Data:     u.Data,
		}), nil
	case FeeModeEIP1559:
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   new(big.Int).Set(u.ChainID),
			Nonce:     nonce,
			GasTipCap: new(big.Int).Set(u.Fee.MaxPriorityFeePerGas),
			GasFeeCap: new(big.Int).Set(u.Fee.MaxFeePerGas),
			Gas:       u.Gas,
			To:        &to,
			Value:     big.NewInt(0),
			Data:      u.Data,
		}), nil
	default:
		return nil, fmt.Errorf("unknown fee mode %d", u.Fee.Mode)
	}
}

// Hex-encode transaction.
func txAsHex(tx *types.Transaction) (string, error) {
	b, err := tx.MarshalBinary()
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}
