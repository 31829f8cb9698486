// Package wallet holds the local key that signs bundle transactions.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/ligun0805/flashbundle/internal/bundlecore"
)

type Local struct {
	key    *ecdsa.PrivateKey
	addr   common.Address
	signer types.Signer
}

// FromHex parses a hex ECDSA private key (with or without 0x).
func FromHex(pkHex string, chainID *big.Int) (*Local, error) {
	prv, err := ParseKey(pkHex)
	if err != nil {
		return nil, err
	}
	return New(prv, chainID)
}

func New(prv *ecdsa.PrivateKey, chainID *big.Int) (*Local, error) {
	if prv == nil {
		return nil, fmt.Errorf("%w: no private key", bundlecore.ErrSigning)
	}
	if chainID == nil {
		return nil, errors.New("wallet: chain id is nil")
	}
	return &Local{
		key:    prv,
		addr:   gethcrypto.PubkeyToAddress(prv.PublicKey),
		signer: types.LatestSignerForChainID(chainID),
	}, nil
}

func ParseKey(pkHex string) (*ecdsa.PrivateKey, error) {
	h := strings.TrimPrefix(strings.TrimSpace(pkHex), "0x")
	if h == "" {
		return nil, fmt.Errorf("%w: empty private key", bundlecore.ErrSigning)
	}
	prv, err := gethcrypto.HexToECDSA(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bundlecore.ErrSigning, err)
	}
	return prv, nil
}

func (l *Local) Address() common.Address { return l.addr }

func (l *Local) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, l.signer, l.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bundlecore.ErrSigning, err)
	}
	return signed, nil
}
