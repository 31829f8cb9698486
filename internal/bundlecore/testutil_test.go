package bundlecore

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var testChainID = big.NewInt(11155111)

type keySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
	err  error
}

func newKeySigner(t *testing.T) *keySigner {
	t.Helper()
	k, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &keySigner{key: k, addr: crypto.PubkeyToAddress(k.PublicKey)}
}

func (s *keySigner) Address() common.Address { return s.addr }

func (s *keySigner) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return types.SignTx(tx, types.LatestSignerForChainID(testChainID), s.key)
}
