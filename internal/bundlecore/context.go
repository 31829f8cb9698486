package bundlecore

import (
	"fmt"
	"math/big"
	"strings"
)

// ChainContext is the per-run configuration, built once and read only.
type ChainContext struct {
	ChainID  *big.Int
	RelayURL string
	LeadTime uint64
	Signer   Signer
}

func NewChainContext(chainID *big.Int, relayURL string, leadTime uint64, signer Signer) (ChainContext, error) {
	switch {
	case chainID == nil || chainID.Sign() <= 0:
		return ChainContext{}, fmt.Errorf("%w: chain id is not set", ErrConfiguration)
	case strings.TrimSpace(relayURL) == "":
		return ChainContext{}, fmt.Errorf("%w: relay endpoint is empty", ErrConfiguration)
	case signer == nil:
		return ChainContext{}, fmt.Errorf("%w: no signer", ErrConfiguration)
	case leadTime == 0:
		return ChainContext{}, fmt.Errorf("%w: lead time must be at least one block", ErrFeeProjection)
	}
	return ChainContext{
		ChainID:  new(big.Int).Set(chainID),
		RelayURL: strings.TrimSpace(relayURL),
		LeadTime: leadTime,
		Signer:   signer,
	}, nil
}
