package bundlecore

import (
	"fmt"
	"math/big"
)

// EIP-1559 allows the base fee to grow by at most 1/8 per block.
const (
	baseFeeGrowthNum = 1125
	baseFeeGrowthDen = 1000
)

var (
	// DefaultPriorityFee is the tip used when none is configured.
	DefaultPriorityFee = GweiToWei(3)
	// DefaultLegacyGasPrice is the fixed price used on chains without a base fee.
	DefaultLegacyGasPrice = GweiToWei(12)
)

type FeeMode uint8

const (
	FeeModeLegacy FeeMode = iota + 1
	FeeModeEIP1559
)

func (m FeeMode) String() string {
	switch m {
	case FeeModeLegacy:
		return "legacy"
	case FeeModeEIP1559:
		return "eip1559"
	default:
		return "unknown"
	}
}

// FeeQuote holds either a legacy gas price or an EIP-1559 fee pair, depending on Mode.
type FeeQuote struct {
	Mode                 FeeMode
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

func (q FeeQuote) String() string {
	if q.Mode == FeeModeLegacy {
		return fmt.Sprintf("legacy gasPrice=%s gwei", fmtGwei(q.GasPrice))
	}
	return fmt.Sprintf("eip1559 maxFee=%s gwei tip=%s gwei", fmtGwei(q.MaxFeePerGas), fmtGwei(q.MaxPriorityFeePerGas))
}

// MaxBaseFeeInFutureBlock returns the highest base fee reachable `blocks`
// blocks after a block with the given base fee.
func MaxBaseFeeInFutureBlock(baseFee *big.Int, blocks uint64) *big.Int {
	out := new(big.Int).Set(baseFee)
	num, den, one := big.NewInt(baseFeeGrowthNum), big.NewInt(baseFeeGrowthDen), big.NewInt(1)
	for i := uint64(0); i < blocks; i++ {
		out.Mul(out, num)
		out.Quo(out, den)
		out.Add(out, one)
	}
	return out
}

// FeeStrategy prices transactions for a bundle targeting LeadTime blocks ahead.
type FeeStrategy struct {
	PriorityFee    *big.Int
	LegacyGasPrice *big.Int
	LeadTime       uint64
}

func NewFeeStrategy(priorityFee, legacyGasPrice *big.Int, leadTime uint64) (*FeeStrategy, error) {
	if leadTime == 0 {
		return nil, fmt.Errorf("%w: lead time must be at least one block", ErrFeeProjection)
	}
	if priorityFee == nil {
		priorityFee = DefaultPriorityFee
	}
	if priorityFee.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative priority fee", ErrFeeProjection)
	}
	if legacyGasPrice == nil || legacyGasPrice.Sign() <= 0 {
		legacyGasPrice = DefaultLegacyGasPrice
	}
	return &FeeStrategy{
		PriorityFee:    new(big.Int).Set(priorityFee),
		LegacyGasPrice: new(big.Int).Set(legacyGasPrice),
		LeadTime:       leadTime,
	}, nil
}

// Quote prices a transaction for the block following a head with the given
// base fee. A nil base fee means the chain has no EIP-1559 fee market.
func (s *FeeStrategy) Quote(baseFee *big.Int) FeeQuote {
	if baseFee == nil {
		return FeeQuote{Mode: FeeModeLegacy, GasPrice: new(big.Int).Set(s.LegacyGasPrice)}
	}
	maxBase := MaxBaseFeeInFutureBlock(baseFee, s.LeadTime)
	return FeeQuote{
		Mode:                 FeeModeEIP1559,
		MaxFeePerGas:         maxBase.Add(maxBase, s.PriorityFee),
		MaxPriorityFeePerGas: new(big.Int).Set(s.PriorityFee),
	}
}
