// Package payload encodes contract calls into bundle payloads.
package payload

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ligun0805/flashbundle/internal/bundlecore"
)

// Known deployments used by the bundled commands.
var (
	ArbitragerAddress = common.HexToAddress("0x10e0564886F0E56f31D375Bb6CcFf300FD58c715")
	USDCAddress       = common.HexToAddress("0x94a9D9AC8a22534E3FaCa9F4e7F2E2cf85d5E4C8")
	DAIAddress        = common.HexToAddress("0xFF34B3d4Aee8ddCd6F9AFFFB6Fe49bD371b8a357")
	UniswapV2Router   = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	PancakeSwapRouter = common.HexToAddress("0xEfF92A263d31888d860bD50809A8D171709b7b1c")
)

const (
	USDCDecimals        = 6
	DefaultSwapDeadline = 10 * time.Minute
)

const flashloanABI = `[{"type":"function","name":"requestFlashLoan","stateMutability":"nonpayable",
"inputs":[{"name":"_token","type":"address"},{"name":"_amount","type":"uint256"}],"outputs":[]}]`

const routerABI = `[{"type":"function","name":"swapExactTokensForTokens","stateMutability":"nonpayable",
"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},
{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
"outputs":[{"name":"amounts","type":"uint256[]"}]}]`

// Encoder packs calls against one contract.
type Encoder struct {
	To  common.Address
	abi abi.ABI
}

// NewEncoder parses a JSON ABI for the contract at to.
func NewEncoder(to common.Address, abiJSON string) (*Encoder, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	return &Encoder{To: to, abi: parsed}, nil
}

func (e *Encoder) Encode(method string, args ...any) (bundlecore.Payload, error) {
	data, err := e.abi.Pack(method, args...)
	if err != nil {
		return bundlecore.Payload{}, fmt.Errorf("encode %s: %w", method, err)
	}
	return bundlecore.Payload{To: e.To, Data: data}, nil
}

// Method names the call encoded in data, if this contract's abi has it.
func (e *Encoder) Method(data []byte) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	m, err := e.abi.MethodById(data[:4])
	if err != nil {
		return "", false
	}
	return m.Name, true
}

// MethodName describes calldata for logs: the method name for the calls the
// bundled commands build, the raw selector otherwise.
func MethodName(data []byte) string {
	for _, e := range knownEncoders {
		if name, ok := e.Method(data); ok {
			return name
		}
	}
	if len(data) < 4 {
		return "(no calldata)"
	}
	return hexutil.Encode(data[:4])
}

func FlashloanEncoder(arbitrager common.Address) *Encoder {
	e, err := NewEncoder(arbitrager, flashloanABI)
	if err != nil {
		panic(err)
	}
	return e
}

func RouterEncoder(router common.Address) *Encoder {
	e, err := NewEncoder(router, routerABI)
	if err != nil {
		panic(err)
	}
	return e
}

var knownEncoders = []*Encoder{FlashloanEncoder(common.Address{}), RouterEncoder(common.Address{})}

// FlashLoan encodes requestFlashLoan(token, amount). Only the arbitrager
// owner can call it.
func FlashLoan(arbitrager, token common.Address, amount *big.Int) (bundlecore.Payload, error) {
	if amount == nil || amount.Sign() <= 0 {
		return bundlecore.Payload{}, errors.New("flashloan amount must be positive")
	}
	return FlashloanEncoder(arbitrager).Encode("requestFlashLoan", token, amount)
}

type Swap struct {
	Router       common.Address
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Path         []common.Address
	Recipient    common.Address
	Deadline     time.Time
}

// SwapExactTokens encodes a Uniswap-v2 swapExactTokensForTokens call.
func SwapExactTokens(s Swap) (bundlecore.Payload, error) {
	if s.AmountIn == nil || s.AmountIn.Sign() <= 0 {
		return bundlecore.Payload{}, errors.New("swap amountIn must be positive")
	}
	if len(s.Path) < 2 {
		return bundlecore.Payload{}, errors.New("swap path needs at least two tokens")
	}
	if s.Recipient == (common.Address{}) {
		return bundlecore.Payload{}, errors.New("swap recipient is empty")
	}
	minOut := s.AmountOutMin
	if minOut == nil {
		minOut = new(big.Int)
	}
	deadline := big.NewInt(s.Deadline.Unix())
	return RouterEncoder(s.Router).Encode("swapExactTokensForTokens", s.AmountIn, minOut, s.Path, s.Recipient, deadline)
}

// ParseUnits converts a decimal string such as "12.5" to base units.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	r, ok := new(big.Rat).SetString(s)
	if !ok || r.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)))
	if !r.IsInt() {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	return new(big.Int).Set(r.Num()), nil
}
