package flashbots

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type rpcReq struct {
	Jsonrpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcResp struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    any    `json:"data,omitempty"`
	} `json:"error,omitempty"`
}

// ===== eth_sendBundle / eth_callBundle / eth_cancelBundle =====
type sendBundleArgs struct {
	Txs             []string `json:"txs"`
	BlockNumber     string   `json:"blockNumber"`
	ReplacementUUID string   `json:"replacementUuid,omitempty"`
}

type sendBundleResult struct {
	BundleHash common.Hash `json:"bundleHash"`
}

type callBundleArgs struct {
	Txs              []string `json:"txs"`
	BlockNumber      string   `json:"blockNumber"`
	StateBlockNumber string   `json:"stateBlockNumber"` // "latest"
}

type callBundleTxResult struct {
	TxHash  common.Hash `json:"txHash"`
	GasUsed uint64      `json:"gasUsed"`
	Error   string      `json:"error,omitempty"`
	Revert  string      `json:"revert,omitempty"`
}

type callBundleResult struct {
	BundleHash       common.Hash          `json:"bundleHash"`
	BundleGasPrice   string               `json:"bundleGasPrice"`
	CoinbaseDiff     string               `json:"coinbaseDiff"`
	StateBlockNumber uint64               `json:"stateBlockNumber"`
	TotalGasUsed     uint64               `json:"totalGasUsed"`
	Results          []callBundleTxResult `json:"results"`
}

type cancelBundleArgs struct {
	ReplacementUUID string `json:"replacementUuid"`
}

// ===== flashbots_getUserStatsV2 / flashbots_getBundleStatsV2 =====
type userStatsArgs struct {
	BlockNumber string `json:"blockNumber"`
}

type userStatsResult struct {
	IsHighPriority           bool   `json:"isHighPriority"`
	AllTimeValidatorPayments string `json:"allTimeValidatorPayments"`
	AllTimeGasSimulated      string `json:"allTimeGasSimulated"`
	Last7dValidatorPayments  string `json:"last7dValidatorPayments"`
	Last7dGasSimulated       string `json:"last7dGasSimulated"`
	Last1dValidatorPayments  string `json:"last1dValidatorPayments"`
	Last1dGasSimulated       string `json:"last1dGasSimulated"`
}

type bundleStatsArgs struct {
	BundleHash  common.Hash `json:"bundleHash"`
	BlockNumber string      `json:"blockNumber"`
}

type builderEvent struct {
	Pubkey    string `json:"pubkey"`
	Timestamp string `json:"timestamp"`
}

type bundleStatsResult struct {
	IsHighPriority         bool           `json:"isHighPriority"`
	IsSimulated            bool           `json:"isSimulated"`
	SimulatedAt            string         `json:"simulatedAt"`
	ReceivedAt             string         `json:"receivedAt"`
	ConsideredByBuildersAt []builderEvent `json:"consideredByBuildersAt"`
	SealedByBuildersAt     []builderEvent `json:"sealedByBuildersAt"`
}

// Relay stats are decimal strings; unparsable values become nil.
func parseDecimal(s string) *big.Int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil
	}
	return v
}
