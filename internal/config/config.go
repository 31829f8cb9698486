package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/ligun0805/flashbundle/internal/bundlecore"
	"github.com/ligun0805/flashbundle/internal/flashbots"
)

const (
	MainnetChainID uint64 = 1
	SepoliaChainID uint64 = 11155111

	DefaultBlocksInTheFuture  = 2
	DefaultPriorityFeeGwei    = 3
	DefaultLegacyGasPriceGwei = 12
	DefaultLogLevel           = "info"
)

// Settings keeps all configuration options.
type Settings struct {
	Production          bool
	ChainID             uint64
	NodeWSS             string
	RelayURL            string
	FlashbotsAuthKeyHex string
	PrivateKeyHex       string
	Recipient           string
	BlocksInTheFuture   uint64
	PriorityFeeGwei     int64
	LegacyGasPriceGwei  int64
	GasLimit            uint64
	Simulate            bool
	CancelOnStop        bool
	Preflight           bool
	LogLevel            string
	LogJSON             bool
}

// Load reads settings from v (bound command flags and the environment),
// then from the raw environment, supporting both UPPER_CASE and lower_case
// keys. v may be nil.
func Load(v *viper.Viper) Settings {
	if v == nil {
		v = viper.New()
	}
	v.AutomaticEnv()

	get := func(keys []string, def string) string {
		for _, k := range keys {
			if v.IsSet(k) {
				if s := strings.TrimSpace(v.GetString(k)); s != "" {
					return s
				}
			}
			if s := strings.TrimSpace(os.Getenv(k)); s != "" {
				return s
			}
		}
		return def
	}
	getUint := func(keys []string, def uint64) uint64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return n
		}
		return def
	}
	getInt64 := func(keys []string, def int64) int64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		return def
	}
	getBool := func(keys []string, def bool) bool {
		s := strings.ToLower(get(keys, ""))
		if s == "" {
			return def
		}
		return s == "1" || s == "true" || s == "yes" || s == "on"
	}

	st := Settings{}
	st.Production = getBool([]string{"production", "IS_PRODUCTION", "is_production"}, false)

	defChain, nodeKeys := SepoliaChainID, []string{"node-wss", "NODE_WSS_SEPOLIA", "node_wss_sepolia"}
	if st.Production {
		defChain, nodeKeys = MainnetChainID, []string{"node-wss", "NODE_WSS", "node_wss"}
	}
	st.ChainID = getUint([]string{"chain-id", "CHAIN_ID", "chain_id"}, defChain)
	st.NodeWSS = get(nodeKeys, "")
	st.RelayURL = get([]string{"relay", "FLASHBOTS_RELAY", "flashbots_relay"}, flashbots.RelayURLPerNetwork[st.ChainID])
	st.FlashbotsAuthKeyHex = get([]string{"FLASHBOTS_AUTH_KEY", "flashbots_auth_key"}, "")
	st.PrivateKeyHex = get([]string{"PRIVATE_KEY", "private_key"}, "")
	st.Recipient = get([]string{"recipient", "RECIPIENT_ADDRESS", "recipient_address"}, "")

	st.BlocksInTheFuture = getUint([]string{"blocks", "BLOCKS_IN_THE_FUTURE", "blocks_in_the_future"}, DefaultBlocksInTheFuture)
	st.PriorityFeeGwei = getInt64([]string{"tip-gwei", "PRIORITY_FEE_GWEI", "priority_fee_gwei"}, DefaultPriorityFeeGwei)
	st.LegacyGasPriceGwei = getInt64([]string{"legacy-gas-price-gwei", "LEGACY_GAS_PRICE_GWEI", "legacy_gas_price_gwei"}, DefaultLegacyGasPriceGwei)
	st.GasLimit = getUint([]string{"gas-limit", "GAS_LIMIT", "gas_limit"}, bundlecore.DefaultGasLimit)
	st.Simulate = getBool([]string{"simulate", "SIMULATE"}, false)
	st.CancelOnStop = getBool([]string{"cancel-on-stop", "CANCEL_ON_STOP", "cancel_on_stop"}, false)
	st.Preflight = getBool([]string{"preflight", "PREFLIGHT"}, false)

	st.LogLevel = get([]string{"log-level", "LOG_LEVEL", "log_level"}, DefaultLogLevel)
	st.LogJSON = getBool([]string{"json", "LOG_JSON", "log_json"}, false)
	return st
}

// Validate checks everything needed to start a submission run except the
// signing key, which the CLI may still prompt for.
func (s Settings) Validate() error {
	switch {
	case s.ChainID == 0:
		return fmt.Errorf("%w: chain id is not set", bundlecore.ErrConfiguration)
	case s.NodeWSS == "":
		if s.Production {
			return fmt.Errorf("%w: NODE_WSS is empty", bundlecore.ErrConfiguration)
		}
		return fmt.Errorf("%w: NODE_WSS_SEPOLIA is empty", bundlecore.ErrConfiguration)
	case s.RelayURL == "":
		return fmt.Errorf("%w: no relay known for chain %d, set FLASHBOTS_RELAY", bundlecore.ErrConfiguration, s.ChainID)
	case s.BlocksInTheFuture == 0:
		return fmt.Errorf("%w: BLOCKS_IN_THE_FUTURE must be at least 1", bundlecore.ErrFeeProjection)
	case s.PriorityFeeGwei < 0:
		return fmt.Errorf("%w: negative priority fee", bundlecore.ErrFeeProjection)
	case s.GasLimit == 0:
		return fmt.Errorf("%w: gas limit is 0", bundlecore.ErrConfiguration)
	}
	return nil
}
