package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/flashbundle/internal/bundlecore"
)

func TestLoadDefaultsToSepolia(t *testing.T) {
	t.Setenv("IS_PRODUCTION", "")
	t.Setenv("NODE_WSS_SEPOLIA", "wss://sepolia.example")
	t.Setenv("NODE_WSS", "wss://mainnet.example")

	st := Load(nil)
	require.False(t, st.Production)
	require.Equal(t, SepoliaChainID, st.ChainID)
	require.Equal(t, "wss://sepolia.example", st.NodeWSS)
	require.Equal(t, "https://relay-sepolia.flashbots.net", st.RelayURL)
	require.Equal(t, uint64(2), st.BlocksInTheFuture)
	require.Equal(t, int64(3), st.PriorityFeeGwei)
	require.Equal(t, int64(12), st.LegacyGasPriceGwei)
	require.Equal(t, bundlecore.DefaultGasLimit, st.GasLimit)
	require.Equal(t, "info", st.LogLevel)
	require.NoError(t, st.Validate())
}

func TestLoadProduction(t *testing.T) {
	t.Setenv("IS_PRODUCTION", "true")
	t.Setenv("NODE_WSS", "wss://mainnet.example")
	t.Setenv("priority_fee_gwei", "5")
	t.Setenv("BLOCKS_IN_THE_FUTURE", "1")
	t.Setenv("SIMULATE", "yes")
	t.Setenv("PREFLIGHT", "1")

	st := Load(nil)
	require.True(t, st.Production)
	require.Equal(t, MainnetChainID, st.ChainID)
	require.Equal(t, "wss://mainnet.example", st.NodeWSS)
	require.Equal(t, "https://relay.flashbots.net", st.RelayURL)
	require.Equal(t, int64(5), st.PriorityFeeGwei)
	require.Equal(t, uint64(1), st.BlocksInTheFuture)
	require.True(t, st.Simulate)
	require.True(t, st.Preflight)
	require.False(t, st.CancelOnStop)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("IS_PRODUCTION", "")
	t.Setenv("NODE_WSS_SEPOLIA", "wss://sepolia.example")
	t.Setenv("PRIORITY_FEE_GWEI", "5")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int64("tip-gwei", 0, "")
	fs.Uint64("blocks", 0, "")
	require.NoError(t, fs.Parse([]string{"--tip-gwei=9"}))
	v := viper.New()
	require.NoError(t, v.BindPFlags(fs))

	st := Load(v)
	require.Equal(t, int64(9), st.PriorityFeeGwei)
	// unchanged flags fall through to env and defaults
	require.Equal(t, uint64(2), st.BlocksInTheFuture)
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("GAS_LIMIT", "lots")
	t.Setenv("NODE_WSS_SEPOLIA", "wss://sepolia.example")
	require.Equal(t, bundlecore.DefaultGasLimit, Load(nil).GasLimit)
}

func TestValidate(t *testing.T) {
	ok := Settings{ChainID: 1, NodeWSS: "wss://x", RelayURL: "https://r", BlocksInTheFuture: 2, GasLimit: 1}
	require.NoError(t, ok.Validate())

	testCases := []struct {
		name   string
		mutate func(*Settings)
		want   error
	}{
		{"no node", func(s *Settings) { s.NodeWSS = "" }, bundlecore.ErrConfiguration},
		{"no relay", func(s *Settings) { s.RelayURL = "" }, bundlecore.ErrConfiguration},
		{"no chain", func(s *Settings) { s.ChainID = 0 }, bundlecore.ErrConfiguration},
		{"zero lead time", func(s *Settings) { s.BlocksInTheFuture = 0 }, bundlecore.ErrFeeProjection},
		{"negative tip", func(s *Settings) { s.PriorityFeeGwei = -1 }, bundlecore.ErrFeeProjection},
		{"zero gas", func(s *Settings) { s.GasLimit = 0 }, bundlecore.ErrConfiguration},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := ok
			tc.mutate(&s)
			require.ErrorIs(t, s.Validate(), tc.want)
		})
	}
}
