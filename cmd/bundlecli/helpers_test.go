package main

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/flashbundle/internal/bundlecore"
	"github.com/ligun0805/flashbundle/internal/payload"
)

func TestMaskHex(t *testing.T) {
	require.Equal(t, "(unset)", maskHex(" "))
	require.Equal(t, "***", maskHex("0x1234"))
	require.Equal(t, "0xac09…ff80", maskHex("0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"))
}

func TestFriendlyRelayErr(t *testing.T) {
	require.Equal(t, "simulation not supported by relay", friendlyRelayErr("relay rejected bundle: -32601 method not found"))
	require.Equal(t, "network/DNS error", friendlyRelayErr("relay unavailable: eth_sendBundle: dial tcp 1.2.3.4:443: i/o timeout"))
	require.Equal(t, "something else", friendlyRelayErr("something else"))
}

func TestRouterFor(t *testing.T) {
	newCmd := func(args ...string) *cobra.Command {
		c := &cobra.Command{}
		c.Flags().String("dex", "uniswap", "")
		c.Flags().String("router", "", "")
		require.NoError(t, c.Flags().Parse(args))
		return c
	}
	r, err := routerFor(newCmd())
	require.NoError(t, err)
	require.Equal(t, payload.UniswapV2Router, r)

	r, err = routerFor(newCmd("--dex=pancakeswap"))
	require.NoError(t, err)
	require.Equal(t, payload.PancakeSwapRouter, r)

	r, err = routerFor(newCmd("--router=0x00000000000000000000000000000000000000c3"))
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xc3"), r)

	_, err = routerFor(newCmd("--dex=sushi"))
	require.Error(t, err)
}

func TestFormat(t *testing.T) {
	require.Equal(t, "1.500000", formatEther(big.NewInt(1_500_000_000_000_000_000)))
	require.Equal(t, "12.500000", formatUnits(big.NewInt(12_500_000), 6))
	require.Equal(t, "0x", withHexPrefix(""))
	require.Equal(t, "0xabcd", withHexPrefix("abcd"))
}

func TestSwapRejectsRecipientBeforeDialing(t *testing.T) {
	t.Setenv("IS_PRODUCTION", "")
	t.Setenv("RECIPIENT_ADDRESS", "not-an-address")
	// nothing listens here; reaching the dial would fail with a different error
	t.Setenv("NODE_WSS_SEPOLIA", "ws://127.0.0.1:1")

	rootCmd.SetArgs([]string{"swap",
		"--token-in", payload.USDCAddress.Hex(),
		"--token-out", payload.DAIAddress.Hex(),
	})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.ExecuteContext(context.Background())
	require.ErrorIs(t, err, bundlecore.ErrConfiguration)
	require.ErrorContains(t, err, "RECIPIENT_ADDRESS")
}
