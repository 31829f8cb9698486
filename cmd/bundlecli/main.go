package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "bundlecli",
	Short:         "Submit transactions as private Flashbots bundles until they land",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.Uint64("blocks", 0, "lead time in blocks (BLOCKS_IN_THE_FUTURE, default 2)")
	f.Int64("tip-gwei", 0, "priority fee in gwei (PRIORITY_FEE_GWEI, default 3)")
	f.Uint64("gas-limit", 0, "gas limit per transaction (GAS_LIMIT, default 500000)")
	f.String("relay", "", "relay endpoint (FLASHBOTS_RELAY)")
	f.String("node-wss", "", "websocket endpoint of the execution node")
	f.Bool("simulate", false, "eth_callBundle before every submission")
	f.Bool("cancel-on-stop", false, "eth_cancelBundle in-flight bundles on interrupt")
	f.Bool("preflight", false, "eth_estimateGas every transaction before the first submission")
	f.String("log-level", "", "log level: trace, debug, info, warn, error")
	f.Bool("json", false, "log in JSON format instead of text")

	rootCmd.AddCommand(flashloanCmd, swapCmd, sendCmd, statsCmd, tipsCmd, cancelCmd)
}

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
