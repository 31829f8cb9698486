package main

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ligun0805/flashbundle/internal/bundlecore"
	"github.com/ligun0805/flashbundle/internal/chain"
	"github.com/ligun0805/flashbundle/internal/payload"
)

var flashloanCmd = &cobra.Command{
	Use:   "flashloan <amount>",
	Short: "Bundle requestFlashLoan(token, amount) on the arbitrage contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decimals, _ := cmd.Flags().GetInt("decimals")
		amount, err := payload.ParseUnits(args[0], decimals)
		if err != nil {
			return err
		}
		arb, err := addressFlag(cmd, "arbitrager")
		if err != nil {
			return err
		}
		token, err := addressFlag(cmd, "token")
		if err != nil {
			return err
		}
		p, err := payload.FlashLoan(arb, token, amount)
		if err != nil {
			return err
		}
		fmt.Println("Only the owner of the arbitrage contract can call this function.")
		fmt.Printf("[flashloan] %s units of %s via %s\n", formatUnits(amount, decimals), token.Hex(), arb.Hex())

		s, err := openSession(cmd.Context(), cmd, true)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.submit(cmd.Context(), p)
	},
}

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Bundle swapExactTokensForTokens on a Uniswap-v2 style router",
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := routerFor(cmd)
		if err != nil {
			return err
		}
		tokenIn, err := addressFlag(cmd, "token-in")
		if err != nil {
			return err
		}
		tokenOut, err := addressFlag(cmd, "token-out")
		if err != nil {
			return err
		}
		amountStr, _ := cmd.Flags().GetString("amount-in")
		decimals, _ := cmd.Flags().GetInt("decimals")
		amountIn, err := payload.ParseUnits(amountStr, decimals)
		if err != nil {
			return err
		}
		minOutStr, _ := cmd.Flags().GetString("amount-out-min")
		minOut, ok := new(big.Int).SetString(strings.TrimSpace(minOutStr), 10)
		if !ok || minOut.Sign() < 0 {
			return fmt.Errorf("invalid --amount-out-min %q", minOutStr)
		}
		deadline, _ := cmd.Flags().GetDuration("deadline")
		// config errors surface before the node subscription opens
		cfg, _, err := settingsFrom(cmd)
		if err != nil {
			return err
		}
		if !common.IsHexAddress(cfg.Recipient) {
			return fmt.Errorf("%w: RECIPIENT_ADDRESS is not a valid address", bundlecore.ErrConfiguration)
		}
		p, err := payload.SwapExactTokens(payload.Swap{
			Router:       router,
			AmountIn:     amountIn,
			AmountOutMin: minOut,
			Path:         []common.Address{tokenIn, tokenOut},
			Recipient:    common.HexToAddress(cfg.Recipient),
			Deadline:     time.Now().Add(deadline),
		})
		if err != nil {
			return err
		}

		s, err := openSession(cmd.Context(), cmd, true)
		if err != nil {
			return err
		}
		defer s.Close()
		if minOut.Sign() == 0 {
			s.log.Warn("[swap] amount-out-min is 0, the swap accepts any price")
		}
		fmt.Printf("[swap] tokenIn: %s %s\n[swap] tokenOut: >= %s %s\n", amountStr, tokenIn.Hex(), minOut, tokenOut.Hex())
		return s.submit(cmd.Context(), p)
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Bundle an arbitrary contract call",
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := addressFlag(cmd, "to")
		if err != nil {
			return err
		}
		dataHex, _ := cmd.Flags().GetString("data")
		data, err := hexutil.Decode(withHexPrefix(dataHex))
		if err != nil {
			return fmt.Errorf("--data: %w", err)
		}
		s, err := openSession(cmd.Context(), cmd, true)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.submit(cmd.Context(), bundlecore.Payload{To: to, Data: data})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print relay reputation stats, and bundle stats with --bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, cmd, false)
		if err != nil {
			return err
		}
		defer s.Close()
		h, err := s.node.LatestHeader(ctx)
		if err != nil {
			return err
		}
		us, err := s.relay.UserStats(ctx, h.Number)
		if err != nil {
			return err
		}
		fmt.Printf("[stats] block %d high priority: %v\n", h.Number, us.IsHighPriority)
		fmt.Printf("  validator payments 1d/7d/all: %s / %s / %s ETH\n",
			formatEther(us.Last1dValidatorPayments), formatEther(us.Last7dValidatorPayments), formatEther(us.AllTimeValidatorPayments))

		bundleHex, _ := cmd.Flags().GetString("bundle")
		if bundleHex == "" {
			return nil
		}
		block, _ := cmd.Flags().GetUint64("block")
		if block == 0 {
			return errors.New("--block is required with --bundle")
		}
		bs, err := s.relay.BundleStats(ctx, common.HexToHash(bundleHex), block)
		if err != nil {
			return err
		}
		fmt.Printf("[stats] bundle simulated=%v at %s, received %s, considered by %d builder(s), sealed by %d\n",
			bs.IsSimulated, bs.SimulatedAt, bs.ReceivedAt, len(bs.ConsideredByBuildersAt), len(bs.SealedByBuildersAt))
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel bundles sent with a replacement uuid",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("uuid")
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("--uuid: %w", err)
		}
		s, err := openSession(cmd.Context(), cmd, false)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.relay.Cancel(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Println("[cancel] requested for", id)
		return nil
	},
}

var tipsCmd = &cobra.Command{
	Use:   "tips",
	Short: "Print recent priority fees and direct coinbase payments",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, cmd, false)
		if err != nil {
			return err
		}
		defer s.Close()
		blocks, _ := cmd.Flags().GetUint64("last")

		stats, err := s.node.TipStats(ctx, blocks, nil)
		if err != nil {
			return err
		}
		fmt.Printf("[tips] last %d blocks (fee history):\n", blocks)
		for _, st := range stats {
			fmt.Printf("  p%-3.0f min %s  avg %s  max %s gwei\n", st.Percentile,
				bundlecore.FormatGwei(st.Min), bundlecore.FormatGwei(st.Avg), bundlecore.FormatGwei(st.Max))
		}
		if tip, err := s.node.SuggestTip(ctx); err == nil {
			fmt.Printf("  node suggestion %s gwei\n", bundlecore.FormatGwei(tip))
		}

		if scan, _ := cmd.Flags().GetBool("coinbase"); !scan {
			return nil
		}
		vals, err := s.node.CoinbaseTransfers(ctx, blocks)
		if err != nil {
			return err
		}
		cs := chain.SummarizeTransfers(vals)
		fmt.Printf("[tips] coinbase payments: %d, sum %s ETH, p50 %s, p95 %s, p99 %s, max %s ETH\n",
			cs.Count, formatEther(cs.Sum), formatEther(cs.P50), formatEther(cs.P95), formatEther(cs.P99), formatEther(cs.Max))
		return nil
	},
}

func init() {
	flashloanCmd.Flags().String("arbitrager", payload.ArbitragerAddress.Hex(), "arbitrage contract address")
	flashloanCmd.Flags().String("token", payload.USDCAddress.Hex(), "token to borrow")
	flashloanCmd.Flags().Int("decimals", payload.USDCDecimals, "token decimals of <amount>")

	swapCmd.Flags().String("dex", "uniswap", "router preset: uniswap or pancakeswap")
	swapCmd.Flags().String("router", "", "router address, overrides --dex")
	swapCmd.Flags().String("token-in", "", "token spent")
	swapCmd.Flags().String("token-out", "", "token bought")
	swapCmd.Flags().String("amount-in", "0.001", "amount of token-in in whole units")
	swapCmd.Flags().Int("decimals", 18, "token-in decimals")
	swapCmd.Flags().String("amount-out-min", "0", "minimum amount of token-out in base units")
	swapCmd.Flags().String("recipient", "", "receiver of token-out (RECIPIENT_ADDRESS)")
	swapCmd.Flags().Duration("deadline", payload.DefaultSwapDeadline, "swap deadline from now")
	_ = swapCmd.MarkFlagRequired("token-in")
	_ = swapCmd.MarkFlagRequired("token-out")

	sendCmd.Flags().String("to", "", "destination contract")
	sendCmd.Flags().String("data", "0x", "hex call data")
	_ = sendCmd.MarkFlagRequired("to")

	statsCmd.Flags().String("bundle", "", "bundle hash for flashbots_getBundleStatsV2")
	statsCmd.Flags().Uint64("block", 0, "target block of --bundle")

	tipsCmd.Flags().Uint64("last", chain.DefaultMarketBlocks, "number of recent blocks")
	tipsCmd.Flags().Bool("coinbase", false, "also scan blocks for direct coinbase payments")

	cancelCmd.Flags().String("uuid", "", "replacement uuid")
	_ = cancelCmd.MarkFlagRequired("uuid")
}

func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	s, _ := cmd.Flags().GetString(name)
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q", name, s)
	}
	return common.HexToAddress(s), nil
}

func routerFor(cmd *cobra.Command) (common.Address, error) {
	if r, _ := cmd.Flags().GetString("router"); r != "" {
		return addressFlag(cmd, "router")
	}
	dex, _ := cmd.Flags().GetString("dex")
	switch strings.ToLower(dex) {
	case "uniswap", "":
		return payload.UniswapV2Router, nil
	case "pancakeswap":
		return payload.PancakeSwapRouter, nil
	}
	return common.Address{}, fmt.Errorf("--dex: unknown router preset %q", dex)
}

func withHexPrefix(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "0x" + s
	}
	return s
}
