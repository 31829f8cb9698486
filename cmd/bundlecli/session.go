package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/ligun0805/flashbundle/internal/bundlecore"
	"github.com/ligun0805/flashbundle/internal/chain"
	"github.com/ligun0805/flashbundle/internal/config"
	"github.com/ligun0805/flashbundle/internal/flashbots"
	"github.com/ligun0805/flashbundle/internal/logging"
	"github.com/ligun0805/flashbundle/internal/payload"
	"github.com/ligun0805/flashbundle/internal/wallet"
)

// session is everything a command needs to talk to the node and the relay.
type session struct {
	cfg     config.Settings
	log     *logrus.Entry
	node    *chain.Client
	watcher *chain.Watcher
	wallet  *wallet.Local
	relay   *flashbots.Client
	cc      bundlecore.ChainContext
}

func settingsFrom(cmd *cobra.Command) (config.Settings, *logrus.Entry, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return config.Settings{}, nil, err
	}
	cfg := config.Load(v)
	log, err := logging.Setup(cfg.LogJSON, cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

// openSession dials the node and builds the relay client. The signing key
// is only loaded when withSigner is set.
func openSession(ctx context.Context, cmd *cobra.Command, withSigner bool) (*session, error) {
	cfg, log, err := settingsFrom(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, k := range []string{"FLASHBOTS_AUTH_KEY", "PRIVATE_KEY"} {
		if os.Getenv(k) == "" {
			log.Warnf("%s should be defined as an environment variable", k)
		}
	}

	chainID := new(big.Int).SetUint64(cfg.ChainID)
	var w *wallet.Local
	if withSigner {
		if w, err = loadWallet(cfg, chainID); err != nil {
			return nil, err
		}
	}
	var authKey *ecdsa.PrivateKey
	if cfg.FlashbotsAuthKeyHex != "" {
		if authKey, err = wallet.ParseKey(cfg.FlashbotsAuthKeyHex); err != nil {
			return nil, fmt.Errorf("FLASHBOTS_AUTH_KEY: %w", err)
		}
	}
	var cc bundlecore.ChainContext
	if w != nil {
		if cc, err = bundlecore.NewChainContext(chainID, cfg.RelayURL, cfg.BlocksInTheFuture, w); err != nil {
			return nil, err
		}
	}

	node, err := chain.Dial(ctx, cfg.NodeWSS)
	if err != nil {
		return nil, err
	}
	if got, err := node.ChainID(ctx); err != nil {
		node.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	} else if got.Cmp(chainID) != 0 {
		node.Close()
		return nil, fmt.Errorf("%w: node is on chain %s, configured %s", bundlecore.ErrConfiguration, got, chainID)
	}
	watcher := node.Watcher()
	if err := watcher.Start(ctx); err != nil {
		node.Close()
		return nil, fmt.Errorf("subscribe newHeads: %w", err)
	}
	relay, err := flashbots.NewClient(flashbots.Config{
		RelayURL: cfg.RelayURL,
		AuthKey:  authKey,
		ChainID:  chainID,
		Chain:    node,
		Heads:    watcher,
		Log:      log,
	})
	if err != nil {
		watcher.Close()
		node.Close()
		return nil, err
	}
	s := &session{cfg: cfg, log: log, node: node, watcher: watcher, wallet: w, relay: relay, cc: cc}
	s.printConfig(ctx)
	return s, nil
}

func loadWallet(cfg config.Settings, chainID *big.Int) (*wallet.Local, error) {
	pk := cfg.PrivateKeyHex
	if pk == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, fmt.Errorf("%w: PRIVATE_KEY is empty", bundlecore.ErrSigning)
		}
		var err error
		if pk, err = readPassword("Private key of the sending account: "); err != nil {
			return nil, err
		}
	}
	return wallet.FromHex(pk, chainID)
}

func (s *session) Close() {
	s.watcher.Close()
	s.node.Close()
}

func (s *session) printConfig(ctx context.Context) {
	fmt.Println("=== CONFIG (.env) ===")
	fmt.Println("CHAIN_ID              :", s.cfg.ChainID)
	fmt.Println("RELAY                 :", s.cfg.RelayURL)
	fmt.Println("FLASHBOTS_AUTH_KEY    :", maskHex(s.cfg.FlashbotsAuthKeyHex))
	fmt.Println("  -> auth address     :", s.relay.AuthAddress().Hex())
	if s.wallet != nil {
		bal, _ := s.node.BalanceAt(ctx, s.wallet.Address())
		fmt.Println("PRIVATE_KEY           :", maskHex(s.cfg.PrivateKeyHex))
		fmt.Println("  -> address          :", s.wallet.Address().Hex())
		fmt.Println("  -> balance          :", formatEther(bal), "ETH")
	}
	fmt.Println("BLOCKS_IN_THE_FUTURE  :", s.cfg.BlocksInTheFuture)
	fmt.Println("Tip (gwei)            :", s.cfg.PriorityFeeGwei)
	fmt.Println("Legacy price (gwei)   :", s.cfg.LegacyGasPriceGwei)
	fmt.Println("Gas limit             :", s.cfg.GasLimit)
	fmt.Println("Simulate              :", s.cfg.Simulate)
	fmt.Println("Preflight             :", s.cfg.Preflight)
	fmt.Println("=====================")
}

// submit runs the loop for payloads until it reaches a terminal outcome.
func (s *session) submit(ctx context.Context, payloads ...bundlecore.Payload) error {
	if s.cfg.Preflight {
		if err := s.preflight(ctx, payloads); err != nil {
			return err
		}
	}
	r, err := bundlecore.NewRunner(s.cc, s.relay, s.watcher, s.node, bundlecore.Options{
		GasLimit:       s.cfg.GasLimit,
		LegacyGasPrice: bundlecore.GweiToWei(s.cfg.LegacyGasPriceGwei),
		Simulate:       s.cfg.Simulate,
		CancelOnStop:   s.cfg.CancelOnStop,
		OnOutcome:      printCycle,
		Log:            s.log,
	})
	if err != nil {
		return err
	}
	res, err := r.Run(ctx, bundlecore.GweiToWei(s.cfg.PriorityFeeGwei), payloads...)
	if err != nil {
		return err
	}
	fmt.Printf("[done] %s at target block %d after %d cycle(s)\n", res.Outcome.Kind, res.FinalTarget, res.Cycles)
	if res.Outcome.Kind == bundlecore.OutcomeAccountNonceTooHigh {
		return res.Outcome.Err
	}
	return nil
}

// preflight estimates each call against the latest state. Later calls in a
// bundle may depend on earlier ones, so only reverts of the first call fail.
func (s *session) preflight(ctx context.Context, payloads []bundlecore.Payload) error {
	from := s.wallet.Address()
	for i, p := range payloads {
		gas, err := s.node.EstimateGas(ctx, from, p.To, p.Data)
		if err != nil {
			if i == 0 && chain.IsRevert(err) {
				return fmt.Errorf("preflight: %s", chain.RevertReason(err))
			}
			s.log.WithError(err).WithFields(logrus.Fields{"tx": i, "method": payload.MethodName(p.Data)}).Warn("[preflight] estimate failed")
			continue
		}
		l := s.log.WithFields(logrus.Fields{"tx": i, "to": p.To.Hex(), "method": payload.MethodName(p.Data), "gas": gas})
		if gas > s.cfg.GasLimit {
			l.WithField("gasLimit", s.cfg.GasLimit).Warn("[preflight] estimate exceeds gas limit")
			continue
		}
		l.Info("[preflight] ok")
	}
	return nil
}

func printCycle(rep bundlecore.CycleReport) {
	if rep.Skipped {
		fmt.Printf("[block %d -> %d] not submitted, loop already done\n", rep.ObservedBlock, rep.TargetBlock)
		return
	}
	line := fmt.Sprintf("[block %d -> %d] %s", rep.ObservedBlock, rep.TargetBlock, rep.Outcome.Kind)
	if rep.Outcome.Err != nil {
		line += ": " + friendlyRelayErr(rep.Outcome.Err.Error())
	}
	fmt.Println(strings.TrimSpace(line))
}
