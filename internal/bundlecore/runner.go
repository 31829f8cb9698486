package bundlecore

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/flashbundle/internal/chain"
)

const (
	headBuffer    = 16
	cancelTimeout = 3 * time.Second
)

// State of the submission loop or of a single cycle.
type State uint8

const (
	StateIdle State = iota
	StateAwaitingBlock
	StateBuilding
	StateSubmitting
	StateAwaitingResolution
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingBlock:
		return "awaiting-block"
	case StateBuilding:
		return "building"
	case StateSubmitting:
		return "submitting"
	case StateAwaitingResolution:
		return "awaiting-resolution"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

type Options struct {
	GasLimit       uint64   // default DefaultGasLimit
	LegacyGasPrice *big.Int // default DefaultLegacyGasPrice
	Simulate       bool     // eth_callBundle before every submission
	CancelOnStop   bool     // eth_cancelBundle for in-flight bundles on external stop

	OnOutcome func(CycleReport)
	Log       *logrus.Entry
}

// Result is the terminal state of a run.
type Result struct {
	Outcome     Outcome
	FinalTarget uint64
	Cycles      int
}

// Runner drives one submission cycle per observed block until a bundle lands
// or the account nonce moves on.
type Runner struct {
	cc     ChainContext
	relay  Relay
	heads  HeadSource
	nonces NonceReader
	opts   Options
	log    *logrus.Entry
}

func NewRunner(cc ChainContext, relay Relay, heads HeadSource, nonces NonceReader, opts Options) (*Runner, error) {
	if cc.Signer == nil || cc.ChainID == nil {
		return nil, fmt.Errorf("%w: chain context is not initialised", ErrConfiguration)
	}
	if cc.LeadTime == 0 {
		return nil, fmt.Errorf("%w: lead time must be at least one block", ErrFeeProjection)
	}
	if relay == nil || heads == nil || nonces == nil {
		return nil, fmt.Errorf("%w: relay, head source and nonce reader are required", ErrConfiguration)
	}
	if opts.GasLimit == 0 {
		opts.GasLimit = DefaultGasLimit
	}
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Runner{cc: cc, relay: relay, heads: heads, nonces: nonces, opts: opts, log: log}, nil
}

type plan struct {
	fees       *FeeStrategy
	payloads   []Payload
	startNonce uint64
}

// Run blocks until the first terminal outcome, the loss of the block
// subscription, a fatal signing error or cancellation of ctx.
func (r *Runner) Run(ctx context.Context, priorityFee *big.Int, intent ...Payload) (Result, error) {
	var res Result
	if len(intent) == 0 {
		return res, fmt.Errorf("%w: nothing to submit", ErrConfiguration)
	}
	fees, err := NewFeeStrategy(priorityFee, r.opts.LegacyGasPrice, r.cc.LeadTime)
	if err != nil {
		return res, err
	}
	from := r.cc.Signer.Address()
	startNonce, err := r.nonces.NonceAt(ctx, from)
	if err != nil {
		return res, fmt.Errorf("nonce at loop start: %w", err)
	}
	p := &plan{fees: fees, payloads: intent, startNonce: startNonce}
	r.log.WithFields(logrus.Fields{
		"from":     from.Hex(),
		"nonce":    startNonce,
		"leadTime": r.cc.LeadTime,
		"tipGwei":  fmtGwei(fees.PriorityFee),
		"txs":      len(intent),
	}).Info("[loop] starting")

	r.enter(StateIdle)
	heads := make(chan chain.Header, headBuffer)
	sub := r.heads.SubscribeHeads(heads)
	defer sub.Unsubscribe()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	reports := make(chan CycleReport)
	g := &gate{}
	inflight := make(map[uint64]uuid.UUID)
	seen := make(map[uint64]struct{})
	done := false
	r.enter(StateAwaitingBlock)

	for {
		select {
		case <-ctx.Done():
			r.abandon(inflight)
			r.enter(StateDone)
			return res, ctx.Err()

		case err, ok := <-sub.Err():
			if !ok || err == nil {
				err = ErrHeadSourceClosed
			}
			r.enter(StateDone)
			if done {
				r.log.WithError(err).Warn("[loop] block subscription ended while draining")
				return res, nil
			}
			return res, fmt.Errorf("block subscription: %w", err)

		case h := <-heads:
			if done {
				r.log.WithField("block", h.Number).Debug("[loop] draining, head ignored")
				continue
			}
			target := h.Number + r.cc.LeadTime
			if _, dup := seen[target]; dup {
				r.log.WithFields(logrus.Fields{"block": h.Number, "target": target}).Warn("[loop] target already submitted, skipping")
				continue
			}
			seen[target] = struct{}{}
			id := uuid.New()
			inflight[target] = id
			res.Cycles++
			go func() {
				rep := r.cycle(runCtx, g, p, h, target, id)
				select {
				case reports <- rep:
				case <-runCtx.Done():
				}
			}()

		case rep := <-reports:
			if ctx.Err() != nil {
				// stopped: the ctx branch abandons whatever is still listed
				continue
			}
			delete(inflight, rep.TargetBlock)
			terminal := rep.Outcome.Terminal() && !done
			if terminal {
				// closed before anyone hears of the outcome
				g.close()
				done = true
				res.Outcome = rep.Outcome
				res.FinalTarget = rep.TargetBlock
			}
			r.report(rep)
			if rep.fatal != nil {
				r.enter(StateDone)
				return res, rep.fatal
			}
			if terminal && len(inflight) > 0 {
				r.log.WithField("inflight", len(inflight)).Info("[loop] terminal outcome, waiting for in-flight cycles")
			}
			if done && len(inflight) == 0 {
				r.enter(StateDone)
				return res, nil
			}
			if !done {
				r.enter(StateAwaitingBlock)
			}
		}
	}
}

func (r *Runner) cycle(ctx context.Context, g *gate, p *plan, h chain.Header, target uint64, id uuid.UUID) CycleReport {
	rep := CycleReport{ObservedBlock: h.Number, TargetBlock: target, ReplacementUUID: id}
	log := r.log.WithFields(logrus.Fields{"block": h.Number, "target": target, "uuid": id.String()})
	if g.closed() {
		rep.Skipped = true
		return rep
	}

	log.WithField("state", StateBuilding.String()).Debug("[cycle] state")
	rep.Fee = p.fees.Quote(h.BaseFee)
	if rep.Fee.Mode == FeeModeLegacy {
		log.Warn("[cycle] chain is not EIP-1559 enabled, using legacy transactions")
	}
	txs := make([]*UnsignedTx, 0, len(p.payloads))
	for i, pl := range p.payloads {
		var nonce *uint64
		if rep.Fee.Mode == FeeModeLegacy && i == 0 {
			nonce = &p.startNonce
		}
		txs = append(txs, BuildTx(pl, r.opts.GasLimit, rep.Fee, r.cc.ChainID, nonce))
	}

	log.WithField("state", StateSubmitting.String()).Debug("[cycle] state")
	signed, err := r.relay.SignBundle(ctx, r.cc.Signer, txs)
	if err != nil {
		if errors.Is(err, ErrSigning) {
			rep.fatal = err
		}
		rep.Outcome = RelayFailure(fmt.Errorf("sign bundle: %w", err))
		return rep
	}
	b, err := Pack(signed, id, target)
	if err != nil {
		rep.Outcome = RelayFailure(err)
		return rep
	}
	if r.opts.Simulate {
		sim, err := r.relay.Simulate(ctx, b)
		if err != nil {
			rep.Outcome = RelayFailure(fmt.Errorf("simulate: %w", err))
			return rep
		}
		if msg := sim.Failure(); msg != "" {
			rep.Outcome = RelayFailure(&RelayRejection{Message: "simulation: " + msg})
			return rep
		}
		log.WithField("gasUsed", sim.TotalGasUsed).Info("[simulate] ok")
	}
	var s *Submission
	if !g.do(func() { s, err = r.relay.Submit(ctx, b) }) {
		rep.Skipped = true
		return rep
	}
	if err != nil {
		rep.Outcome = RelayFailure(err)
		return rep
	}
	rep.BundleHash = s.BundleHash
	log.WithFields(logrus.Fields{
		"bundleHash": s.BundleHash.Hex(),
		"fee":        rep.Fee.String(),
		"state":      StateAwaitingResolution.String(),
	}).Info("[send] bundle submitted, waiting")

	out, err := r.relay.AwaitResolution(ctx, s)
	if err != nil {
		rep.Outcome = RelayFailure(err)
		return rep
	}
	rep.Outcome = out
	if out.Kind == OutcomeBlockPassedWithoutInclusion {
		r.logStats(ctx, log, h.Number, s)
	}
	return rep
}

func (r *Runner) report(rep CycleReport) {
	log := r.log.WithFields(logrus.Fields{
		"block":   rep.ObservedBlock,
		"target":  rep.TargetBlock,
		"uuid":    rep.ReplacementUUID.String(),
		"outcome": rep.Outcome.Kind.String(),
	})
	switch {
	case rep.Skipped:
		log.Info("[result] loop already done, bundle not submitted")
	case rep.Outcome.Kind == OutcomeBundleIncluded:
		log.WithField("bundleHash", rep.BundleHash.Hex()).Info("[result] bundle included")
	case rep.Outcome.Kind == OutcomeAccountNonceTooHigh:
		log.WithError(rep.Outcome.Err).Warn("[result] account nonce moved past the bundle")
	case rep.Outcome.Kind == OutcomeBlockPassedWithoutInclusion:
		log.Info("[result] target block passed without inclusion")
	default:
		log.WithError(rep.Outcome.Err).WithField("retryable", Retryable(rep.Outcome.Err)).Warn("[result] cycle abandoned")
	}
	if r.opts.OnOutcome != nil {
		r.opts.OnOutcome(rep)
	}
}

// logStats is observability only; failures never change the loop's course.
func (r *Runner) logStats(ctx context.Context, log *logrus.Entry, block uint64, s *Submission) {
	if us, err := r.relay.UserStats(ctx, block); err != nil {
		log.WithError(err).Debug("[stats] user stats unavailable")
	} else {
		log.WithFields(logrus.Fields{
			"highPriority":      us.IsHighPriority,
			"last1dPaymentsWei": us.Last1dValidatorPayments.String(),
			"last7dPaymentsWei": us.Last7dValidatorPayments.String(),
		}).Info("[stats] user")
	}
	if bs, err := r.relay.BundleStats(ctx, s.BundleHash, s.Bundle.TargetBlock); err != nil {
		log.WithError(err).Debug("[stats] bundle stats unavailable")
	} else {
		log.WithFields(logrus.Fields{
			"simulated":  bs.IsSimulated,
			"considered": len(bs.ConsideredByBuildersAt),
			"sealed":     len(bs.SealedByBuildersAt),
		}).Info("[stats] bundle")
	}
}

func (r *Runner) abandon(inflight map[uint64]uuid.UUID) {
	if len(inflight) == 0 {
		return
	}
	r.log.WithField("inflight", len(inflight)).Warn("[loop] stopped, abandoning in-flight cycles")
	if !r.opts.CancelOnStop {
		return
	}
	for target, id := range inflight {
		ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
		err := r.relay.Cancel(ctx, id)
		cancel()
		if err != nil {
			r.log.WithError(err).WithField("target", target).Warn("[cancel] failed")
			continue
		}
		r.log.WithFields(logrus.Fields{"target": target, "uuid": id.String()}).Info("[cancel] requested")
	}
}

func (r *Runner) enter(s State) {
	r.log.WithField("state", s.String()).Debug("[loop] state")
}

// gate stops new submissions once the loop has a terminal outcome. A Submit
// that got through the gate finishes before close returns.
type gate struct {
	mu   sync.RWMutex
	shut bool
}

func (g *gate) close() {
	g.mu.Lock()
	g.shut = true
	g.mu.Unlock()
}

func (g *gate) closed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.shut
}

// do runs fn unless the gate is closed.
func (g *gate) do(fn func()) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.shut {
		return false
	}
	fn()
	return true
}
