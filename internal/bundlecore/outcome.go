package bundlecore

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

type OutcomeKind uint8

const (
	OutcomeBundleIncluded OutcomeKind = iota + 1
	OutcomeAccountNonceTooHigh
	OutcomeBlockPassedWithoutInclusion
	OutcomeRelayError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeBundleIncluded:
		return "BundleIncluded"
	case OutcomeAccountNonceTooHigh:
		return "AccountNonceTooHigh"
	case OutcomeBlockPassedWithoutInclusion:
		return "BlockPassedWithoutInclusion"
	case OutcomeRelayError:
		return "RelayError"
	default:
		return "Unknown"
	}
}

// Outcome is the resolution of one submission cycle. Err is set for
// OutcomeRelayError and OutcomeAccountNonceTooHigh.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

func Included() Outcome    { return Outcome{Kind: OutcomeBundleIncluded} }
func BlockPassed() Outcome { return Outcome{Kind: OutcomeBlockPassedWithoutInclusion} }

func NonceTooHigh(account common.Address, onChain, bundle uint64) Outcome {
	return Outcome{
		Kind: OutcomeAccountNonceTooHigh,
		Err:  fmt.Errorf("%w: %s at nonce %d, bundle used %d", ErrNonceSuperseded, account.Hex(), onChain, bundle),
	}
}

func RelayFailure(err error) Outcome { return Outcome{Kind: OutcomeRelayError, Err: err} }

// Terminal reports whether no further attempt is useful after this outcome.
func (o Outcome) Terminal() bool {
	return o.Kind == OutcomeBundleIncluded || o.Kind == OutcomeAccountNonceTooHigh
}

func (o Outcome) String() string {
	if o.Err != nil {
		return o.Kind.String() + "(" + o.Err.Error() + ")"
	}
	return o.Kind.String()
}

// CycleReport describes one block's attempt, reported for every cycle.
type CycleReport struct {
	ObservedBlock   uint64
	TargetBlock     uint64
	ReplacementUUID uuid.UUID
	Fee             FeeQuote
	BundleHash      common.Hash
	Outcome         Outcome

	// Skipped is set when the loop reached a terminal outcome before this
	// cycle submitted; Outcome is then empty.
	Skipped bool

	// fatal errors stop the whole run rather than just this cycle
	fatal error
}
