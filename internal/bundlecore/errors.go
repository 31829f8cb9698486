package bundlecore

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned before any subscription is opened when the
	// chain context is incomplete.
	ErrConfiguration = errors.New("configuration error")
	// ErrFeeProjection is returned for a lead time that cannot be projected.
	ErrFeeProjection = errors.New("fee projection error")
	// ErrRelayRejection marks a bundle the relay refused (malformed, underpriced,
	// bad signature). The cycle is abandoned, the loop goes on.
	ErrRelayRejection = errors.New("relay rejected bundle")
	// ErrRelayUnavailable marks transport level failures talking to the relay.
	ErrRelayUnavailable = errors.New("relay unavailable")
	// ErrNonceSuperseded is carried by the AccountNonceTooHigh outcome.
	ErrNonceSuperseded = errors.New("account nonce superseded")
	// ErrSigning is returned by signers without usable key material.
	ErrSigning = errors.New("signing error")
	// ErrHeadSourceClosed is returned when the block notification stream ends.
	ErrHeadSourceClosed = errors.New("block notification source closed")
)

// RelayRejection is a JSON-RPC level error returned by the relay.
type RelayRejection struct {
	Code    int
	Message string
}

func (e *RelayRejection) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("relay rejected bundle: %s", e.Message)
	}
	return fmt.Sprintf("relay rejected bundle: %d %s", e.Code, e.Message)
}

func (e *RelayRejection) Is(target error) bool { return target == ErrRelayRejection }

// Retryable reports whether err is a transport failure that the next block's
// cycle can simply try again.
func Retryable(err error) bool {
	return errors.Is(err, ErrRelayUnavailable)
}
