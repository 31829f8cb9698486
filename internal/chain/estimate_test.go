package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("429 Too Many Requests")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	calls = 0
	err = withRetry(context.Background(), time.Millisecond, func() error {
		calls++
		return errors.New("connection reset")
	})
	require.EqualError(t, err, "connection reset")
	require.Equal(t, retryAttempts, calls)
}

func TestWithRetryRevertIsFinal(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), time.Millisecond, func() error {
		calls++
		return errors.New("execution reverted: INSUFFICIENT_OUTPUT_AMOUNT")
	})
	require.True(t, IsRevert(err))
	require.Equal(t, 1, calls)
}

func TestWithRetryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, time.Hour, func() error { return errors.New("timeout") })
	require.ErrorIs(t, err, context.Canceled)
}

func TestRevertReason(t *testing.T) {
	require.Equal(t, "execution reverted: paused",
		RevertReason(errors.New("estimate gas: execution reverted: paused")))
	require.Equal(t, "dial tcp: refused", RevertReason(errors.New("dial tcp: refused")))
	require.False(t, IsRevert(nil))
}
