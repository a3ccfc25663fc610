package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		Delay:       time.Millisecond,
		Backoff:     BackoffExponential,
		Timeout:     100 * time.Millisecond,
	}
}

func TestPolicyDo_SucceedsFirstAttempt(t *testing.T) {
	var calls atomic.Int32
	err := fastPolicy(3).Do(context.Background(), testLogger(), StateValidate, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPolicyDo_ExhaustionInvokesExactlyMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	err := fastPolicy(3).Do(context.Background(), testLogger(), StateInventoryBranch, func(ctx context.Context) error {
		calls.Add(1)
		return fmt.Errorf("service unavailable")
	})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, ErrorCodeRetriesExhausted, wfErr.Code)
	assert.Equal(t, 3, wfErr.Attempts)
	assert.Equal(t, StateInventoryBranch, wfErr.State)
}

func TestPolicyDo_RecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	err := fastPolicy(3).Do(context.Background(), testLogger(), StatePaymentBranch, func(ctx context.Context) error {
		if calls.Add(1) < 3 {
			return fmt.Errorf("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPolicyDo_PermanentErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	err := fastPolicy(5).Do(context.Background(), testLogger(), StateValidate, func(ctx context.Context) error {
		calls.Add(1)
		return Permanent("BAD_INPUT", errors.New("rejected"))
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, ErrorTypePermanent, wfErr.Type)
	assert.Equal(t, 1, wfErr.Attempts)
}

func TestPolicyDo_NonRetryableCodeStopsImmediately(t *testing.T) {
	pol := fastPolicy(5)
	pol.NonRetryable = []string{"QUOTA_EXCEEDED"}

	var calls atomic.Int32
	err := pol.Do(context.Background(), testLogger(), StateNotify, func(ctx context.Context) error {
		calls.Add(1)
		return &WorkflowError{Type: ErrorTypeTransient, Code: "QUOTA_EXCEEDED", Message: "quota"}
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPolicyDo_AttemptTimeoutIsRetryable(t *testing.T) {
	pol := fastPolicy(2)
	pol.Timeout = 10 * time.Millisecond

	var calls atomic.Int32
	err := pol.Do(context.Background(), testLogger(), StateInventoryBranch, func(ctx context.Context) error {
		calls.Add(1)
		<-ctx.Done()
		return ctx.Err()
	})
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())

	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, ErrorCodeRetriesExhausted, wfErr.Code)
}

func TestPolicyDo_ParentCancellationStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	err := fastPolicy(5).Do(ctx, testLogger(), StateValidate, func(ctx context.Context) error {
		calls.Add(1)
		cancel()
		return fmt.Errorf("boom")
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, ErrorTypePermanent, wfErr.Type)
}

func TestPolicyWait(t *testing.T) {
	pol := Policy{Delay: 100 * time.Millisecond, Backoff: BackoffExponential}
	assert.Equal(t, 100*time.Millisecond, pol.wait(1))
	assert.Equal(t, 200*time.Millisecond, pol.wait(2))
	assert.Equal(t, 400*time.Millisecond, pol.wait(3))

	pol.MaxDelay = 150 * time.Millisecond
	assert.Equal(t, 150*time.Millisecond, pol.wait(3))

	linear := Policy{Delay: 50 * time.Millisecond, Backoff: BackoffLinear}
	assert.Equal(t, 150*time.Millisecond, linear.wait(3))

	none := Policy{Delay: 50 * time.Millisecond, Backoff: BackoffNone}
	assert.Equal(t, 50*time.Millisecond, none.wait(3))
}

func TestPolicyWait_FullJitterStaysBelowComputed(t *testing.T) {
	pol := Policy{Delay: 100 * time.Millisecond, Backoff: BackoffExponential, Jitter: true}
	for i := 0; i < 50; i++ {
		w := pol.wait(2)
		assert.GreaterOrEqual(t, w, time.Duration(0))
		assert.Less(t, w, 200*time.Millisecond)
	}
}

func TestClassify(t *testing.T) {
	deadline := classify(context.DeadlineExceeded, StateValidate)
	assert.Equal(t, ErrorTypeTimeout, deadline.Type)
	assert.Equal(t, ErrorCodeDeadlineExceeded, deadline.Code)
	assert.True(t, deadline.Retryable())

	cancelled := classify(context.Canceled, StateValidate)
	assert.Equal(t, ErrorTypePermanent, cancelled.Type)
	assert.False(t, cancelled.Retryable())

	plain := classify(errors.New("boom"), StateNotify)
	assert.Equal(t, ErrorTypeTransient, plain.Type)
	assert.Equal(t, StateNotify, plain.State)

	// Already classified errors pass through with state backfilled.
	wrapped := classify(&WorkflowError{Type: ErrorTypePermanent, Code: "X", Message: "m"}, StateReconcile)
	assert.Equal(t, ErrorTypePermanent, wrapped.Type)
	assert.Equal(t, StateReconcile, wrapped.State)
}
