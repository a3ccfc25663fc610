package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"time"
)

// Backoff selects how the wait between attempts grows.
type Backoff string

const (
	BackoffNone        Backoff = "none"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// Policy is the per-state retry configuration. Policies attach to state
// definitions and are shared read-only across executions.
type Policy struct {
	MaxAttempts int
	// Delay is the base backoff interval before the second attempt.
	Delay time.Duration
	// Backoff sets the growth curve; exponential doubles per attempt.
	Backoff Backoff
	// MaxDelay caps the computed wait. Zero means no cap.
	MaxDelay time.Duration
	// Jitter randomizes the wait over [0, computed) ("full jitter").
	Jitter bool
	// Timeout is the per-attempt budget. Exceeding it counts as a
	// retryable timeout error, not a hard failure.
	Timeout time.Duration
	// NonRetryable lists error codes that must never be re-attempted.
	NonRetryable []string
}

// WithTimeout returns a copy of the policy with an overridden per-attempt
// budget. Used for caller-supplied timeoutSettings.
func (p Policy) WithTimeout(d time.Duration) Policy {
	p.Timeout = d
	return p
}

// wait computes the sleep before attempt n (1-based count of completed
// attempts).
func (p Policy) wait(attempt int) time.Duration {
	d := p.Delay
	switch p.Backoff {
	case BackoffLinear:
		d = time.Duration(attempt) * p.Delay
	case BackoffExponential:
		d = p.Delay << (attempt - 1)
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		d = time.Duration(rand.Int63n(int64(d)))
	}
	return d
}

// Do runs fn under the policy's timeout and retry budget. fn is invoked at
// most MaxAttempts times; business outcomes must be returned as values with
// a nil error so they are never re-attempted. On exhaustion the last error
// is returned classified for the given state with the attempt count filled
// in.
func (p Policy) Do(ctx context.Context, l *slog.Logger, state State, fn func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var last *WorkflowError
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if p.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}

		last = classify(err, state)
		last.Attempts = attempt

		if !last.Retryable() || slices.Contains(p.NonRetryable, last.Code) {
			return last
		}
		if attempt == maxAttempts {
			break
		}
		// A cancelled parent means the whole execution is going away, not
		// just this attempt.
		if ctx.Err() != nil {
			return classifyParent(ctx.Err(), state, attempt)
		}

		wait := p.wait(attempt)
		l.InfoContext(ctx, fmt.Sprintf("retrying state %s", state),
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"wait", wait.String(),
			"error", err.Error())

		if err := sleep(ctx, wait); err != nil {
			return classifyParent(err, state, attempt)
		}
	}

	return &WorkflowError{
		Type:     last.Type,
		Code:     ErrorCodeRetriesExhausted,
		Message:  fmt.Sprintf("retries exhausted after %d attempts: %s", last.Attempts, last.Message),
		State:    state,
		Attempts: last.Attempts,
		Cause:    last,
	}
}

func classifyParent(err error, state State, attempts int) *WorkflowError {
	wfErr := classify(err, state)
	wfErr.Type = ErrorTypePermanent
	wfErr.Attempts = attempts
	return wfErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
