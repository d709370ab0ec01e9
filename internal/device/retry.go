//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// RetryPolicy bounds a logical write's attempts. The backoff is linear
// (BaseDelay, then 2*BaseDelay, ...): observed link failures are brief
// contention, not sustained congestion, so exponential growth would only
// add latency.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// OnAttempt, if set, observes each failed attempt (attempt number
	// starting at 1, and its error) before the backoff wait. Intermediate
	// failures are observable here but are not the operation's result.
	OnAttempt func(attempt int, err error)
}

// Retry runs op up to MaxAttempts times, waiting BaseDelay*attempt between
// tries. Only transport-level failures are retried; codec validation
// errors and firmware status codes are returned on the spot. The aggregate
// outcome is the last attempt's error, reported only after the budget is
// exhausted.
//
// The wait is cooperative: ctx cancellation (or connection loss surfaced
// through it) ends the sequence with a Disconnected transport error
// instead of leaving a sleeping retry behind.
func Retry(ctx context.Context, policy RetryPolicy, op func(context.Context) error) error {
	if policy.MaxAttempts < 1 {
		return errors.New("retry: MaxAttempts must be at least 1")
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if policy.OnAttempt != nil {
			policy.OnAttempt(attempt, lastErr)
		}
		if attempt == policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return &TransportError{Kind: Disconnected, Err: ctx.Err()}
		case <-time.After(policy.BaseDelay * time.Duration(attempt)):
		}
	}

	return lastErr
}
