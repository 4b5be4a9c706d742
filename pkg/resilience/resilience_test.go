// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/zebrarx/claimforge/pkg/errors"
)

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	cfg := DefaultRetryConfig().WithInitialDelay(time.Millisecond).WithMaxDelay(time.Millisecond)

	err := cfg.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New(errors.CodeTransport, "connection refused", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryStopsOnUnrecoverableError(t *testing.T) {
	attempts := 0
	cfg := DefaultRetryConfig().WithInitialDelay(time.Millisecond)

	err := cfg.Do(context.Background(), func() error {
		attempts++
		return errors.New(errors.CodeValidation, "field out of range", nil)
	})
	if !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt for an unrecoverable error, got %d", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	cfg := DefaultRetryConfig().
		WithMaxAttempts(4).
		WithInitialDelay(time.Millisecond).
		WithMaxDelay(time.Millisecond)

	err := cfg.Do(context.Background(), func() error {
		attempts++
		return errors.New(errors.CodeTransport, "connection refused", nil)
	})
	if !errors.HasCode(err, errors.CodeTransport) {
		t.Fatalf("expected last transport error, got %v", err)
	}
	if attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", attempts)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultRetryConfig().WithInitialDelay(time.Minute)
	err := cfg.Do(ctx, func() error {
		return errors.New(errors.CodeTransport, "connection refused", nil)
	})
	if !errors.HasCode(err, errors.CodeTimeout) {
		t.Errorf("expected TIMEOUT for canceled retry wait, got %v", err)
	}
}

func TestWithTimeoutExpires(t *testing.T) {
	err := WithTimeout(context.Background(), TimeoutConfig{Duration: 10 * time.Millisecond}, func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if !errors.HasCode(err, errors.CodeTimeout) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
}

func TestWithTimeoutPassesThrough(t *testing.T) {
	err := WithTimeout(context.Background(), TimeoutConfig{Duration: time.Second}, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
