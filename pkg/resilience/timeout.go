// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"time"

	"github.com/zebrarx/claimforge/pkg/errors"
)

// TimeoutConfig controls timeout behavior.
type TimeoutConfig struct {
	// Duration is the maximum time allowed for the operation.
	Duration time.Duration
}

// WithTimeout executes fn with a timeout boundary.
// Returns errors.CodeTimeout if the deadline is exceeded.
func WithTimeout(ctx context.Context, config TimeoutConfig, fn func(context.Context) error) error {
	if config.Duration == 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, config.Duration)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case <-ctx.Done():
		return errors.New(errors.CodeTimeout, "operation exceeded timeout", ctx.Err()).
			WithContext("timeout", config.Duration.String())
	case err := <-done:
		return err
	}
}
