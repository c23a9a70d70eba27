// Package retry implements the exponential-backoff executor that wraps feed
// fetch attempts.
package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Retrier runs operations with exponential backoff between failed attempts.
type Retrier struct {
	initial time.Duration
	max     time.Duration
	factor  float64
	logger  *zap.Logger
}

// New builds a Retrier. Non-positive or nonsensical knobs fall back to sane
// defaults (250ms initial, 5s cap, factor 2).
func New(initial, maxDelay time.Duration, factor float64, logger *zap.Logger) *Retrier {
	if initial <= 0 {
		initial = 250 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	if factor < 1 {
		factor = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{initial: initial, max: maxDelay, factor: factor, logger: logger}
}

// Do runs op up to maxAttempts times, sleeping between failures with a delay
// that starts at the configured initial value and multiplies by the factor
// each subsequent attempt, capped at the configured maximum. The last error
// is returned unchanged. maxAttempts < 1 is a programming error: Do fails
// immediately without executing op.
func (r *Retrier) Do(ctx context.Context, name string, maxAttempts int, op func(context.Context) error) error {
	if maxAttempts < 1 {
		return fmt.Errorf("retry %s: max attempts must be >= 1, got %d", name, maxAttempts)
	}

	delay := r.initial
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		r.logger.Warn("operation failed, backing off",
			zap.String("op", name),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * r.factor)
		if delay > r.max {
			delay = r.max
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
