// Package retry runs hardware operations under a bounded retry policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
)

// DefaultPolicy retries a failed operation once with a short settle delay.
var DefaultPolicy = Policy{MaxAttempts: 2, Delay: 10 * time.Millisecond}

// Policy bounds how many times an operation is attempted.
type Policy struct {
	// MaxAttempts is the total number of attempts. Values below one run the
	// operation once.
	MaxAttempts int
	// Delay is the constant wait between attempts.
	Delay time.Duration
}

// Permanent marks err so that Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a Permanent error, the attempts are
// exhausted or ctx is done. It reports the number of attempts made along
// with the final error.
func (p Policy) Do(ctx context.Context, op func(attempt int) error) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	n := 0
	wrapped := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		n++
		return op(n)
	}

	var err error
	if attempts == 1 {
		// WithMaxRetries treats zero retries as unlimited.
		err = wrapped()
		if perm, ok := err.(*backoff.PermanentError); ok {
			err = perm.Err
		}
	} else {
		var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
		b = backoff.WithMaxRetries(b, uint64(attempts-1))
		b = backoff.WithContext(b, ctx)
		err = backoff.Retry(wrapped, b)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return n, fmt.Errorf("retry: aborted after %d attempts: %w", n, err)
	}
	return n, err
}
