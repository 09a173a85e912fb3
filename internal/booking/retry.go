package booking

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/robertarktes/show-seat-booking/internal/domain"
)

type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.MaxElapsedTime = 0
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// retryTransient runs op until it succeeds, fails with a non-transient error,
// or the attempt budget is spent. Exhaustion is reported as
// domain.ErrBookingFailed wrapping the last cause.
func retryTransient(ctx context.Context, p RetryPolicy, op func() error, notify func(err error, wait time.Duration)) error {
	attempt := 0
	var last error
	err := backoff.RetryNotify(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		last = err
		if !domain.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, p.backOff(ctx), notify)
	if err == nil {
		return nil
	}
	if last != nil && !domain.IsTransient(last) {
		return last
	}
	cause := last
	if ctxErr := ctx.Err(); ctxErr != nil {
		cause = ctxErr
	}
	return errors.Mark(errors.Wrapf(cause, "gave up after %d attempts", attempt), domain.ErrBookingFailed)
}
