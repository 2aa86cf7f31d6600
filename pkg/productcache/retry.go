package productcache

import (
	"context"
	"errors"
	"time"

	"WasteGuard-Backend/domain"

	"github.com/cenkalti/backoff/v4"
)

// isAuthError reports whether err is an authentication or authorization
// failure. Those are never retried; retrying cannot make a rejected
// credential valid.
func isAuthError(err error) bool {
	return errors.Is(err, domain.ErrNotAuthenticated) ||
		errors.Is(err, domain.ErrUserNotAllowed) ||
		errors.Is(err, domain.ErrTokenExpired) ||
		errors.Is(err, domain.ErrTokenInvalid)
}

// retryRead runs fn with capped exponential backoff. The interval starts
// at cfg.RetryInitialInterval and doubles up to cfg.RetryMaxInterval, for
// at most cfg.MaxReadRetries retries after the first attempt.
func (c *Cache) retryRead(ctx context.Context, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInitialInterval
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = c.cfg.RetryMaxInterval
	b.MaxElapsedTime = 0

	operation := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if isAuthError(err) || !errors.Is(err, domain.ErrRemote) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxReadRetries)), ctx))
}

// retryMutation runs fn, retrying exactly once after a short delay when
// the failure is a remote error. Auth and validation failures surface
// immediately.
func (c *Cache) retryMutation(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if isAuthError(err) || !errors.Is(err, domain.ErrRemote) {
		return err
	}

	select {
	case <-time.After(c.cfg.MutationRetryDelay):
	case <-ctx.Done():
		return err
	}
	return fn()
}
