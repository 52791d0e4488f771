package wire

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/example/lotledger/internal/models"
)

// Retry runs op and, when it fails with models.ErrTransient, retries it up to
// retry.transient_max more times with exponential backoff. Every other error
// is returned at once.
func Retry(ctx context.Context, op func() error) error {
	once.Do(initServices)
	return retryTransient(ctx, cfg.Retry.TransientMax, cfg.Retry.InitialInterval, func(err error) {
		ledgerMetrics.Retried()
		logger.Warn("retrying after transient storage fault", "err", err)
	}, op)
}

func retryTransient(ctx context.Context, maxRetries int, initial time.Duration, onRetry func(error), op func() error) error {
	if maxRetries <= 0 {
		return op()
	}

	policy := backoff.NewExponentialBackOff()
	if initial > 0 {
		policy.InitialInterval = initial
	}
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(maxRetries)), ctx)

	return backoff.RetryNotify(func() error {
		err := op()
		if err == nil || errors.Is(err, models.ErrTransient) {
			return err
		}
		return backoff.Permanent(err)
	}, b, func(err error, _ time.Duration) {
		if onRetry != nil {
			onRetry(err)
		}
	})
}
