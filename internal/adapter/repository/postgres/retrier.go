package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// PostgreSQL error codes for retryable errors.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
)

// RetryPolicy is the backoff schedule of a Retrier. MaxRetries counts
// attempts after the first.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy allows three retries within ten seconds.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      3,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     1 * time.Second,
	MaxElapsedTime:  10 * time.Second,
}

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	policy    RetryPolicy
	retryable func(error) bool
	logger    zerolog.Logger
}

// NewRetrier retries deadlocks, serialization failures and lock timeouts.
func NewRetrier(logger zerolog.Logger) *Retrier {
	return NewRetrierFunc(logger, isRetryableError)
}

// NewRetrierFunc retries errors matched by retryable on the default policy.
// The SQLite store passes its busy classifier here.
func NewRetrierFunc(logger zerolog.Logger, retryable func(error) bool) *Retrier {
	return &Retrier{
		policy:    DefaultRetryPolicy,
		retryable: retryable,
		logger:    logger,
	}
}

// WithPolicy replaces the backoff schedule.
func (r *Retrier) WithPolicy(p RetryPolicy) *Retrier {
	r.policy = p
	return r
}

// Retry runs operation until it succeeds, fails permanently, or the policy
// is exhausted. The last error is returned unwrapped.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.policy.InitialInterval
	exp.MaxInterval = r.policy.MaxInterval
	exp.MaxElapsedTime = r.policy.MaxElapsedTime

	b := backoff.WithContext(backoff.WithMaxRetries(exp, r.policy.MaxRetries), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := operation()
		if err != nil && !r.retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		r.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("transient storage error, retrying")
	})
}

// isRetryableError checks if a PostgreSQL error should trigger a retry.
func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
			return true
		}
	}
	return false
}
