package usecase

import (
	"context"
	"time"

	"github.com/iho/duebook/internal/domain"
)

// inTx runs fn in a transaction bounded by DefaultTransactionTimeout. With a
// retrier, the whole attempt is re-run on transient storage errors.
func inTx(ctx context.Context, txManager TransactionManager, retrier Retrier, fn func(ctx context.Context, tx Transaction) error) error {
	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if retrier == nil {
		return attempt()
	}
	return retrier.Retry(ctx, attempt)
}

// checkSettledOn rejects settlement dates after today.
func checkSettledOn(d *domain.Date, now time.Time) error {
	if d == nil {
		return nil
	}
	if !d.Valid() {
		return domain.ErrInvalidDate
	}
	if d.After(domain.DateOf(now.UTC())) {
		return domain.ErrInvalidSettlementDate
	}
	return nil
}
