package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nikolayk812/marketplace-cart/internal/db"
)

// inTx runs fn against a transaction of r.pool, or against r.q directly
// when r was built from a caller's transaction.
func inTx[T any](ctx context.Context, r *kvRepository, fn func(q *db.Queries) (T, error)) (_ T, txErr error) {
	var zero T

	if r.pool == nil {
		return fn(r.q)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("pool.Begin: %w", err)
	}

	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	result, err := fn(r.q.WithTx(tx))
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, fmt.Errorf("tx.Commit: %w", err)
	}

	return result, nil
}
