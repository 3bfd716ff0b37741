package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/marketplace-cart/internal/db"
	"github.com/nikolayk812/marketplace-cart/internal/port"
)

type kvRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewKV(pool *pgxpool.Pool) port.KVStore {
	return &kvRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func NewKVWithTx(tx pgx.Tx) port.KVStore {
	return &kvRepository{
		q:    db.New(tx),
		pool: nil, // use provided transaction instead
	}
}

func (r *kvRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}

	entry, err := r.q.GetEntry(ctx, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("q.GetEntry: %w", err)
	}

	return entry.Value, true, nil
}

func (r *kvRepository) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	_, err := inTx(ctx, r, func(q *db.Queries) (struct{}, error) {
		if err := q.UpsertEntry(ctx, db.UpsertEntryParams{Key: key, Value: value}); err != nil {
			return struct{}{}, fmt.Errorf("q.UpsertEntry: %w", err)
		}
		return struct{}{}, nil
	})

	return err
}

func (r *kvRepository) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	_, err := inTx(ctx, r, func(q *db.Queries) (int64, error) {
		rowsAffected, err := q.DeleteEntry(ctx, key)
		if err != nil {
			return 0, fmt.Errorf("q.DeleteEntry: %w", err)
		}
		return rowsAffected, nil
	})

	return err
}
