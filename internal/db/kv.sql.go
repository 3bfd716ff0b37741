package db

import (
	"context"
	"time"
)

const getEntry = `-- name: GetEntry :one
SELECT key, value, updated_at
FROM kv_entries
WHERE key = $1
`

type KvEntry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

func (q *Queries) GetEntry(ctx context.Context, key string) (KvEntry, error) {
	row := q.db.QueryRow(ctx, getEntry, key)
	var i KvEntry
	err := row.Scan(&i.Key, &i.Value, &i.UpdatedAt)
	return i, err
}

const upsertEntry = `-- name: UpsertEntry :exec
INSERT INTO kv_entries (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
    SET value      = EXCLUDED.value,
        updated_at = EXCLUDED.updated_at
`

type UpsertEntryParams struct {
	Key   string
	Value string
}

func (q *Queries) UpsertEntry(ctx context.Context, arg UpsertEntryParams) error {
	_, err := q.db.Exec(ctx, upsertEntry, arg.Key, arg.Value)
	return err
}

const deleteEntry = `-- name: DeleteEntry :execrows
DELETE
FROM kv_entries
WHERE key = $1
`

func (q *Queries) DeleteEntry(ctx context.Context, key string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteEntry, key)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
