package port

import (
	"context"
)

// KVStore is the storage collaborator of the cart: a flat string key-value store.
// Get reports ok=false when key is absent.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
