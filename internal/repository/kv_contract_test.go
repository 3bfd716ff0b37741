package repository_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/marketplace-cart/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runKVContract checks the behaviour every port.KVStore must share.
func runKVContract(t *testing.T, kv port.KVStore) {
	t.Helper()

	tests := []struct {
		name      string
		key       string
		setup     []string
		wantValue string
		wantOK    bool
		wantError string
	}{
		{
			name:   "get absent key: not found",
			key:    "@test:" + gofakeit.UUID(),
			wantOK: false,
		},
		{
			name:      "get after set: ok",
			key:       "@test:" + gofakeit.UUID(),
			setup:     []string{`[{"id":"p1"}]`},
			wantValue: `[{"id":"p1"}]`,
			wantOK:    true,
		},
		{
			name:      "set overwrites previous value: ok",
			key:       "@test:" + gofakeit.UUID(),
			setup:     []string{"first", "second", "third"},
			wantValue: "third",
			wantOK:    true,
		},
		{
			name:      "set empty value: ok",
			key:       "@test:" + gofakeit.UUID(),
			setup:     []string{""},
			wantValue: "",
			wantOK:    true,
		},
		{
			name:      "get with empty key: error",
			key:       "",
			wantError: "key is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()

			for _, value := range tt.setup {
				require.NoError(t, kv.Set(ctx, tt.key, value))
			}

			value, ok, err := kv.Get(ctx, tt.key)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantValue, value)
		})
	}

	t.Run("delete: ok", func(t *testing.T) {
		ctx := t.Context()
		key := "@test:" + gofakeit.UUID()

		require.NoError(t, kv.Set(ctx, key, gofakeit.UUID()))
		require.NoError(t, kv.Delete(ctx, key))

		_, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)

		// deleting an absent key is not an error
		require.NoError(t, kv.Delete(ctx, key))
	})

	t.Run("set with empty key: error", func(t *testing.T) {
		err := kv.Set(t.Context(), "", "value")
		require.EqualError(t, err, "key is empty")
	})
}
