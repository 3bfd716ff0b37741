package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/marketplace-cart/internal/config"
	"github.com/nikolayk812/marketplace-cart/internal/port"
	"github.com/sirupsen/logrus"
)

// New opens the key-value backend named by cfg.Driver.
// The returned close function releases its connections and is never nil.
func New(ctx context.Context, cfg config.Storage, log logrus.FieldLogger) (port.KVStore, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryKV(), noop, nil

	case config.DriverFile:
		kv, err := NewFileKV(cfg.FileDir)
		if err != nil {
			return nil, noop, fmt.Errorf("NewFileKV: %w", err)
		}
		return kv, noop, nil

	case config.DriverRedis:
		kv, err := NewRedisKV(cfg.RedisAddr, log)
		if err != nil {
			return nil, noop, fmt.Errorf("NewRedisKV: %w", err)
		}
		if err := kv.Initialize(ctx); err != nil {
			closeRedis(kv, log)
			return nil, noop, fmt.Errorf("kv.Initialize: %w", err)
		}
		return kv, func() { closeRedis(kv, log) }, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, noop, fmt.Errorf("pgxpool.New: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("pool.Ping: %w", err)
		}
		return NewKV(pool), pool.Close, nil
	}

	return nil, noop, fmt.Errorf("storage driver[%s] is not supported", cfg.Driver)
}

func closeRedis(kv *RedisKV, log logrus.FieldLogger) {
	if err := kv.Close(); err != nil {
		log.WithError(err).Warn("close redis client")
	}
}
