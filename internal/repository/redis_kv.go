package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	redisInitAttempts = 30
	redisMaxBackoff   = 30 * time.Second
)

// RedisKV stores each key as a plain Redis string.
type RedisKV struct {
	client *redis.Client
	log    logrus.FieldLogger
}

// NewRedisKV accepts either a redis URL (redis://, rediss://, unix://)
// or a bare "host:port" address. A malformed URL is an error.
func NewRedisKV(addr string, log logrus.FieldLogger) (*RedisKV, error) {
	if addr == "" {
		return nil, fmt.Errorf("addr is empty")
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		var err error
		opts, err = redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("redis.ParseURL: %w", err)
		}
	} else {
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  10 * time.Second,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			PoolSize:     10,
			PoolTimeout:  4 * time.Second,
			IdleTimeout:  180 * time.Second,
		}
	}

	client := redis.NewClient(opts)
	client.AddHook(redisotel.NewTracingHook())

	return &RedisKV{
		client: client,
		log:    log.WithField("component", "redis_kv"),
	}, nil
}

// Initialize pings Redis until it answers, backing off exponentially between attempts.
func (r *RedisKV) Initialize(ctx context.Context) error {
	for i := 0; i < redisInitAttempts; i++ {
		if r.Ping(ctx) {
			r.log.WithField("attempt", i+1).Info("redis is reachable")
			return nil
		}

		backoff := time.Duration(1<<uint(i)) * time.Second
		if backoff > redisMaxBackoff {
			backoff = redisMaxBackoff
		}
		r.log.WithField("backoff", backoff).Warn("redis ping failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("redis unreachable after %d attempts", redisInitAttempts)
}

func (r *RedisKV) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		r.log.WithError(err).Debug("redis ping")
		return false
	}
	return true
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}

	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("client.Get: %w", err)
	}

	return value, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("client.Set: %w", err)
	}

	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("client.Del: %w", err)
	}

	return nil
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}
