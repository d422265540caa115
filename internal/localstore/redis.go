package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"infohub/internal/domain"
)

type redisStore struct {
	client *redis.Client
	expiry time.Duration
}

// RedisOption customizes a Redis store.
type RedisOption func(*redisStore)

// WithExpiry sets a TTL on every key written. Zero keeps keys until removed.
func WithExpiry(d time.Duration) RedisOption {
	return func(r *redisStore) {
		if d > 0 {
			r.expiry = d
		}
	}
}

// ConnectRedis opens a Redis client and verifies connectivity with a ping.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// NewRedis returns a Store backed by plain Redis string keys.
func NewRedis(client *redis.Client, opts ...RedisOption) Store {
	r := &redisStore{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *redisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (r *redisStore) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, r.expiry).Err()
}

func (r *redisStore) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
