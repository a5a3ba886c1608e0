package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores values in Redis under "{prefix}:{key}".
type Redis[V any] struct {
	client redis.UniversalClient
	codec  Codec[V]
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis cache. A nil codec means JSON. The client is owned
// by the caller; Close does not close it.
func NewRedis[V any](client redis.UniversalClient, codec Codec[V], prefix string, ttl time.Duration) *Redis[V] {
	if codec == nil {
		codec = JSON[V]{}
	}
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Redis[V]{client: client, codec: codec, prefix: prefix, ttl: ttl}
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	return r.codec.Unmarshal(data)
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Marshal(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.ttl
	}
	// Redis treats 0 as no expiry.
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *Redis[V]) Close() error { return nil }

func (r *Redis[V]) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

var _ Cache[any] = (*Redis[any])(nil)
