package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-core/pkg/redis"
)

// Redis stores each key under sf:state:<namespace>:<key>. Every write
// refreshes the TTL so abandoned sessions age out on their own.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.client.StateKey(namespace, key))
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, namespace, key, value string) error {
	return r.client.Set(ctx, r.client.StateKey(namespace, key), value, r.ttl)
}

func (r *Redis) Delete(ctx context.Context, namespace, key string) error {
	return r.client.Del(ctx, r.client.StateKey(namespace, key))
}

func (r *Redis) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := r.client.DelPrefix(ctx, r.client.StatePrefix(namespace))
	return err
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
