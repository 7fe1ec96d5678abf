package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every key written by this package.
const DefaultNamespace = "duebook"

// Option configures a Cache or IdempotencyStore.
type Option func(*keyspace)

// WithNamespace replaces DefaultNamespace, letting several deployments share
// one Redis database.
func WithNamespace(ns string) Option {
	return func(k *keyspace) {
		k.namespace = ns
	}
}

type keyspace struct {
	namespace string
	kind      string
}

func newKeyspace(kind string, opts []Option) keyspace {
	k := keyspace{namespace: DefaultNamespace, kind: kind}
	for _, opt := range opts {
		opt(&k)
	}
	return k
}

func (k keyspace) key(name string) string {
	return k.namespace + ":" + k.kind + ":" + name
}

// Cache implements usecase.Cache using Redis.
type Cache struct {
	client redis.Cmdable
	keys   keyspace
}

// NewCache creates a new Cache.
func NewCache(client redis.Cmdable, opts ...Option) *Cache {
	return &Cache{
		client: client,
		keys:   newKeyspace("cache", opts),
	}
}

// Get returns the value stored under key. A missing or expired key yields
// nil, nil.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.keys.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return val, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.keys.key(key), value, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.keys.key(key)).Err()
}
