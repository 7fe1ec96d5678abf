package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessingMarker is stored under a key while its first request is in flight.
const ProcessingMarker = "processing"

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
type IdempotencyStore struct {
	client redis.Cmdable
	keys   keyspace
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client redis.Cmdable, opts ...Option) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		keys:   newKeyspace("idempotency", opts),
	}
}

// CheckAndSet claims key for the caller. It reports exists=true with the
// stored value when the key was already claimed; a nil response claims it
// with ProcessingMarker. The claim and the read run in one MULTI block.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.keys.key(key)

	value := response
	if value == nil {
		value = []byte(ProcessingMarker)
	}

	var (
		claimed *redis.BoolCmd
		stored  *redis.StringCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		claimed = pipe.SetNX(ctx, fullKey, value, ttl)
		stored = pipe.Get(ctx, fullKey)
		return nil
	})
	if err != nil {
		return false, nil, err
	}

	if claimed.Val() {
		return false, nil, nil
	}
	return true, []byte(stored.Val()), nil
}

// Update replaces the marker with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.keys.key(key), response, ttl).Err()
}

// Release drops the key so a failed request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.keys.key(key)).Err()
}
