package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStoreClaimsNewKey(t *testing.T) {
	client, mr := startRedis(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, "settle-1", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, resp)

	val, err := mr.Get("duebook:idempotency:settle-1")
	require.NoError(t, err)
	assert.Equal(t, ProcessingMarker, val)

	exists, resp, err = store.CheckAndSet(ctx, "settle-1", nil, time.Minute)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, ProcessingMarker, string(resp))
}

func TestIdempotencyStoreReturnsFinalResponse(t *testing.T) {
	client, mr := startRedis(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	_, _, err := store.CheckAndSet(ctx, "settle-2", nil, time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, "settle-2", []byte(`{"status":201}`), time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("duebook:idempotency:settle-2"))

	exists, resp, err := store.CheckAndSet(ctx, "settle-2", nil, time.Minute)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.JSONEq(t, `{"status":201}`, string(resp))
}

func TestIdempotencyStoreReleaseAllowsRetry(t *testing.T) {
	client, _ := startRedis(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	_, _, err := store.CheckAndSet(ctx, "settle-3", nil, time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "settle-3"))

	exists, _, err := store.CheckAndSet(ctx, "settle-3", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIdempotencyStoreSingleWinner(t *testing.T) {
	client, _ := startRedis(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	const callers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exists, _, err := store.CheckAndSet(ctx, "settle-4", nil, time.Minute)
			if err != nil || exists {
				return
			}
			mu.Lock()
			wins++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestIdempotencyStoreKeyExpires(t *testing.T) {
	client, mr := startRedis(t)
	store := NewIdempotencyStore(client, WithNamespace("test"))
	ctx := context.Background()

	_, _, err := store.CheckAndSet(ctx, "settle-5", nil, time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:idempotency:settle-5"))

	mr.FastForward(2 * time.Second)

	exists, _, err := store.CheckAndSet(ctx, "settle-5", nil, time.Second)
	require.NoError(t, err)
	assert.False(t, exists)
}
