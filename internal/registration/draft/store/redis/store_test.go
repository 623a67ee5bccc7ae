package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership/pkg/platform/sentinel"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return client, server
}

func TestStorePutGet(t *testing.T) {
	client, server := newTestRedis(t)
	store := New(client, WithTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess-1", []byte(`{"step":1}`)))

	doc, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":1}`, string(doc))

	assert.True(t, server.Exists(KeyPrefix+"sess-1"))
	ttl := server.TTL(KeyPrefix + "sess-1")
	assert.True(t, ttl > 0 && ttl <= time.Hour, "unexpected ttl %v", ttl)
}

func TestStoreGetMissing(t *testing.T) {
	client, _ := newTestRedis(t)
	store := New(client)

	_, err := store.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestStoreExpiry(t *testing.T) {
	client, server := newTestRedis(t)
	store := New(client, WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess-1", []byte(`{}`)))
	server.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	client, server := newTestRedis(t)
	store := New(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess-1", []byte(`{}`)))
	require.NoError(t, store.Delete(ctx, "sess-1"))
	assert.False(t, server.Exists(KeyPrefix+"sess-1"))
	assert.NoError(t, store.Delete(ctx, "sess-1"))
}

func TestStoreUnavailable(t *testing.T) {
	client, server := newTestRedis(t)
	store := New(client)
	server.Close()

	_, err := store.Get(context.Background(), "sess-1")
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}
