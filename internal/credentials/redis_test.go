//go:build !js || !wasm

package credentials

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(context.Background(), RedisConfig{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	creds, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, creds)

	require.NoError(t, store.Set(ctx, Credentials{Access: "A1", Refresh: "R1"}))

	// stored under the well-known key names
	got, err := mr.Get("test:access")
	require.NoError(t, err)
	assert.Equal(t, "A1", got)
	got, err = mr.Get("test:refresh")
	require.NoError(t, err)
	assert.Equal(t, "R1", got)

	creds, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Credentials{Access: "A1", Refresh: "R1"}, creds)

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("test:access"))
	assert.False(t, mr.Exists("test:refresh"))

	creds, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestRedisStoreWatch(t *testing.T) {
	store, mr := newRedisStore(t)
	writer, err := NewRedisStore(context.Background(), RedisConfig{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 4)
	go func() {
		_ = store.Watch(ctx, func(ev Event) { events <- ev })
	}()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("test:events")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, writer.Set(context.Background(), Credentials{Access: "A2", Refresh: "R2"}))

	select {
	case ev := <-events:
		assert.Equal(t, Event{Key: KeyAccess, Value: "A2"}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event received")
	}
}

func TestNewRedisStoreRequiresAddr(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisConfig{})
	require.Error(t, err)
}
