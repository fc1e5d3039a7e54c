//go:build !js || !wasm

package credentials

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	creds, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, creds)

	require.NoError(t, store.Set(ctx, Credentials{Access: "A1", Refresh: "R1"}))
	require.NoError(t, store.Set(ctx, Credentials{Access: "A2", Refresh: "R1"}))

	creds, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Credentials{Access: "A2", Refresh: "R1"}, creds)

	require.NoError(t, store.Clear(ctx))
	creds, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.db")

	first, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, Credentials{Access: "A1", Refresh: "R1"}))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	creds, err := second.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Credentials{Access: "A1", Refresh: "R1"}, creds)
}
