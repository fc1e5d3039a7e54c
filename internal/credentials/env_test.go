package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvStore(t *testing.T) {
	t.Setenv(EnvAccess, "A1")
	t.Setenv(EnvRefresh, "R1")

	store := NewEnvStore()

	creds, err := store.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, Credentials{Access: "A1", Refresh: "R1"}, *creds)

	// Writes stay in memory
	require.NoError(t, store.Set(context.Background(), Credentials{Access: "A2", Refresh: "R1"}))
	creds, err = store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A2", creds.Access)
}

func TestEnvStoreEmpty(t *testing.T) {
	t.Setenv(EnvAccess, "")
	t.Setenv(EnvRefresh, "")

	creds, err := NewEnvStore().Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, creds)
}
