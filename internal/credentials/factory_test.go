//go:build !js || !wasm

package credentials

import (
	"context"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryDrivers(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	dir := t.TempDir()
	cases := []struct {
		name string
		cfg  Config
		want interface{}
	}{
		{"memory", Config{Driver: DriverMemory}, &MemoryStore{}},
		{"env", Config{Driver: DriverEnv}, &MemoryStore{}},
		{"file", Config{Driver: DriverFile, Path: filepath.Join(dir, "c.json")}, &FSStore{}},
		{"keychain", Config{Driver: DriverKeychain}, &KeychainStore{}},
		{"redis", Config{Driver: DriverRedis, Redis: RedisConfig{Addr: mr.Addr()}}, &RedisStore{}},
		{"sqlite", Config{Driver: DriverSQLite, SQLiteDSN: filepath.Join(dir, "c.db")}, &SQLiteStore{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := New(ctx, tc.cfg)
			require.NoError(t, err)
			assert.IsType(t, tc.want, store)
			if c, ok := store.(Closer); ok {
				assert.NoError(t, c.Close())
			}
		})
	}
}

func TestFactoryDefaultsToFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	store, err := New(context.Background(), Config{})
	require.NoError(t, err)
	fs, ok := store.(*FSStore)
	require.True(t, ok)
	assert.Equal(t, DefaultCredsPath(), fs.Path)
}

func TestFactoryUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "etcd"})
	require.ErrorIs(t, err, ErrUnsupportedDriver)
}
