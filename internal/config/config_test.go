package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eventpix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
log_level: debug
api:
  base_url: https://photos.example.com/api
  timeout: 5s
  coalesce_refresh: true
store:
  driver: redis
  redis:
    addr: redis:6379
    prefix: "tabs:"
proxy:
  port: "8081"
  admin_key: secret
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://photos.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.API.CoalesceRefresh)
	// defaults still apply to fields the file leaves out
	assert.Equal(t, "/accounts/token/refresh/", cfg.API.RefreshPath)
	assert.Equal(t, "X-CSRFToken", cfg.API.CSRFHeader)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "tabs:", cfg.Store.Redis.Prefix)
	assert.Equal(t, "0.0.0.0:8081", cfg.Proxy.Addr())
	assert.Equal(t, "secret", cfg.Proxy.AdminKey)
}

func TestLoadFromEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("EVENTPIX_API_URL", "http://api.test")
	t.Setenv("EVENTPIX_STORE", "memory")
	t.Setenv("EVENTPIX_TIMEOUT", "2s")

	var cfg *Config
	cfg, err = Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://api.test", cfg.API.BaseURL)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.API.Timeout)
	assert.Equal(t, "csrftoken", cfg.API.CSRFCookie)
	assert.Equal(t, "9879", cfg.Proxy.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat failed")
}

func TestMustLoadPanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	})
}
