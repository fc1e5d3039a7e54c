package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dvcrn/eventpix-client/internal/api"
	"github.com/dvcrn/eventpix-client/internal/client"
	"github.com/dvcrn/eventpix-client/internal/config"
	"github.com/dvcrn/eventpix-client/internal/credentials"
	"github.com/dvcrn/eventpix-client/internal/proxy"
)

// StoreConfig maps the file/env configuration onto the store factory.
func StoreConfig(cfg config.StoreConfig) credentials.Config {
	return credentials.Config{
		Driver: cfg.Driver,
		Path:   cfg.Path,
		Redis: credentials.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		},
		SQLiteDSN: cfg.SQLite,
	}
}

// NewStore opens the configured credential store.
func NewStore(ctx context.Context, cfg *config.Config) (credentials.Store, error) {
	return credentials.New(ctx, StoreConfig(cfg.Store))
}

// NewClient creates the authenticated client shared by every binary.
func NewClient(cfg *config.Config, store credentials.Store, logger zerolog.Logger, opts ...client.Option) (*client.Client, error) {
	return client.New(store, client.Config{
		BaseURL:         cfg.API.BaseURL,
		RefreshPath:     cfg.API.RefreshPath,
		CSRFPath:        cfg.API.CSRFPath,
		CSRFCookie:      cfg.API.CSRFCookie,
		CSRFHeader:      cfg.API.CSRFHeader,
		Timeout:         cfg.API.Timeout,
		CoalesceRefresh: cfg.API.CoalesceRefresh,
	}, logger, opts...)
}

// NewAPI wraps a client with the typed endpoints.
func NewAPI(cfg *config.Config, c *client.Client) *api.API {
	return api.New(c, api.Paths{Token: cfg.API.TokenPath})
}

// NewServer creates the proxy around store. The proxy logs expired sessions
// so operators know to post fresh credentials.
func NewServer(cfg *config.Config, store credentials.Store, logger zerolog.Logger) (*proxy.Server, error) {
	c, err := NewClient(cfg, store, logger, client.WithSessionExpired(func(ctx context.Context, err error) {
		logger.Warn().Err(err).Msg("⚠️  Session expired, POST fresh credentials to /admin/credentials")
	}))
	if err != nil {
		return nil, err
	}
	return proxy.New(logger, c, proxy.Options{
		AdminKey: cfg.Proxy.AdminKey,
		LoginURL: cfg.API.LoginURL,
	}), nil
}
