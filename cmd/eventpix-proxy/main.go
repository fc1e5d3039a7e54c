package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvcrn/eventpix-client/internal/app"
	"github.com/dvcrn/eventpix-client/internal/auth"
	"github.com/dvcrn/eventpix-client/internal/config"
	"github.com/dvcrn/eventpix-client/internal/credentials"
	"github.com/dvcrn/eventpix-client/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to eventpix.yaml")
	storeDriver := flag.String("store", "", "Credential store: memory, env, file, keychain, redis, sqlite")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	if *storeDriver != "" {
		cfg.Store.Driver = *storeDriver
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	store, err := app.NewStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open credential store")
	}
	if closer, ok := store.(credentials.Closer); ok {
		defer closer.Close()
	}
	log.Info().Str("driver", cfg.Store.Driver).Msg("📄 Using credential store")

	validateCredentialsAtStartup(ctx, store, log)

	if watcher, ok := store.(credentials.Watcher); ok {
		go func() {
			err := watcher.Watch(ctx, func(ev credentials.Event) {
				if ev.Value == "" {
					log.Warn().Msg("Credentials were cleared by another process")
					return
				}
				log.Info().Msg("🔑 Credentials changed by another process")
			})
			if err != nil {
				log.Warn().Err(err).Msg("Credential watch stopped")
			}
		}()
	}

	srv, err := app.NewServer(cfg, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	addr := cfg.Proxy.Addr()
	log.Info().Str("addr", addr).Str("api", cfg.API.BaseURL).Msg("Starting server")
	log.Fatal().Err(http.ListenAndServe(addr, srv)).Msg("Server failed to start")
}

func validateCredentialsAtStartup(ctx context.Context, store credentials.Store, log zerolog.Logger) {
	creds, err := store.Get(ctx)
	if err != nil {
		log.Error().Err(err).Msg("⚠️  Failed to validate credentials at startup")
		return
	}
	if creds == nil {
		log.Warn().Msg("⚠️  No credentials stored, POST them to /admin/credentials")
		return
	}

	log.Info().
		Int("token_length", len(creds.Access)).
		Bool("has_refresh", creds.Refresh != "").
		Msg("✅ Credentials loaded successfully")

	expiresAt, err := auth.Expiry(creds.Access)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️  Could not read access token expiry")
		return
	}

	minutesUntilExpiry := int64(time.Until(expiresAt) / time.Minute)
	if minutesUntilExpiry <= 0 {
		log.Warn().
			Int64("minutes_expired", -minutesUntilExpiry).
			Msg("⚠️  Token is already expired, will attempt refresh on first request")
	} else if auth.TokenExpired(expiresAt, auth.ExpiryBuffer) {
		log.Warn().
			Int64("minutes_until_expiry", minutesUntilExpiry).
			Msg("⚠️  Token expires soon, will refresh on the next 401")
	} else {
		log.Info().
			Int64("minutes_until_expiry", minutesUntilExpiry).
			Msg("✅ Token is valid and not expiring soon")
	}
}
