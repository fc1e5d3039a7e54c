//go:build js && wasm

package main

import (
	"github.com/syumai/workers"

	"github.com/dvcrn/eventpix-client/internal/app"
	"github.com/dvcrn/eventpix-client/internal/config"
	"github.com/dvcrn/eventpix-client/internal/credentials"
	"github.com/dvcrn/eventpix-client/internal/logger"
)

func main() {
	cfg := config.MustLoad("")
	log := logger.New(cfg.Env, cfg.LogLevel)

	log.Info().Msg("📦 Using Cloudflare KV credential store")
	store, err := credentials.NewKVStore()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Cloudflare KV store")
	}

	srv, err := app.NewServer(cfg, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	// Serve using workers - it handles all the HTTP server setup
	workers.Serve(srv)
}
