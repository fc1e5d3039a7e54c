package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/dvcrn/eventpix-client/internal/logger"
	"github.com/dvcrn/eventpix-client/internal/mockapi"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8000", "Listen address")
	accessTTL := flag.Duration("access-ttl", 5*time.Minute, "Access token lifetime")
	pageSize := flag.Int("page-size", 2, "Items per list page")
	rotate := flag.Bool("rotate-refresh", false, "Issue a new refresh token on every refresh")
	level := flag.String("log-level", "debug", "Log level")
	flag.Parse()

	log := logger.New("development", *level)

	srv := mockapi.New(log, mockapi.Options{
		AccessTTL:     *accessTTL,
		PageSize:      *pageSize,
		RotateRefresh: *rotate,
	})

	log.Info().
		Str("addr", *addr).
		Str("demo_user", mockapi.DemoEmail).
		Str("demo_password", mockapi.DemoPassword).
		Msg("Starting mock API at /api")
	log.Fatal().Err(http.ListenAndServe(*addr, srv)).Msg("Server failed to start")
}
