package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/dvcrn/eventpix-client/internal/api"
	"github.com/dvcrn/eventpix-client/internal/app"
	"github.com/dvcrn/eventpix-client/internal/client"
	"github.com/dvcrn/eventpix-client/internal/config"
	"github.com/dvcrn/eventpix-client/internal/credentials"
	"github.com/dvcrn/eventpix-client/internal/logger"
)

// session is what every command receives.
type session struct {
	cfg   *config.Config
	store credentials.Store
	api   *api.API
	log   zerolog.Logger
}

type command struct {
	usage string
	run   func(ctx context.Context, s *session, args []string) error
}

var commands = map[string]command{
	"login":          {"login -email E [-password P] | -google-token T", runLogin},
	"register":       {"register -email E -password P [-first F] [-last L] [-photographer]", runRegister},
	"logout":         {"logout", runLogout},
	"me":             {"me", runMe},
	"status":         {"status", runStatus},
	"events":         {"events [-page N] [-all]", runEvents},
	"event":          {"event -id N", runEvent},
	"event-toggle":   {"event-toggle -id N -active=true|false", runEventToggle},
	"galleries":      {"galleries -event N [-page N]", runGalleries},
	"gallery-create": {"gallery-create -event N -title T", runGalleryCreate},
	"photos":         {"photos -gallery N [-page N] [-all]", runPhotos},
	"upload":         {"upload -gallery N FILE...", runUpload},
	"like":           {"like -photo N", runLike},
	"unlike":         {"unlike -photo N", runUnlike},
	"tickets":        {"tickets -event N", runTickets},
	"checkout":       {"checkout [-ticket ID:QTY]... [-photo ID]...", runCheckout},
	"watch":          {"watch", runWatch},
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: eventpix [-config FILE] [-store DRIVER] [-v] COMMAND [flags]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
}

func main() {
	configPath := flag.String("config", "", "Path to eventpix.yaml")
	storeDriver := flag.String("store", "", "Credential store: memory, env, file, keychain, redis, sqlite")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *storeDriver != "" {
		cfg.Store.Driver = *storeDriver
	}
	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	} else if level == "info" {
		level = "warn"
	}
	log := logger.New(cfg.Env, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise")
	}
	if closer, ok := s.store.(credentials.Closer); ok {
		defer closer.Close()
	}

	if err := cmd.run(ctx, s, flag.Args()[1:]); err != nil {
		if errors.Is(err, client.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, "Session expired. Run `eventpix login` to sign in again.")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func newSession(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*session, error) {
	store, err := app.NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	c, err := app.NewClient(cfg, store, log, client.WithSessionExpired(func(ctx context.Context, err error) {
		log.Debug().Err(err).Str("login_url", cfg.API.LoginURL).Msg("Session expired, credentials cleared")
	}))
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, store: store, api: app.NewAPI(cfg, c), log: log}, nil
}
