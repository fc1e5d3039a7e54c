package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dvcrn/eventpix-client/internal/api"
	"github.com/dvcrn/eventpix-client/internal/credentials"
	"github.com/dvcrn/eventpix-client/internal/proxy"
)

// stdout receives command output.
var stdout io.Writer = os.Stdout

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parse(name string, args []string, setup func(fs *flag.FlagSet)) (*flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	setup(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs, nil
}

func required(name string, id int) error {
	if id <= 0 {
		return fmt.Errorf("-%s is required", name)
	}
	return nil
}

func runLogin(ctx context.Context, s *session, args []string) error {
	var email, password, google string
	if _, err := parse("login", args, func(fs *flag.FlagSet) {
		fs.StringVar(&email, "email", "", "Account email")
		fs.StringVar(&password, "password", os.Getenv("EVENTPIX_PASSWORD"), "Password (default $EVENTPIX_PASSWORD)")
		fs.StringVar(&google, "google-token", "", "Google OAuth access token")
	}); err != nil {
		return err
	}

	var err error
	switch {
	case google != "":
		_, err = s.api.GoogleLogin(ctx, google)
	case email != "" && password != "":
		_, err = s.api.Login(ctx, email, password)
	default:
		return errors.New("either -email with -password or -google-token is required")
	}
	if err != nil {
		return err
	}

	me, err := s.api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Logged in as %s\n", me.Email)
	return nil
}

func runRegister(ctx context.Context, s *session, args []string) error {
	var req api.RegisterRequest
	if _, err := parse("register", args, func(fs *flag.FlagSet) {
		fs.StringVar(&req.Email, "email", "", "Account email")
		fs.StringVar(&req.Password, "password", os.Getenv("EVENTPIX_PASSWORD"), "Password (default $EVENTPIX_PASSWORD)")
		fs.StringVar(&req.FirstName, "first", "", "First name")
		fs.StringVar(&req.LastName, "last", "", "Last name")
		fs.BoolVar(&req.IsPhotographer, "photographer", false, "Register as a photographer")
	}); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return errors.New("-email and -password are required")
	}
	if _, err := s.api.Register(ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Registered and logged in as %s\n", req.Email)
	return nil
}

func runLogout(ctx context.Context, s *session, args []string) error {
	if err := s.api.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Logged out")
	return nil
}

func runMe(ctx context.Context, s *session, args []string) error {
	me, err := s.api.Me(ctx)
	if err != nil {
		return err
	}
	return printJSON(me)
}

func runStatus(ctx context.Context, s *session, args []string) error {
	creds, err := s.store.Get(ctx)
	if err != nil {
		return err
	}
	status := proxy.Status(creds, time.Now())
	status["store"] = s.cfg.Store.Driver
	status["api"] = s.cfg.API.BaseURL
	return printJSON(status)
}

func runEvents(ctx context.Context, s *session, args []string) error {
	var page int
	var all bool
	if _, err := parse("events", args, func(fs *flag.FlagSet) {
		fs.IntVar(&page, "page", 1, "Page number")
		fs.BoolVar(&all, "all", false, "Follow next links until the last page")
	}); err != nil {
		return err
	}
	p, err := s.api.ListEvents(ctx, page)
	if err != nil {
		return err
	}
	return printPages(ctx, s, p, all)
}

// printPages prints p and, with all set, every page after it.
func printPages[T any](ctx context.Context, s *session, p *api.Page[T], all bool) error {
	for {
		for _, item := range p.Results {
			if err := printJSON(item); err != nil {
				return err
			}
		}
		if !all || !p.HasNext() {
			break
		}
		next, err := api.NextPage(ctx, s.api, p)
		if err != nil {
			return err
		}
		p = next
	}
	if p.HasNext() {
		fmt.Fprintf(os.Stderr, "more results: %s\n", *p.Next)
	}
	return nil
}

func runEvent(ctx context.Context, s *session, args []string) error {
	var id int
	if _, err := parse("event", args, func(fs *flag.FlagSet) {
		fs.IntVar(&id, "id", 0, "Event id")
	}); err != nil {
		return err
	}
	if err := required("id", id); err != nil {
		return err
	}
	ev, err := s.api.Event(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(ev)
}

func runEventToggle(ctx context.Context, s *session, args []string) error {
	var id int
	var active bool
	if _, err := parse("event-toggle", args, func(fs *flag.FlagSet) {
		fs.IntVar(&id, "id", 0, "Event id")
		fs.BoolVar(&active, "active", true, "Publish (true) or hide (false) the event")
	}); err != nil {
		return err
	}
	if err := required("id", id); err != nil {
		return err
	}
	ev, err := s.api.SetEventActive(ctx, id, active)
	if err != nil {
		return err
	}
	return printJSON(ev)
}

func runGalleries(ctx context.Context, s *session, args []string) error {
	var event, page int
	if _, err := parse("galleries", args, func(fs *flag.FlagSet) {
		fs.IntVar(&event, "event", 0, "Event id")
		fs.IntVar(&page, "page", 1, "Page number")
	}); err != nil {
		return err
	}
	if err := required("event", event); err != nil {
		return err
	}
	p, err := s.api.ListGalleries(ctx, event, page)
	if err != nil {
		return err
	}
	return printPages(ctx, s, p, false)
}

func runGalleryCreate(ctx context.Context, s *session, args []string) error {
	var req api.CreateGalleryRequest
	if _, err := parse("gallery-create", args, func(fs *flag.FlagSet) {
		fs.IntVar(&req.Event, "event", 0, "Event id")
		fs.StringVar(&req.Title, "title", "", "Gallery title")
	}); err != nil {
		return err
	}
	if err := required("event", req.Event); err != nil {
		return err
	}
	g, err := s.api.CreateGallery(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(g)
}

func runPhotos(ctx context.Context, s *session, args []string) error {
	var gallery, page int
	var all bool
	if _, err := parse("photos", args, func(fs *flag.FlagSet) {
		fs.IntVar(&gallery, "gallery", 0, "Gallery id")
		fs.IntVar(&page, "page", 1, "Page number")
		fs.BoolVar(&all, "all", false, "Follow next links until the last page")
	}); err != nil {
		return err
	}
	if err := required("gallery", gallery); err != nil {
		return err
	}
	p, err := s.api.ListPhotos(ctx, gallery, page)
	if err != nil {
		return err
	}
	return printPages(ctx, s, p, all)
}

func runUpload(ctx context.Context, s *session, args []string) error {
	var gallery int
	fs, err := parse("upload", args, func(fs *flag.FlagSet) {
		fs.IntVar(&gallery, "gallery", 0, "Gallery id")
	})
	if err != nil {
		return err
	}
	if err := required("gallery", gallery); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("at least one file is required")
	}

	for _, path := range fs.Args() {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		p, err := s.api.UploadPhoto(ctx, gallery, filepath.Base(path), f)
		f.Close()
		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		s.log.Info().Str("file", path).Int("photo_id", p.ID).Msg("Uploaded")
		if err := printJSON(p); err != nil {
			return err
		}
	}
	return nil
}

func photoFlag(name string, args []string) (int, error) {
	var id int
	if _, err := parse(name, args, func(fs *flag.FlagSet) {
		fs.IntVar(&id, "photo", 0, "Photo id")
	}); err != nil {
		return 0, err
	}
	return id, required("photo", id)
}

func runLike(ctx context.Context, s *session, args []string) error {
	id, err := photoFlag("like", args)
	if err != nil {
		return err
	}
	st, err := s.api.Like(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(st)
}

func runUnlike(ctx context.Context, s *session, args []string) error {
	id, err := photoFlag("unlike", args)
	if err != nil {
		return err
	}
	st, err := s.api.Unlike(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(st)
}

func runTickets(ctx context.Context, s *session, args []string) error {
	var event int
	if _, err := parse("tickets", args, func(fs *flag.FlagSet) {
		fs.IntVar(&event, "event", 0, "Event id")
	}); err != nil {
		return err
	}
	if err := required("event", event); err != nil {
		return err
	}
	tickets, err := s.api.Tickets(ctx, event)
	if err != nil {
		return err
	}
	return printJSON(tickets)
}

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string     { return strings.Join(*l, ",") }
func (l *listFlag) Set(v string) error { *l = append(*l, v); return nil }

func runCheckout(ctx context.Context, s *session, args []string) error {
	var tickets, photos listFlag
	if _, err := parse("checkout", args, func(fs *flag.FlagSet) {
		fs.Var(&tickets, "ticket", "Ticket type as ID:QTY (repeatable)")
		fs.Var(&photos, "photo", "Photo id (repeatable)")
	}); err != nil {
		return err
	}
	items, err := cartItems(tickets, photos)
	if err != nil {
		return err
	}
	order, err := s.api.Checkout(ctx, items...)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Order %s, total %s\nPay at %s\n", order.OrderID, order.Total, order.CheckoutURL)
	return nil
}

func cartItems(tickets, photos []string) ([]api.CheckoutItem, error) {
	var items []api.CheckoutItem
	for _, t := range tickets {
		idStr, qtyStr, found := strings.Cut(t, ":")
		if !found {
			qtyStr = "1"
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid ticket %q: %w", t, err)
		}
		qty, err := strconv.Atoi(qtyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q: %w", t, err)
		}
		items = append(items, api.CheckoutItem{Kind: api.KindTicket, ID: id, Quantity: qty})
	}
	for _, p := range photos {
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid photo %q: %w", p, err)
		}
		items = append(items, api.CheckoutItem{Kind: api.KindPhoto, ID: id, Quantity: 1})
	}
	return items, nil
}

// runWatch prints credential changes made by other processes until interrupted.
func runWatch(ctx context.Context, s *session, args []string) error {
	watcher, ok := s.store.(credentials.Watcher)
	if !ok {
		return fmt.Errorf("store %q does not report changes", s.cfg.Store.Driver)
	}
	fmt.Fprintln(os.Stderr, "Watching credentials, Ctrl-C to stop")
	return watcher.Watch(ctx, func(ev credentials.Event) {
		if ev.Value == "" {
			fmt.Fprintln(stdout, time.Now().Format(time.RFC3339), "logged out")
			return
		}
		fmt.Fprintln(stdout, time.Now().Format(time.RFC3339), "session changed")
	})
}
