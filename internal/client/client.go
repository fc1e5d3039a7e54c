// Package client implements the authenticated API client.
//
// Every request passes through two interception steps. Before dispatch the
// access token is read from the credential store and sent as a bearer token,
// and state-changing requests carry the anti-forgery token. After dispatch a
// 401 triggers a single refresh of the access token followed by exactly one
// retry of the original request. When the refresh cannot happen the store is
// cleared and the session-expired hook fires.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/dvcrn/eventpix-client/internal/auth"
	"github.com/dvcrn/eventpix-client/internal/credentials"
	"github.com/dvcrn/eventpix-client/internal/csrf"
)

var (
	// ErrSessionExpired is returned, wrapped together with the original 401
	// *StatusError, when the session could not be renewed.
	ErrSessionExpired = errors.New("session expired, re-authentication required")
	// ErrNoRefreshToken means a 401 arrived while no refresh token was stored.
	ErrNoRefreshToken = errors.New("no refresh token stored")
	// ErrCredentialsUnavailable means the store could not be read while
	// renewing the session. The stored credentials are left untouched.
	ErrCredentialsUnavailable = errors.New("credentials unavailable")
)

// Config holds the endpoint layout of the Remote API.
type Config struct {
	BaseURL         string
	RefreshPath     string
	CSRFPath        string
	CSRFCookie      string
	CSRFHeader      string
	Timeout         time.Duration
	CoalesceRefresh bool
}

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*auth.RefreshResponse, error)
}

// TokenSource supplies the anti-forgery token; "" means none.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. A client without a cookie jar gets one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRefresher replaces the token refresh call.
func WithRefresher(r Refresher) Option {
	return func(c *Client) { c.refresher = r }
}

// WithCSRF replaces the anti-forgery token source.
func WithCSRF(ts TokenSource) Option {
	return func(c *Client) { c.csrf = ts }
}

// WithSessionExpired registers fn to be called once per unrecoverable
// authentication failure, after the store has been cleared.
func WithSessionExpired(fn func(ctx context.Context, err error)) Option {
	return func(c *Client) { c.onExpired = fn }
}

// WithRefreshCoalescing makes concurrent 401s share a single refresh call.
func WithRefreshCoalescing(enabled bool) Option {
	return func(c *Client) { c.coalesce = enabled }
}

type Client struct {
	baseURL    *url.URL
	store      credentials.Store
	httpClient *http.Client
	refresher  Refresher
	csrf       TokenSource
	csrfHeader string
	onExpired  func(ctx context.Context, err error)
	coalesce   bool
	group      singleflight.Group
	logger     zerolog.Logger
}

// New creates a client for cfg.BaseURL reading credentials from store.
func New(store credentials.Store, cfg Config, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}

	c := &Client{
		baseURL:    base,
		store:      store,
		csrfHeader: cfg.CSRFHeader,
		coalesce:   cfg.CoalesceRefresh,
		logger:     logger,
	}
	if c.csrfHeader == "" {
		c.csrfHeader = csrf.DefaultHeader
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(cfg.Timeout)
	} else if c.httpClient.Jar == nil {
		hc := *c.httpClient
		hc.Jar = NewHTTPClient(0).Jar
		c.httpClient = &hc
	}
	if c.refresher == nil {
		c.refresher = auth.NewRefresher(c.URL(orDefault(cfg.RefreshPath, "/accounts/token/refresh/"), nil), c.httpClient, logger)
	}
	if c.csrf == nil {
		c.csrf = csrf.NewResolver(c.httpClient.Jar, c.httpClient, base,
			c.URL(orDefault(cfg.CSRFPath, "/accounts/csrf/"), nil), cfg.CSRFCookie, logger)
	}
	return c, nil
}

// Store returns the credential store the client reads from.
func (c *Client) Store() credentials.Store {
	return c.store
}

// URL resolves path against the base URL. Absolute URLs are returned as-is.
func (c *Client) URL(path string, query url.Values) string {
	var u *url.URL
	if parsed, err := url.Parse(path); err == nil && parsed.IsAbs() {
		u = parsed
	} else {
		u = &url.URL{}
		*u = *c.baseURL
		rel := path
		if i := strings.IndexByte(rel, '?'); i >= 0 {
			u.RawQuery = rel[i+1:]
			rel = rel[:i]
		}
		u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(rel, "/")
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
