// Package api is the typed surface of the event photography API. Every call
// goes through the authenticated client, so session renewal is transparent.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/dvcrn/eventpix-client/internal/client"
)

// ErrNoMorePages is returned by NextPage when the page has no next link.
var ErrNoMorePages = errors.New("no more pages")

// Endpoint paths that differ between deployments.
type Paths struct {
	Token    string
	Register string
	Google   string
}

// DefaultPaths matches the stock backend.
var DefaultPaths = Paths{
	Token:    "/accounts/token/",
	Register: "/accounts/register/",
	Google:   "/accounts/google/",
}

type API struct {
	c     *client.Client
	paths Paths
}

// New wraps c. Empty fields of paths fall back to DefaultPaths.
func New(c *client.Client, paths Paths) *API {
	if paths.Token == "" {
		paths.Token = DefaultPaths.Token
	}
	if paths.Register == "" {
		paths.Register = DefaultPaths.Register
	}
	if paths.Google == "" {
		paths.Google = DefaultPaths.Google
	}
	return &API{c: c, paths: paths}
}

// Client exposes the underlying authenticated client.
func (a *API) Client() *client.Client {
	return a.c
}

// NextPage follows p.Next, which is an absolute URL.
func NextPage[T any](ctx context.Context, a *API, p *Page[T]) (*Page[T], error) {
	if !p.HasNext() {
		return nil, ErrNoMorePages
	}
	var next Page[T]
	if err := a.c.Get(ctx, *p.Next, nil, &next); err != nil {
		return nil, fmt.Errorf("failed to fetch next page: %w", err)
	}
	return &next, nil
}

func pageQuery(page int) url.Values {
	if page <= 1 {
		return nil
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

func getPage[T any](ctx context.Context, a *API, path string, page int) (*Page[T], error) {
	var out Page[T]
	if err := a.c.Get(ctx, path, pageQuery(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
