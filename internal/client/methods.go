package client

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Call(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Call(ctx, Request{Method: http.MethodPost, Path: path, Body: in}, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.Call(ctx, Request{Method: http.MethodPut, Path: path, Body: in}, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.Call(ctx, Request{Method: http.MethodPatch, Path: path, Body: in}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Call(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}
