package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dvcrn/eventpix-client/internal/credentials"
)

// call is the per-request context. retried flips at most once.
type call struct {
	req         Request
	url         string
	body        []byte
	contentType string
	id          string
	retried     bool
}

// Do sends req, renewing the session once if the server answers 401.
// Non-2xx responses are returned as *StatusError. If the session cannot be
// renewed the error wraps both ErrSessionExpired and the original 401.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	body, contentType, err := req.encode()
	if err != nil {
		return nil, err
	}
	cl := &call{
		req:         req,
		url:         c.URL(req.Path, req.Query),
		body:        body,
		contentType: contentType,
		id:          uuid.NewString(),
	}

	var access string
	for {
		resp, err := c.dispatch(ctx, cl, access)
		if err != nil {
			if cl.retried {
				return nil, fmt.Errorf("retry request failed: %w", err)
			}
			return nil, err
		}

		// If not a 401 error, return the response as-is
		if resp.StatusCode != http.StatusUnauthorized {
			return c.finish(cl, resp)
		}
		// a retried request is never refreshed again
		if cl.retried {
			c.logger.Error().Str("request_id", cl.id).Msg("Still received 401 after token refresh, giving up")
			return c.finish(cl, resp)
		}

		cl.retried = true
		c.logger.Warn().
			Str("request_id", cl.id).
			Str("method", req.method()).
			Str("url", cl.url).
			Msg("Received 401 Unauthorized, attempting token refresh...")

		access, err = c.refresh(ctx)
		if err != nil {
			if !sessionLost(ctx, err) {
				c.logger.Warn().Err(err).Str("request_id", cl.id).Msg("Token refresh interrupted, keeping credentials")
				return nil, fmt.Errorf("token refresh interrupted: %w", err)
			}
			c.expire(ctx, err)
			_, statusErr := c.finish(cl, resp)
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, statusErr)
		}

		c.logger.Info().Str("request_id", cl.id).Msg("Successfully refreshed credentials, retrying request...")
	}
}

// Call sends req and decodes a successful JSON response into out.
func (c *Client) Call(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// dispatch builds a fresh *http.Request for cl, runs the request interceptor
// and reads the whole response. fallbackAccess is used only when the store
// yields no access token.
func (c *Client) dispatch(ctx context.Context, cl *call, fallbackAccess string) (*Response, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, cl.req.method(), cl.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.prepare(ctx, httpReq, cl, fallbackAccess)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("request_id", cl.id).
		Str("method", httpReq.Method).
		Str("url", cl.url).
		Int("status", httpResp.StatusCode).
		Bool("retried", cl.retried).
		Msg("API response")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

// prepare is the request interceptor. Nothing in it may abort the request.
func (c *Client) prepare(ctx context.Context, httpReq *http.Request, cl *call, fallbackAccess string) {
	for k, vs := range cl.req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", cl.contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", cl.id)

	access := c.currentAccess(ctx)
	if access == "" {
		access = fallbackAccess
	}
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
		c.logger.Debug().
			Str("request_id", cl.id).
			Str("authorization_preview", "Bearer "+preview(access)).
			Msg("Attached credentials")
	} else {
		httpReq.Header.Del("Authorization")
	}

	if httpReq.Method != http.MethodGet {
		if token := c.csrf.Token(ctx); token != "" {
			httpReq.Header.Set(c.csrfHeader, token)
		}
	}
}

func (c *Client) currentAccess(ctx context.Context) string {
	creds, err := c.store.Get(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to read credentials, sending request without authorization")
		return ""
	}
	if creds == nil {
		return ""
	}
	return creds.Access
}

// refresh renews the access token, sharing one call among concurrent
// callers when coalescing is enabled. A shared refresh outlives the caller
// that started it; each caller stops waiting when its own ctx is done.
func (c *Client) refresh(ctx context.Context) (string, error) {
	if !c.coalesce {
		return c.refreshOnce(ctx)
	}
	ch := c.group.DoChan("refresh", func() (interface{}, error) {
		shared := context.WithoutCancel(ctx)
		if c.httpClient.Timeout > 0 {
			var cancel context.CancelFunc
			shared, cancel = context.WithTimeout(shared, c.httpClient.Timeout)
			defer cancel()
		}
		return c.refreshOnce(shared)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Debug().Msg("Joined in-flight token refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) refreshOnce(ctx context.Context) (string, error) {
	creds, err := c.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredentialsUnavailable, err)
	}
	if creds == nil || creds.Refresh == "" {
		return "", ErrNoRefreshToken
	}

	tokens, err := c.refresher.Refresh(ctx, creds.Refresh)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	next := credentials.Credentials{Access: tokens.Access, Refresh: creds.Refresh}
	if tokens.Refresh != "" {
		next.Refresh = tokens.Refresh
	}
	if err := c.store.Set(ctx, next); err != nil {
		// Return new tokens even if storage update failed
		c.logger.Error().Err(err).Msg("Failed to update tokens in storage")
	}
	return tokens.Access, nil
}

// sessionLost reports whether a failed refresh means the stored session is
// unusable. Cancellation and unreadable storage leave the session as it is.
func sessionLost(ctx context.Context, err error) bool {
	switch {
	case ctx.Err() != nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrCredentialsUnavailable):
		return false
	}
	return true
}

// expire clears the session and notifies the application.
func (c *Client) expire(ctx context.Context, cause error) {
	c.logger.Error().Err(cause).Msg("Token refresh failed, clearing credentials")
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Msg("Failed to clear credentials")
	}
	if c.onExpired != nil {
		c.onExpired(ctx, cause)
	}
}

func (c *Client) finish(cl *call, resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return resp, nil
	}
	return nil, &StatusError{
		Method:     cl.req.method(),
		URL:        cl.url,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}
}

// preview shortens a token for logging.
func preview(token string) string {
	token = strings.TrimSpace(token)
	if len(token) > 12 {
		return token[:6] + "…" + token[len(token)-6:]
	}
	return token
}
