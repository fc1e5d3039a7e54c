package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

var (
	// ErrRefreshRejected means the server refused the refresh token itself.
	ErrRefreshRejected = errors.New("refresh token rejected")
	// ErrEmptyAccess means the refresh call succeeded without returning a token.
	ErrEmptyAccess = errors.New("refresh response carried no access token")
)

// HTTPClient is an interface for making HTTP requests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Refresher exchanges a refresh token for a new access token. It talks to
// the transport directly so the exchange never passes through the client's
// own interception.
type Refresher struct {
	url    string
	client HTTPClient
	logger zerolog.Logger
}

func NewRefresher(refreshURL string, client HTTPClient, logger zerolog.Logger) *Refresher {
	return &Refresher{url: refreshURL, client: client, logger: logger}
}

// Refresh performs a token refresh and returns the new credentials
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	jsonData, err := json.Marshal(RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		r.logger.Debug().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Token refresh refused")
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: status %d", ErrRefreshRejected, resp.StatusCode)
		}
		return nil, fmt.Errorf("token refresh failed with status %d: %s", resp.StatusCode, body)
	}

	var tokenResp RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if tokenResp.Access == "" {
		return nil, ErrEmptyAccess
	}

	return &tokenResp, nil
}
