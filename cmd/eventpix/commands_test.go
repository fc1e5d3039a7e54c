package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvcrn/eventpix-client/internal/api"
	"github.com/dvcrn/eventpix-client/internal/client"
	"github.com/dvcrn/eventpix-client/internal/config"
	"github.com/dvcrn/eventpix-client/internal/credentials"
	"github.com/dvcrn/eventpix-client/internal/mockapi"
)

func newTestSession(t *testing.T) (*session, *mockapi.Server) {
	t.Helper()
	mock := mockapi.New(zerolog.Nop(), mockapi.Options{})
	srv := httptest.NewServer(mock)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Env: "development",
		API: config.APIConfig{
			BaseURL:     srv.URL + "/api",
			TokenPath:   "/accounts/token/",
			RefreshPath: "/accounts/token/refresh/",
			CSRFPath:    "/accounts/csrf/",
			LoginURL:    "/login",
			Timeout:     5 * time.Second,
		},
		Store: config.StoreConfig{Driver: credentials.DriverMemory},
	}
	s, err := newSession(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	return s, mock
}

// captureOutput runs fn with command output redirected into a buffer.
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()
	err := fn()
	return buf.String(), err
}

func decodeAll[T any](t *testing.T, out string) []T {
	t.Helper()
	var items []T
	dec := json.NewDecoder(bytes.NewBufferString(out))
	for {
		var v T
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return items
		}
		require.NoError(t, err)
		items = append(items, v)
	}
}

func TestLoginMeEventsRoundTrip(t *testing.T) {
	s, mock := newTestSession(t)
	ctx := context.Background()

	out, err := captureOutput(t, func() error {
		return runLogin(ctx, s, []string{"-email", mockapi.DemoEmail, "-password", mockapi.DemoPassword})
	})
	require.NoError(t, err)
	assert.Equal(t, "Logged in as "+mockapi.DemoEmail+"\n", out)

	creds, err := s.store.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.NotEmpty(t, creds.Refresh)

	// an expired access token is renewed without the command noticing
	mock.Expire()
	out, err = captureOutput(t, func() error { return runMe(ctx, s, nil) })
	require.NoError(t, err)
	me := decodeAll[api.User](t, out)
	require.Len(t, me, 1)
	assert.Equal(t, mockapi.DemoEmail, me[0].Email)
	assert.Equal(t, 1, mock.RefreshCalls())

	out, err = captureOutput(t, func() error { return runEvents(ctx, s, []string{"-all"}) })
	require.NoError(t, err)
	events := decodeAll[api.Event](t, out)
	require.Len(t, events, 4, "inactive events are hidden from non-staff users")
	for _, ev := range events {
		assert.True(t, ev.IsActive)
	}

	out, err = captureOutput(t, func() error { return runEvents(ctx, s, nil) })
	require.NoError(t, err)
	assert.Len(t, decodeAll[api.Event](t, out), 2, "one page without -all")
}

func TestStatusAndLogout(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	_, err := captureOutput(t, func() error {
		return runLogin(ctx, s, []string{"-email", mockapi.DemoEmail, "-password", mockapi.DemoPassword})
	})
	require.NoError(t, err)

	out, err := captureOutput(t, func() error { return runStatus(ctx, s, nil) })
	require.NoError(t, err)
	status := decodeAll[map[string]interface{}](t, out)
	require.Len(t, status, 1)
	assert.Equal(t, credentials.DriverMemory, status[0]["store"])
	assert.Equal(t, true, status[0]["hasCredentials"])

	out, err = captureOutput(t, func() error { return runLogout(ctx, s, nil) })
	require.NoError(t, err)
	assert.Equal(t, "Logged out\n", out)

	_, err = captureOutput(t, func() error { return runMe(ctx, s, nil) })
	assert.ErrorIs(t, err, client.ErrSessionExpired)
}

func TestCommandsRequireIDs(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	assert.EqualError(t, runEvent(ctx, s, nil), "-id is required")
	assert.EqualError(t, runPhotos(ctx, s, nil), "-gallery is required")
	assert.Error(t, runLogin(ctx, s, []string{"-email", mockapi.DemoEmail, "-password", ""}))
}

func TestCartItems(t *testing.T) {
	items, err := cartItems([]string{"3:2", "4"}, []string{"101"})
	require.NoError(t, err)
	assert.Equal(t, []api.CheckoutItem{
		{Kind: api.KindTicket, ID: 3, Quantity: 2},
		{Kind: api.KindTicket, ID: 4, Quantity: 1},
		{Kind: api.KindPhoto, ID: 101, Quantity: 1},
	}, items)

	_, err = cartItems([]string{"x:1"}, nil)
	assert.Error(t, err)
	_, err = cartItems([]string{"1:many"}, nil)
	assert.Error(t, err)
	_, err = cartItems(nil, []string{"p"})
	assert.Error(t, err)
}
