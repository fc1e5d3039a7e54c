package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvcrn/eventpix-client/internal/auth"
	"github.com/dvcrn/eventpix-client/internal/client"
	"github.com/dvcrn/eventpix-client/internal/credentials"
)

var (
	// ErrInvalidCredentials is returned by Login when the API rejects the
	// email/password combination.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrIncompleteTokens means a login-type call returned without both tokens.
	ErrIncompleteTokens = errors.New("server returned an incomplete token pair")
)

// Login exchanges email and password for a token pair and stores it.
func (a *API) Login(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	var pair auth.TokenPair
	err := a.c.Post(ctx, a.paths.Token, auth.TokenRequest{Email: email, Password: password}, &pair)
	if err != nil {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) && statusErr.Unauthorized() {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, statusErr)
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return a.startSession(ctx, pair)
}

// Register creates an account. The API logs the new user in immediately.
func (a *API) Register(ctx context.Context, req RegisterRequest) (*auth.TokenPair, error) {
	var pair auth.TokenPair
	if err := a.c.Post(ctx, a.paths.Register, req, &pair); err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return a.startSession(ctx, pair)
}

// GoogleLogin trades a Google OAuth access token for an API session.
func (a *API) GoogleLogin(ctx context.Context, googleAccessToken string) (*auth.TokenPair, error) {
	var pair auth.TokenPair
	if err := a.c.Post(ctx, a.paths.Google, GoogleLoginRequest{AccessToken: googleAccessToken}, &pair); err != nil {
		return nil, fmt.Errorf("google login failed: %w", err)
	}
	return a.startSession(ctx, pair)
}

func (a *API) startSession(ctx context.Context, pair auth.TokenPair) (*auth.TokenPair, error) {
	if pair.Access == "" || pair.Refresh == "" {
		return nil, ErrIncompleteTokens
	}
	if err := a.c.Store().Set(ctx, credentials.Credentials{Access: pair.Access, Refresh: pair.Refresh}); err != nil {
		return nil, fmt.Errorf("failed to store credentials: %w", err)
	}
	return &pair, nil
}

func (a *API) Me(ctx context.Context) (*User, error) {
	var u User
	if err := a.c.Get(ctx, "/accounts/me/", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout forgets the session locally. The backend keeps no session state.
func (a *API) Logout(ctx context.Context) error {
	if err := a.c.Store().Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
