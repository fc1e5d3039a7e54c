// Package mockapi is an in-memory stand-in for the event photography API.
// It issues real HS256 tokens, enforces the anti-forgery cookie on unsafe
// requests and counts token refreshes so client behaviour can be asserted.
package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	csrfCookie = "csrftoken"
	csrfHeader = "X-CSRFToken"
)

// Options tune the mock. Zero values get sensible defaults.
type Options struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	PageSize   int
	// RotateRefresh makes the refresh endpoint return a new refresh token.
	RotateRefresh bool
}

type Server struct {
	opts   Options
	tokens *issuer
	router chi.Router
	logger zerolog.Logger

	mu sync.Mutex
	db *data

	tokenCalls   atomic.Int32
	refreshCalls atomic.Int32
	csrfCalls    atomic.Int32
}

func New(logger zerolog.Logger, opts Options) *Server {
	if opts.Secret == "" {
		opts.Secret = "eventpix-mock-secret"
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 5 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 24 * time.Hour
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 2
	}

	s := &Server{
		opts:   opts,
		tokens: newIssuer(opts.Secret, opts.AccessTTL, opts.RefreshTTL),
		logger: logger,
		db:     seed(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := chi.NewRouter()

	// token views authenticate through their body, not the bearer header
	api.Post("/accounts/token/", s.tokenHandler)
	api.Post("/accounts/token/refresh/", s.refreshHandler)
	api.Post("/accounts/register/", s.registerHandler)
	api.Post("/accounts/google/", s.googleHandler)
	api.Get("/accounts/csrf/", s.csrfHandler)

	api.Group(func(r chi.Router) {
		r.Use(s.authenticate, s.csrfProtect)

		r.Get("/accounts/me/", s.meHandler)

		r.Get("/events/", s.listEventsHandler)
		r.Get("/events/{id}/", s.getEventHandler)
		r.Patch("/events/{id}/", s.updateEventHandler)
		r.Get("/events/{id}/galleries/", s.listGalleriesHandler)
		r.Get("/events/{id}/tickets/", s.listTicketsHandler)

		r.Post("/galleries/", s.createGalleryHandler)
		r.Get("/galleries/{id}/", s.getGalleryHandler)
		r.Get("/galleries/{id}/photos/", s.listPhotosHandler)
		r.Post("/galleries/{id}/photos/", s.uploadPhotoHandler)

		r.Post("/photos/{id}/like/", s.likeHandler)
		r.Delete("/photos/{id}/like/", s.unlikeHandler)

		r.Post("/checkout/", s.checkoutHandler)
	})

	root := chi.NewRouter()
	root.Use(s.loggingMiddleware)
	root.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	root.Mount("/api", api)
	s.router = root
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Expire invalidates every access token issued so far.
func (s *Server) Expire() {
	s.tokens.accessGen.Add(1)
}

// RevokeRefresh invalidates every refresh token issued so far.
func (s *Server) RevokeRefresh() {
	s.tokens.refreshGen.Add(1)
}

func (s *Server) TokenCalls() int   { return int(s.tokenCalls.Load()) }
func (s *Server) RefreshCalls() int { return int(s.refreshCalls.Load()) }
func (s *Server) CSRFCalls() int    { return int(s.csrfCalls.Load()) }

// AddGoogleAccount makes token acceptable at the Google login endpoint.
func (s *Server) AddGoogleAccount(token, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db.google[token] = email
}

// IssueTokens returns a fresh pair for a seeded account.
func (s *Server) IssueTokens(email string) (access, refresh string, err error) {
	s.mu.Lock()
	acc, ok := s.db.accounts[email]
	s.mu.Unlock()
	if !ok {
		return "", "", errNoAccount
	}
	return s.tokens.pair(acc.user.ID)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Str("request_id", r.Header.Get("X-Request-Id")).
			Dur("duration", time.Since(start)).
			Msg("Mock API request")
	})
}

type userKey struct{}

// authenticate resolves the bearer token. A missing header means anonymous;
// a present but invalid one is rejected outright.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			writeDetail(w, http.StatusUnauthorized, "Authorization header must contain two space-delimited values")
			return
		}
		userID, err := s.tokens.verify(tokenAccess, header[len(prefix):])
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, userID)))
	})
}

func (s *Server) csrfProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(csrfCookie)
		if err != nil || cookie.Value == "" {
			writeDetail(w, http.StatusForbidden, "CSRF Failed: CSRF cookie not set.")
			return
		}
		token := r.Header.Get(csrfHeader)
		if token == "" {
			writeDetail(w, http.StatusForbidden, "CSRF Failed: CSRF token missing.")
			return
		}
		if token != cookie.Value {
			writeDetail(w, http.StatusForbidden, "CSRF Failed: CSRF token incorrect.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser returns the authenticated user id, or 0.
func currentUser(r *http.Request) int {
	id, _ := r.Context().Value(userKey{}).(int)
	return id
}

// requireUser writes a 401 and returns false for anonymous requests.
func requireUser(w http.ResponseWriter, r *http.Request) (int, bool) {
	id := currentUser(r)
	if id == 0 {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return 0, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
