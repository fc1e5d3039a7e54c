// Package proxy serves the API to local tools while holding the session
// itself: callers never see the tokens, and renewal happens on their behalf.
package proxy

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvcrn/eventpix-client/internal/client"
	"github.com/dvcrn/eventpix-client/internal/credentials"
)

type Server struct {
	client   *client.Client
	store    credentials.Store
	adminKey string
	loginURL string
	router   chi.Router
	logger   zerolog.Logger
}

// Options configure the proxy. LoginURL is reported to callers whose session
// could not be renewed.
type Options struct {
	AdminKey string
	LoginURL string
}

func New(logger zerolog.Logger, c *client.Client, opts Options) *Server {
	s := &Server{
		client:   c,
		store:    c.Store(),
		adminKey: opts.AdminKey,
		loginURL: opts.LoginURL,
		logger:   logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)

	r.Get("/health", s.healthHandler)
	r.Route("/admin/credentials", func(r chi.Router) {
		r.Use(s.adminMiddleware)
		r.Post("/", s.setCredentialsHandler)
		r.Delete("/", s.clearCredentialsHandler)
		r.Get("/status", s.credentialsStatusHandler)
	})
	r.HandleFunc("/api/*", s.forwardHandler)
	r.NotFound(s.notFoundHandler)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Msg("Incoming request")
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Dur("duration", time.Since(start)).
			Msg("Finished request")
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn().
		Str("method", r.Method).
		Str("uri", r.RequestURI).
		Str("remote_addr", r.RemoteAddr).
		Str("user_agent", r.UserAgent()).
		Msg("Unhandled route")
	http.NotFound(w, r)
}

// forwardHandler replays /api/<path> against the Remote API through the
// authenticated client and copies the answer back.
func (s *Server) forwardHandler(w http.ResponseWriter, r *http.Request) {
	path := "/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error reading request body")
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	req := client.Request{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.Query(),
	}
	if len(body) > 0 {
		req.RawBody = body
		req.ContentType = r.Header.Get("Content-Type")
		if req.ContentType == "" {
			req.ContentType = "application/json"
		}
	}

	resp, err := s.client.Do(r.Context(), req)
	if err != nil {
		s.writeForwardError(w, err)
		return
	}
	copyResponse(w, resp.StatusCode, resp.Header, resp.Body)
}

func (s *Server) writeForwardError(w http.ResponseWriter, err error) {
	if errors.Is(err, client.ErrSessionExpired) {
		s.logger.Warn().Err(err).Msg("Session expired, credentials must be set again")
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":     "session_expired",
			"message":   "Session expired, re-authentication required",
			"login_url": s.loginURL,
		})
		return
	}

	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		copyResponse(w, statusErr.StatusCode, statusErr.Header, statusErr.Body)
		return
	}

	s.logger.Error().Err(err).Msg("Error making request to the API")
	http.Error(w, "Failed to communicate with upstream API: "+err.Error(), http.StatusBadGateway)
}

func copyResponse(w http.ResponseWriter, status int, header http.Header, body []byte) {
	if ct := header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(status)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
