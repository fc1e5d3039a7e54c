package proxy

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dvcrn/eventpix-client/internal/auth"
	"github.com/dvcrn/eventpix-client/internal/credentials"
)

// adminMiddleware checks for valid admin API key from either
// 'Authorization: Bearer <key>' or 'X-API-Key: <key>' headers.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			s.logger.Error().Msg("ADMIN_API_KEY not configured")
			http.Error(w, "Admin API not configured", http.StatusInternalServerError)
			return
		}

		var providedToken string
		authHeader := r.Header.Get("Authorization")
		xAPIKeyHeader := r.Header.Get("X-API-Key")

		if authHeader != "" {
			// Expect "Bearer <token>" format, case-insensitive
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				s.logger.Warn().
					Str("method", r.Method).
					Str("uri", r.RequestURI).
					Str("remote_addr", r.RemoteAddr).
					Msg("Invalid Authorization header format for admin endpoint")
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}
			providedToken = parts[1]
		} else if xAPIKeyHeader != "" {
			providedToken = xAPIKeyHeader
		} else {
			s.logger.Warn().
				Str("method", r.Method).
				Str("uri", r.RequestURI).
				Str("remote_addr", r.RemoteAddr).
				Msg("Missing required Authorization or X-API-Key header for admin endpoint")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if subtle.ConstantTimeCompare([]byte(providedToken), []byte(s.adminKey)) != 1 {
			s.logger.Warn().
				Str("method", r.Method).
				Str("uri", r.RequestURI).
				Str("remote_addr", r.RemoteAddr).
				Msg("Invalid admin API key provided")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Str("remote_addr", r.RemoteAddr).
			Msg("Admin request authorized")

		next.ServeHTTP(w, r)
	})
}

// setCredentialsHandler handles POST /admin/credentials
func (s *Server) setCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	var reqBody credentials.Credentials
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		s.logger.Error().Err(err).Msg("Failed to parse request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if reqBody.Access == "" || reqBody.Refresh == "" {
		http.Error(w, "Missing required fields: access, refresh", http.StatusBadRequest)
		return
	}

	if err := s.store.Set(r.Context(), reqBody); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store credentials")
		http.Error(w, "Failed to update credentials", http.StatusInternalServerError)
		return
	}

	s.logger.Info().Msg("Credentials updated successfully")
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Credentials updated successfully",
	})
}

// clearCredentialsHandler handles DELETE /admin/credentials
func (s *Server) clearCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear credentials")
		http.Error(w, "Failed to clear credentials", http.StatusInternalServerError)
		return
	}
	s.logger.Info().Msg("Credentials cleared")
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Credentials cleared",
	})
}

// credentialsStatusHandler handles GET /admin/credentials/status
func (s *Server) credentialsStatusHandler(w http.ResponseWriter, r *http.Request) {
	creds, err := s.store.Get(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"hasCredentials": false,
			"error":          err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, Status(creds, time.Now()))
}

// Status describes stored credentials for operators. Expiry is read from the
// access token without verification.
func Status(creds *credentials.Credentials, now time.Time) map[string]interface{} {
	if creds == nil {
		return map[string]interface{}{"hasCredentials": false}
	}
	response := map[string]interface{}{
		"hasCredentials":  true,
		"hasRefreshToken": creds.Refresh != "",
	}

	expiresAt, err := auth.Expiry(creds.Access)
	if err != nil {
		if !errors.Is(err, auth.ErrNoExpiry) {
			response["error"] = err.Error()
		}
		return response
	}

	minutesUntilExpiry := int64(expiresAt.Sub(now) / time.Minute)
	response["expiresAt"] = expiresAt.Unix()
	response["minutesUntilExpiry"] = minutesUntilExpiry
	response["isExpired"] = !now.Before(expiresAt)
	response["needsRefreshSoon"] = !now.Before(expiresAt.Add(-auth.ExpiryBuffer))
	return response
}
