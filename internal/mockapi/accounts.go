package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dvcrn/eventpix-client/internal/api"
	"github.com/dvcrn/eventpix-client/internal/auth"
)

var errNoAccount = errors.New("no such account")

func (s *Server) issue(w http.ResponseWriter, status, userID int) {
	access, refresh, err := s.tokens.pair(userID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue tokens")
		writeDetail(w, http.StatusInternalServerError, "token signing failed")
		return
	}
	writeJSON(w, status, auth.TokenPair{Access: access, Refresh: refresh})
}

func (s *Server) tokenHandler(w http.ResponseWriter, r *http.Request) {
	s.tokenCalls.Add(1)

	var req auth.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acc, ok := s.db.accounts[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if !ok || acc.password == "" || acc.password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}
	s.issue(w, http.StatusOK, acc.user.ID)
}

func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	var req auth.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}
	userID, err := s.tokens.verify(tokenRefresh, req.Refresh)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}

	access, err := s.tokens.sign(tokenAccess, userID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "token signing failed")
		return
	}
	resp := auth.RefreshResponse{Access: access}
	if s.opts.RotateRefresh {
		if resp.Refresh, err = s.tokens.sign(tokenRefresh, userID); err != nil {
			writeDetail(w, http.StatusInternalServerError, "token signing failed")
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	problems := map[string][]string{}
	if !strings.Contains(email, "@") {
		problems["email"] = append(problems["email"], "Enter a valid email address.")
	}
	if len(req.Password) < 8 {
		problems["password"] = append(problems["password"], "This password is too short. It must contain at least 8 characters.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.db.accounts[email]; taken {
		problems["email"] = append(problems["email"], "user with this email already exists.")
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, problems)
		return
	}

	acc := &account{
		user: api.User{
			ID:             s.db.id(),
			Email:          email,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			IsPhotographer: req.IsPhotographer,
		},
		password: req.Password,
	}
	s.db.accounts[email] = acc
	s.issue(w, http.StatusCreated, acc.user.ID)
}

// googleHandler exchanges a Google access token for an API session,
// creating the account on first use.
func (s *Server) googleHandler(w http.ResponseWriter, r *http.Request) {
	var req api.GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccessToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"access_token": {"This field is required."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.db.google[req.AccessToken]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"Incorrect value"}})
		return
	}
	acc, ok := s.db.accounts[email]
	if !ok {
		acc = &account{user: api.User{ID: s.db.id(), Email: email}}
		s.db.accounts[email] = acc
	}
	s.issue(w, http.StatusOK, acc.user.ID)
}

func (s *Server) csrfHandler(w http.ResponseWriter, r *http.Request) {
	s.csrfCalls.Add(1)
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookie,
		Value:    strings.ReplaceAll(uuid.NewString(), "-", ""),
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	writeDetail(w, http.StatusOK, "CSRF cookie set")
}

func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	acc := s.db.accountByID(userID)
	s.mu.Unlock()
	if acc == nil {
		writeDetail(w, http.StatusUnauthorized, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, acc.user)
}
