package auth

// TokenRequest is the body of the credential login call.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is returned by every call that starts a session.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RefreshRequest represents the token refresh API request
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse represents the token refresh API response. Refresh is only
// set when the server rotates refresh tokens.
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
