package client

import (
	"net/http"
	"net/http/cookiejar"
	"time"
)

// DefaultTimeout applies when the configuration leaves the timeout unset.
const DefaultTimeout = 60 * time.Second

// NewHTTPClient creates the transport used by the client. The cookie jar
// carries the anti-forgery cookie between requests.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	// cookiejar.New only fails for a non-nil PublicSuffixList
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout: timeout,
		Jar:     jar,
	}
}
