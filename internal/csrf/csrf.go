// Package csrf resolves the anti-forgery token sent on state-changing requests.
package csrf

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
)

const (
	DefaultCookie = "csrftoken"
	DefaultHeader = "X-CSRFToken"
)

// HTTPClient is the transport used for the token-issuing fetch. It must send
// and record cookies through the same jar the Resolver reads.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolver looks the token up in a cookie jar and, when it is missing, asks
// the API to issue one. Token never fails: any error yields "".
type Resolver struct {
	jar      http.CookieJar
	client   HTTPClient
	site     *url.URL
	issueURL string
	cookie   string
	logger   zerolog.Logger
}

// NewResolver builds a resolver reading cookie from jar for site. issueURL
// is fetched with GET when the cookie is absent.
func NewResolver(jar http.CookieJar, client HTTPClient, site *url.URL, issueURL, cookie string, logger zerolog.Logger) *Resolver {
	if cookie == "" {
		cookie = DefaultCookie
	}
	return &Resolver{
		jar:      jar,
		client:   client,
		site:     site,
		issueURL: issueURL,
		cookie:   cookie,
		logger:   logger,
	}
}

// Token returns the anti-forgery token or "". Concurrent callers may each
// trigger their own fetch.
func (r *Resolver) Token(ctx context.Context) string {
	if token := r.fromJar(); token != "" {
		return token
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.issueURL, nil)
	if err != nil {
		r.logger.Debug().Err(err).Msg("Failed to build CSRF request")
		return ""
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug().Err(err).Str("url", r.issueURL).Msg("CSRF token fetch failed")
		return ""
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	token := r.fromJar()
	if token == "" {
		r.logger.Debug().
			Int("status", resp.StatusCode).
			Str("cookie", r.cookie).
			Msg("CSRF endpoint did not issue a cookie")
	}
	return token
}

func (r *Resolver) fromJar() string {
	if r.jar == nil {
		return ""
	}
	for _, c := range r.jar.Cookies(r.site) {
		if c.Name == r.cookie {
			return c.Value
		}
	}
	return ""
}
