package csrf

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, handler http.HandlerFunc) (*Resolver, *cookiejar.Jar, *url.URL) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	site, err := url.Parse(srv.URL)
	require.NoError(t, err)

	client := &http.Client{Jar: jar}
	return NewResolver(jar, client, site, srv.URL+"/accounts/csrf/", "", zerolog.Nop()), jar, site
}

func TestTokenFromExistingCookie(t *testing.T) {
	var fetches atomic.Int32
	r, jar, site := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
		fetches.Add(1)
	})
	jar.SetCookies(site, []*http.Cookie{{Name: "csrftoken", Value: "cookie-token", Path: "/"}})

	assert.Equal(t, "cookie-token", r.Token(context.Background()))
	assert.Zero(t, fetches.Load(), "no fetch when the cookie is already present")
}

func TestTokenFetchedWhenMissing(t *testing.T) {
	var fetches atomic.Int32
	r, _, _ := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
		fetches.Add(1)
		assert.Equal(t, "/accounts/csrf/", req.URL.Path)
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "issued", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})

	assert.Equal(t, "issued", r.Token(context.Background()))
	assert.Equal(t, int32(1), fetches.Load())

	// second call is served from the jar
	assert.Equal(t, "issued", r.Token(context.Background()))
	assert.Equal(t, int32(1), fetches.Load())
}

func TestTokenEmptyWhenEndpointIssuesNothing(t *testing.T) {
	var fetches atomic.Int32
	r, _, _ := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
		fetches.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.Empty(t, r.Token(context.Background()))
	assert.Equal(t, int32(1), fetches.Load())
}

func TestTokenEmptyOnNetworkError(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	srv := httptest.NewServer(http.NotFoundHandler())
	site, _ := url.Parse(srv.URL)
	issue := srv.URL + "/accounts/csrf/"
	srv.Close()

	r := NewResolver(jar, &http.Client{Jar: jar}, site, issue, "", zerolog.Nop())
	assert.Empty(t, r.Token(context.Background()))
}

func TestTokenCustomCookieName(t *testing.T) {
	r, jar, site := newResolver(t, func(w http.ResponseWriter, req *http.Request) {})
	r.cookie = "xsrf"
	jar.SetCookies(site, []*http.Cookie{
		{Name: "csrftoken", Value: "wrong", Path: "/"},
		{Name: "xsrf", Value: "right", Path: "/"},
	})

	assert.Equal(t, "right", r.Token(context.Background()))
}
