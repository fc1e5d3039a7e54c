package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, s *Server, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestIssuerRejectsRevokedAndWrongType(t *testing.T) {
	i := newIssuer("secret", time.Minute, time.Hour)
	access, refresh, err := i.pair(7)
	require.NoError(t, err)

	id, err := i.verify(tokenAccess, access)
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	_, err = i.verify(tokenAccess, refresh)
	assert.Error(t, err, "refresh token is not an access token")

	i.accessGen.Add(1)
	_, err = i.verify(tokenAccess, access)
	assert.ErrorIs(t, err, errTokenRevoked)

	_, err = i.verify(tokenRefresh, refresh)
	assert.NoError(t, err, "refresh tokens survive access expiry")

	other := newIssuer("other", time.Minute, time.Hour)
	_, err = other.verify(tokenRefresh, refresh)
	assert.Error(t, err)
}

func TestTokenEndpoint(t *testing.T) {
	s := New(zerolog.Nop(), Options{})

	rec := do(t, s, http.MethodPost, "/api/accounts/token/", `{"email":"ana@example.com","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/accounts/token/", `{"email":"ana@example.com","password":"photos-2024"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pair struct{ Access, Refresh string }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.Equal(t, 2, s.TokenCalls())

	rec = do(t, s, http.MethodGet, "/api/accounts/me/", "", http.Header{"Authorization": {"Bearer " + pair.Access}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), DemoEmail)

	s.Expire()
	rec = do(t, s, http.MethodGet, "/api/accounts/me/", "", http.Header{"Authorization": {"Bearer " + pair.Access}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token_not_valid")

	rec = do(t, s, http.MethodPost, "/api/accounts/token/refresh/", `{"refresh":"`+pair.Refresh+`"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, s.RefreshCalls())
	assert.NotContains(t, rec.Body.String(), `"refresh"`, "no rotation by default")
}

func TestCSRFProtection(t *testing.T) {
	s := New(zerolog.Nop(), Options{})
	access, _, err := s.IssueTokens(DemoEmail)
	require.NoError(t, err)
	bearer := "Bearer " + access

	rec := do(t, s, http.MethodPost, "/api/photos/101/like/", "", http.Header{"Authorization": {bearer}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSRF cookie not set")

	rec = do(t, s, http.MethodGet, "/api/accounts/csrf/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	token := cookies[0].Value
	assert.Equal(t, 1, s.CSRFCalls())

	cookie := http.Header{"Authorization": {bearer}, "Cookie": {"csrftoken=" + token}}
	rec = do(t, s, http.MethodPost, "/api/photos/101/like/", "", cookie)
	assert.Contains(t, rec.Body.String(), "CSRF token missing")

	cookie.Set("X-CSRFToken", "something-else")
	rec = do(t, s, http.MethodPost, "/api/photos/101/like/", "", cookie)
	assert.Contains(t, rec.Body.String(), "CSRF token incorrect")

	cookie.Set("X-CSRFToken", token)
	rec = do(t, s, http.MethodPost, "/api/photos/101/like/", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"liked":true,"like_count":1}`, rec.Body.String())
}

func TestPagination(t *testing.T) {
	s := New(zerolog.Nop(), Options{PageSize: 3})

	rec := do(t, s, http.MethodGet, "/api/events/?page=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Count    int
		Next     *string
		Previous *string
		Results  []json.RawMessage
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 4, page.Count)
	assert.Len(t, page.Results, 1)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://example.com/api/events/?page=1", *page.Previous)

	rec = do(t, s, http.MethodGet, "/api/events/?page=9", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/events/?page=zero", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidBearerRejectedOnPublicEndpoints(t *testing.T) {
	s := New(zerolog.Nop(), Options{})
	rec := do(t, s, http.MethodGet, "/api/events/", "", http.Header{"Authorization": {"Bearer garbage"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/events/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPriceHelpers(t *testing.T) {
	assert.Equal(t, "25.00", formatCents(2500))
	assert.Equal(t, "0.05", formatCents(5))
	assert.Equal(t, 7550, parseCents("75.50"))
}
