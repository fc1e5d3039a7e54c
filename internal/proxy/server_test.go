package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvcrn/eventpix-client/internal/client"
	"github.com/dvcrn/eventpix-client/internal/credentials"
	"github.com/dvcrn/eventpix-client/internal/mockapi"
)

const testAdminKey = "admin-key"

type fixture struct {
	proxy *Server
	mock  *mockapi.Server
	store credentials.Store
}

func newFixture(t *testing.T, adminKey string) *fixture {
	t.Helper()
	mock := mockapi.New(zerolog.Nop(), mockapi.Options{})
	upstream := httptest.NewServer(mock)
	t.Cleanup(upstream.Close)

	store := credentials.NewMemoryStore()
	c, err := client.New(store, client.Config{BaseURL: upstream.URL + "/api"}, zerolog.Nop())
	require.NoError(t, err)

	return &fixture{
		proxy: New(zerolog.Nop(), c, Options{AdminKey: adminKey, LoginURL: "/login"}),
		mock:  mock,
		store: store,
	}
}

func (f *fixture) serve(method, target, body string, header http.Header) *httptest.ResponseRecorder {
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
	f.proxy.ServeHTTP(rec, req)
	return rec
}

func adminHeader() http.Header {
	return http.Header{"Authorization": {"Bearer " + testAdminKey}}
}

func (f *fixture) loginAs(t *testing.T, email string) credentials.Credentials {
	t.Helper()
	access, refresh, err := f.mock.IssueTokens(email)
	require.NoError(t, err)
	creds := credentials.Credentials{Access: access, Refresh: refresh}
	body, _ := json.Marshal(creds)
	rec := f.serve(http.MethodPost, "/admin/credentials", string(body), adminHeader())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return creds
}

func TestHealth(t *testing.T) {
	f := newFixture(t, testAdminKey)
	rec := f.serve(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAdminMiddleware(t *testing.T) {
	f := newFixture(t, testAdminKey)

	tests := []struct {
		name   string
		header http.Header
		want   int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong key", http.Header{"Authorization": {"Bearer nope"}}, http.StatusUnauthorized},
		{"bad format", http.Header{"Authorization": {testAdminKey}}, http.StatusUnauthorized},
		{"bearer", adminHeader(), http.StatusOK},
		{"lowercase bearer", http.Header{"Authorization": {"bearer " + testAdminKey}}, http.StatusOK},
		{"x-api-key", http.Header{"X-Api-Key": {testAdminKey}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.serve(http.MethodGet, "/admin/credentials/status", "", tt.header)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	unconfigured := newFixture(t, "")
	rec := unconfigured.serve(http.MethodGet, "/admin/credentials/status", "", adminHeader())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSetCredentialsValidation(t *testing.T) {
	f := newFixture(t, testAdminKey)

	rec := f.serve(http.MethodPost, "/admin/credentials", "{", adminHeader())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.serve(http.MethodPost, "/admin/credentials", `{"access":"a"}`, adminHeader())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	creds, _ := f.store.Get(context.Background())
	assert.Nil(t, creds)
}

func TestForwardWithStoredSession(t *testing.T) {
	f := newFixture(t, testAdminKey)
	f.loginAs(t, mockapi.DemoEmail)

	rec := f.serve(http.MethodGet, "/api/accounts/me/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), mockapi.DemoEmail)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	// unsafe methods pick up the anti-forgery token on the way
	rec = f.serve(http.MethodPost, "/api/photos/101/like/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, f.mock.CSRFCalls())

	rec = f.serve(http.MethodPost, "/api/checkout/",
		`{"items":[{"kind":"ticket","id":1,"quantity":1}]}`,
		http.Header{"Content-Type": {"application/json"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total":"25.00"`)
}

func TestForwardKeepsQuery(t *testing.T) {
	f := newFixture(t, testAdminKey)

	rec := f.serve(http.MethodGet, "/api/events/?page=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Previous *string `json:"previous"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.NotNil(t, page.Previous)
}

func TestForwardPassesUpstreamErrors(t *testing.T) {
	f := newFixture(t, testAdminKey)

	rec := f.serve(http.MethodGet, "/api/events/999/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not found.")
}

func TestForwardRenewsExpiredSession(t *testing.T) {
	f := newFixture(t, testAdminKey)
	before := f.loginAs(t, mockapi.DemoEmail)

	f.mock.Expire()
	rec := f.serve(http.MethodGet, "/api/accounts/me/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.mock.RefreshCalls())

	after, _ := f.store.Get(context.Background())
	assert.NotEqual(t, before.Access, after.Access)
}

func TestForwardReportsSessionExpired(t *testing.T) {
	f := newFixture(t, testAdminKey)
	f.loginAs(t, mockapi.DemoEmail)

	f.mock.Expire()
	f.mock.RevokeRefresh()
	rec := f.serve(http.MethodGet, "/api/accounts/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "session_expired")
	assert.Contains(t, rec.Body.String(), "/login")

	rec = f.serve(http.MethodGet, "/admin/credentials/status", "", adminHeader())
	assert.JSONEq(t, `{"hasCredentials":false}`, rec.Body.String())
}

func TestClearCredentials(t *testing.T) {
	f := newFixture(t, testAdminKey)
	f.loginAs(t, mockapi.DemoEmail)

	rec := f.serve(http.MethodDelete, "/admin/credentials", "", adminHeader())
	require.Equal(t, http.StatusOK, rec.Code)

	creds, _ := f.store.Get(context.Background())
	assert.Nil(t, creds)
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	s, err := token.SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestStatus(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.Equal(t, map[string]interface{}{"hasCredentials": false}, Status(nil, now))

	fresh := Status(&credentials.Credentials{Access: signed(t, now.Add(time.Hour)), Refresh: "r"}, now)
	assert.Equal(t, true, fresh["hasCredentials"])
	assert.Equal(t, true, fresh["hasRefreshToken"])
	assert.Equal(t, int64(60), fresh["minutesUntilExpiry"])
	assert.Equal(t, false, fresh["isExpired"])
	assert.Equal(t, false, fresh["needsRefreshSoon"])

	soon := Status(&credentials.Credentials{Access: signed(t, now.Add(2*time.Minute))}, now)
	assert.Equal(t, false, soon["isExpired"])
	assert.Equal(t, true, soon["needsRefreshSoon"])
	assert.Equal(t, false, soon["hasRefreshToken"])

	expired := Status(&credentials.Credentials{Access: signed(t, now.Add(-time.Minute))}, now)
	assert.Equal(t, true, expired["isExpired"])

	opaque := Status(&credentials.Credentials{Access: "not-a-jwt"}, now)
	assert.Equal(t, true, opaque["hasCredentials"])
	assert.Contains(t, opaque, "error")
}
