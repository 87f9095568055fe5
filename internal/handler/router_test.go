package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ag-office-console/internal/apiclient"
	"github.com/noah-isme/ag-office-console/internal/apiclient/apiclienttest"
	"github.com/noah-isme/ag-office-console/internal/menu"
	"github.com/noah-isme/ag-office-console/internal/middleware"
	"github.com/noah-isme/ag-office-console/internal/service"
)

var alice = apiclienttest.User{
	Email:       "a@x.com",
	Password:    "secret",
	FullName:    "Alice Martin",
	Role:        "MANAGER",
	Permissions: []string{"suppliers:read"},
}

type consoleFixture struct {
	upstream *apiclienttest.Server
	registry *service.SessionRegistry
	server   *httptest.Server
	client   *http.Client
}

func newConsoleFixture(t *testing.T) *consoleFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	upstream := apiclienttest.New(t, alice)

	sections, err := menu.Default()
	require.NoError(t, err)
	tmpl, err := Templates()
	require.NoError(t, err)
	metrics := service.NewMetricsService()
	locale := service.NewLocaleService([]string{"fr", "en"})
	registry := service.NewSessionRegistry(service.SessionRegistryConfig{
		API: apiclient.Config{BaseURL: upstream.URL},
	}, nil, locale, metrics, nil)

	router := NewRouter(RouterDeps{
		Registry:  registry,
		Sections:  sections,
		Templates: tmpl,
		Metrics:   metrics,
		Locale:    locale,
		Cookie:    middleware.CookieConfig{Name: "ctx"},
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &consoleFixture{upstream: upstream, registry: registry, server: server, client: client}
}

func (f *consoleFixture) do(t *testing.T, method, path string, body io.Reader, contentType string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := f.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func (f *consoleFixture) get(t *testing.T, path string) (*http.Response, string) {
	return f.do(t, http.MethodGet, path, nil, "")
}

func (f *consoleFixture) signIn(t *testing.T, password, from string) (*http.Response, string) {
	form := url.Values{"email": {alice.Email}, "password": {password}, "from": {from}}
	return f.do(t, http.MethodPost, "/signin", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func TestGuardedPageRedirectsToSignIn(t *testing.T) {
	f := newConsoleFixture(t)

	resp, _ := f.get(t, "/suppliers")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/signin?from=%2Fsuppliers", resp.Header.Get("Location"))

	resp, body := f.get(t, "/signin?from=%2Fsuppliers")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="from" value="/suppliers"`)
}

func TestSignInReturnsToRequestedPage(t *testing.T) {
	f := newConsoleFixture(t)

	resp, _ := f.signIn(t, alice.Password, "/suppliers")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/suppliers", resp.Header.Get("Location"))

	resp, body := f.get(t, "/suppliers")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/suppliers"`)
	assert.NotContains(t, body, `href="/roles"`)

	resp, _ = f.get(t, "/roles")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/forbidden", resp.Header.Get("Location"))

	resp, body = f.get(t, "/api/session")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var envelope struct {
		Data service.SessionSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	assert.True(t, envelope.Data.IsAuthenticated())
	assert.Equal(t, []string{"suppliers:read"}, envelope.Data.Permissions.Codes())
}

func TestSignInRejectsOffSiteRedirect(t *testing.T) {
	f := newConsoleFixture(t)

	resp, _ := f.signIn(t, alice.Password, "//evil.example.com")
	assert.Equal(t, "/", resp.Header.Get("Location"))

	f.do(t, http.MethodPost, "/signout", nil, "")
	resp, _ = f.signIn(t, alice.Password, "/\t/evil.example.com")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestSignInWithWrongPassword(t *testing.T) {
	f := newConsoleFixture(t)

	resp, body := f.signIn(t, "wrong", "/")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "unable to sign in, check your credentials")
	assert.Contains(t, body, `value="a@x.com"`)

	resp, _ = f.get(t, "/api/session")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignOut(t *testing.T) {
	f := newConsoleFixture(t)
	f.signIn(t, alice.Password, "/")
	f.upstream.Fail("/auth/logout", http.StatusServiceUnavailable)

	resp, _ := f.do(t, http.MethodPost, "/signout", nil, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/signin", resp.Header.Get("Location"))
	assert.Equal(t, 0, f.registry.Len())

	resp, _ = f.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestSessionsAPINeverRevokesCurrentSession(t *testing.T) {
	f := newConsoleFixture(t)
	f.signIn(t, alice.Password, "/")
	other := f.upstream.StartSession(alice.Email, "Android 14")

	resp, body := f.get(t, "/api/sessions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var envelope struct {
		Data struct {
			Sessions []struct {
				ID        string `json:"id"`
				IsCurrent bool   `json:"is_current"`
				Revocable bool   `json:"revocable"`
			} `json:"sessions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	require.Len(t, envelope.Data.Sessions, 2)
	current := envelope.Data.Sessions[0]
	assert.True(t, current.IsCurrent)
	assert.False(t, current.Revocable)

	resp, body = f.do(t, http.MethodDelete, "/api/sessions/"+current.ID, nil, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "CURRENT_SESSION")

	resp, _ = f.do(t, http.MethodDelete, "/api/sessions/"+other, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, f.upstream.SessionCount())
}

func TestLogoutAllAPI(t *testing.T) {
	f := newConsoleFixture(t)
	f.signIn(t, alice.Password, "/")

	resp, _ := f.do(t, http.MethodPost, "/api/logout-all", strings.NewReader(`{"current_password":"nope"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.get(t, "/api/session")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/api/logout-all", strings.NewReader(`{"current_password":"secret"}`), "application/json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"revoked_sessions":1`)
	assert.Equal(t, 0, f.registry.Len())

	resp, _ = f.get(t, "/api/session")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpstreamRevocationEndsConsoleSession(t *testing.T) {
	f := newConsoleFixture(t)
	f.signIn(t, alice.Password, "/")
	f.upstream.RevokeAll()

	resp, _ := f.do(t, http.MethodPost, "/api/permissions/reload", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.get(t, "/suppliers")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/signin")
}

func TestReloadIdentity(t *testing.T) {
	f := newConsoleFixture(t)
	f.signIn(t, alice.Password, "/")
	f.upstream.SetFullName(alice.Email, "Alice Dupont")

	resp, body := f.do(t, http.MethodPost, "/api/identity/reload", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"full_name":"Alice Dupont"`)

	_, body = f.get(t, "/api/session")
	assert.Contains(t, body, "Alice Dupont")
}

func TestMetricsSnapshotRequiresPermission(t *testing.T) {
	f := newConsoleFixture(t)
	f.signIn(t, alice.Password, "/")

	resp, _ := f.get(t, "/api/metrics")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	f.upstream.SetPermissions(alice.Email, "suppliers:read", "system_config:read")
	resp, _ = f.do(t, http.MethodPost, "/api/permissions/reload", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.get(t, "/api/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"logins":1`)
}

func TestOperationalEndpoints(t *testing.T) {
	f := newConsoleFixture(t)

	resp, _ := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.get(t, "/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "http_requests_total")
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/suppliers?page=2":    "/suppliers?page=2",
		"https://evil.example": "/",
		"//evil.example":       "/",
		"/\\evil.example":      "/",
		"/signin":              "/",
		"/signin?from=%2F":     "/",
		"/\t/evil.example":     "/",
		"/\n/evil.example":     "/",
		"/\r\n/evil.example":   "/",
		"/ /evil.example":      "/",
		"/suppliers\x00":       "/",
		"/signin#top":          "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeRedirect(in), in)
	}
}
