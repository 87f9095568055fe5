package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ag-office-console/internal/apiclient"
	"github.com/noah-isme/ag-office-console/internal/apiclient/apiclienttest"
	"github.com/noah-isme/ag-office-console/internal/service"
)

func TestBrowsingContextIssuesAndReusesCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	upstream := apiclienttest.New(t)
	registry := service.NewSessionRegistry(service.SessionRegistryConfig{
		API: apiclient.Config{BaseURL: upstream.URL},
	}, nil, nil, nil, nil)

	r := gin.New()
	r.Use(BrowsingContext(registry, CookieConfig{Name: "ctx", MaxAge: time.Hour}, nil))
	r.GET("/", func(c *gin.Context) {
		require.NotNil(t, SessionManagerFrom(c))
		c.String(http.StatusOK, ContextIDFrom(c))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "ctx", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, rec.Body.String(), cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, cookies[0].Value, rec.Body.String())
	assert.Equal(t, 1, registry.Len())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "ctx", Value: "forged"})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, "forged", rec.Body.String())
	assert.Equal(t, 2, registry.Len())
}
