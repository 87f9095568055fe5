package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ag-office-console/internal/service"
)

const (
	// ContextSessionKey is the gin context key storing the session manager.
	ContextSessionKey = "sessionManager"
	// ContextIDKey is the gin context key storing the browsing context id.
	ContextIDKey = "browsingContextID"
)

// Session is the view of a session manager the guards need.
type Session interface {
	EnsureFresh(ctx context.Context) error
	Snapshot() service.SessionSnapshot
}

// SessionResolver returns the session backing a request, or nil.
type SessionResolver func(c *gin.Context) Session

// CookieConfig describes the browsing context cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// BrowsingContext binds every request to a browsing context identified by a
// cookie, creating one when the cookie is absent or malformed. A context seen
// for the first time is restored from whatever durable tokens it left behind.
func BrowsingContext(registry *service.SessionRegistry, cookie CookieConfig, logger *zap.Logger) gin.HandlerFunc {
	if cookie.Name == "" {
		cookie.Name = "ag_console_ctx"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		id, err := c.Cookie(cookie.Name)
		if err == nil {
			_, err = uuid.Parse(id)
		}
		if err != nil {
			id = uuid.NewString()
		}

		manager, created := registry.Resolve(id)
		if created {
			if err := manager.Restore(c.Request.Context()); err != nil {
				logger.Debug("browsing context not restored", zap.String("context_id", id), zap.Error(err))
			}
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookie.Name, id, int(cookie.MaxAge.Seconds()), "/", "", cookie.Secure, true)
		c.Set(ContextIDKey, id)
		c.Set(ContextSessionKey, manager)
		c.Next()
	}
}

// SessionManagerFrom returns the manager attached by BrowsingContext.
func SessionManagerFrom(c *gin.Context) *service.SessionManager {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	manager, ok := value.(*service.SessionManager)
	if !ok {
		return nil
	}
	return manager
}

// ContextIDFrom returns the browsing context id attached by BrowsingContext.
func ContextIDFrom(c *gin.Context) string {
	return c.GetString(ContextIDKey)
}

// FromContext resolves the session attached by BrowsingContext.
func FromContext(c *gin.Context) Session {
	if manager := SessionManagerFrom(c); manager != nil {
		return manager
	}
	return nil
}
