package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/ag-office-console/internal/models"
	"github.com/noah-isme/ag-office-console/internal/permission"
	"github.com/noah-isme/ag-office-console/internal/service"
	appErrors "github.com/noah-isme/ag-office-console/pkg/errors"
	"github.com/noah-isme/ag-office-console/pkg/response"
)

// Guard decisions, as recorded in metrics.
const (
	DecisionAllow     = "allow"
	DecisionSignIn    = "signin"
	DecisionForbidden = "forbidden"
	DecisionBlank     = "blank"
)

// Responder renders the outcome of a guard that refused a request. Each
// method must abort the chain.
type Responder interface {
	SignIn(c *gin.Context)
	Forbidden(c *gin.Context)
	Blank(c *gin.Context)
}

// RedirectResponder answers page requests with redirects.
type RedirectResponder struct {
	SignInPath    string
	ForbiddenPath string
}

// SignIn redirects to the sign-in page, remembering the requested location.
func (r RedirectResponder) SignIn(c *gin.Context) {
	target := r.SignInPath
	if target == "" {
		target = "/signin"
	}
	response.Redirect(c, target+"?from="+url.QueryEscape(c.Request.URL.RequestURI()))
	c.Abort()
}

// Forbidden redirects to the forbidden view.
func (r RedirectResponder) Forbidden(c *gin.Context) {
	target := r.ForbiddenPath
	if target == "" {
		target = "/forbidden"
	}
	response.Redirect(c, target)
	c.Abort()
}

// Blank renders nothing while permissions are unresolved.
func (RedirectResponder) Blank(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatus(http.StatusNoContent)
}

// JSONResponder answers API requests with the error envelope.
type JSONResponder struct{}

// SignIn responds 401.
func (JSONResponder) SignIn(c *gin.Context) {
	response.Error(c, appErrors.ErrUnauthenticated)
	c.Abort()
}

// Forbidden responds 403.
func (JSONResponder) Forbidden(c *gin.Context) {
	response.Error(c, appErrors.ErrForbidden)
	c.Abort()
}

// Blank responds 202 so clients retry once permissions resolve.
func (JSONResponder) Blank(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(http.StatusAccepted, gin.H{"status": "pending"})
}

// Guards builds authentication and permission gates over one resolver.
type Guards struct {
	resolve SessionResolver
	metrics *service.MetricsService
	logger  *zap.Logger
}

// NewGuards constructs Guards. A nil resolver reads the session attached by
// BrowsingContext.
func NewGuards(resolve SessionResolver, metrics *service.MetricsService, logger *zap.Logger) *Guards {
	if resolve == nil {
		resolve = FromContext
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guards{resolve: resolve, metrics: metrics, logger: logger}
}

// RequireAuth lets a request through once the user has signed in, whether or
// not permissions have resolved.
func (g *Guards) RequireAuth(responder Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := g.current(c)
		if !ok || !snap.State.HasIdentity() {
			g.refuse(c, "auth", DecisionSignIn, responder.SignIn)
			return
		}
		g.metrics.RecordGuardDecision("auth", DecisionAllow)
		c.Next()
	}
}

// RequirePermissions lets a request through when the user holds any of codes.
// Without codes it only needs permissions to have resolved, for views that
// render permission-filtered content. Unresolved permissions never grant nor
// deny: the responder renders a blank frame instead.
func (g *Guards) RequirePermissions(responder Responder, codes ...string) gin.HandlerFunc {
	required := append([]string(nil), codes...)
	return func(c *gin.Context) {
		snap, ok := g.current(c)
		switch {
		case !ok || !snap.State.HasIdentity():
			g.refuse(c, "permission", DecisionSignIn, responder.SignIn)
			return
		case snap.State == models.StatePermissionsPending:
			g.refuse(c, "permission", DecisionBlank, responder.Blank)
			return
		case len(required) == 0:
		case !permission.HasAny(snap.Permissions, required):
			g.logger.Debug("permission denied",
				zap.String("path", c.Request.URL.Path),
				zap.Strings("required", required),
			)
			g.refuse(c, "permission", DecisionForbidden, responder.Forbidden)
			return
		}
		g.metrics.RecordGuardDecision("permission", DecisionAllow)
		c.Next()
	}
}

func (g *Guards) current(c *gin.Context) (service.SessionSnapshot, bool) {
	session := g.resolve(c)
	if session == nil {
		return service.SessionSnapshot{}, false
	}
	if err := session.EnsureFresh(c.Request.Context()); err != nil && !appErrors.IsSessionLoss(err) {
		g.logger.Warn("token refresh failed, continuing with current token", zap.Error(err))
	}
	return session.Snapshot(), true
}

func (g *Guards) refuse(c *gin.Context, guard, decision string, respond func(*gin.Context)) {
	g.metrics.RecordGuardDecision(guard, decision)
	respond(c)
}
