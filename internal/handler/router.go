package handler

import (
	"html/template"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/ag-office-console/internal/menu"
	"github.com/noah-isme/ag-office-console/internal/middleware"
	"github.com/noah-isme/ag-office-console/internal/service"
	"github.com/noah-isme/ag-office-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/ag-office-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ag-office-console/pkg/middleware/requestid"
)

// permissionMetrics guards the metrics snapshot API.
const permissionMetrics = "system_config:read"

// RouterDeps carries everything the console routes need.
type RouterDeps struct {
	Registry       *service.SessionRegistry
	Sections       []menu.Section
	Templates      *template.Template
	Metrics        *service.MetricsService
	Locale         *service.LocaleService
	Logger         *zap.Logger
	Cookie         middleware.CookieConfig
	AllowedOrigins []string
	ReadyChecks    map[string]ReadinessCheck
	EnableDocs     bool
}

// NewRouter builds the console's gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.SetHTMLTemplate(deps.Templates)
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger, func(c *gin.Context) []zap.Field {
		if id := middleware.ContextIDFrom(c); id != "" {
			return []zap.Field{zap.String("context_id", id)}
		}
		return nil
	}))
	r.Use(corsmiddleware.New(deps.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	metricsHandler := NewMetricsHandler(deps.Metrics, deps.ReadyChecks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if deps.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	guards := middleware.NewGuards(nil, deps.Metrics, deps.Logger)
	pages := middleware.RedirectResponder{SignInPath: signInPath, ForbiddenPath: forbiddenPath}
	api := middleware.JSONResponder{}

	authHandler := NewAuthHandler(deps.Registry, deps.Locale, deps.Logger)
	consoleHandler := NewConsoleHandler(deps.Sections)
	sessionHandler := NewSessionHandler(deps.Registry)

	site := r.Group("/", middleware.BrowsingContext(deps.Registry, deps.Cookie, deps.Logger))
	site.GET(signInPath, authHandler.SignInForm)
	site.POST(signInPath, authHandler.SignIn)
	site.POST("/signout", authHandler.SignOut)
	site.GET(forbiddenPath, authHandler.Forbidden)

	site.GET("/", guards.RequirePermissions(pages), consoleHandler.Dashboard)
	for _, route := range menu.Routes(deps.Sections) {
		if route.Path == "/" {
			continue
		}
		site.GET(route.Path, guards.RequirePermissions(pages, route.Permissions...), consoleHandler.View(route))
	}

	apiGroup := site.Group("/api", guards.RequireAuth(api))
	apiGroup.GET("/session", consoleHandler.Session)
	apiGroup.GET("/menu", guards.RequirePermissions(api), consoleHandler.Menu)
	apiGroup.POST("/permissions/reload", consoleHandler.ReloadPermissions)
	apiGroup.POST("/identity/reload", consoleHandler.ReloadIdentity)
	apiGroup.GET("/sessions", sessionHandler.List)
	apiGroup.DELETE("/sessions/:id", sessionHandler.Revoke)
	apiGroup.POST("/logout-all", sessionHandler.LogoutAll)
	apiGroup.GET("/metrics", guards.RequirePermissions(api, permissionMetrics), metricsHandler.Snapshot)

	return r
}
