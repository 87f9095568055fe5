package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/ag-office-console/internal/middleware"
	"github.com/noah-isme/ag-office-console/internal/models"
	"github.com/noah-isme/ag-office-console/internal/service"
	appErrors "github.com/noah-isme/ag-office-console/pkg/errors"
	"github.com/noah-isme/ag-office-console/pkg/response"
)

const (
	signInPath    = "/signin"
	forbiddenPath = "/forbidden"
)

// AuthHandler serves the sign-in and sign-out pages.
type AuthHandler struct {
	registry *service.SessionRegistry
	locale   *service.LocaleService
	logger   *zap.Logger
}

// NewAuthHandler creates a new handler. Signed-out browsing contexts are
// dropped from registry.
func NewAuthHandler(registry *service.SessionRegistry, locale *service.LocaleService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locale == nil {
		locale = service.NewLocaleService(nil)
	}
	return &AuthHandler{registry: registry, locale: locale, logger: logger}
}

// SignInForm godoc
// @Summary Sign-in form
// @Tags Authentication
// @Produce html
// @Param from query string false "Location to return to after signing in"
// @Success 200 {string} string "HTML"
// @Success 303 {string} string "Already signed in"
// @Router /signin [get]
func (h *AuthHandler) SignInForm(c *gin.Context) {
	manager := middleware.SessionManagerFrom(c)
	from := c.Query("from")
	if manager != nil && manager.IsAuthenticated() {
		response.Redirect(c, safeRedirect(from))
		return
	}
	response.HTML(c, http.StatusOK, "signin.tmpl", page{Title: "Sign in", Locale: h.locale.Default(), From: from})
}

// SignIn godoc
// @Summary Sign in
// @Description Exchanges credentials with the upstream, then loads identity, permissions and settings
// @Tags Authentication
// @Accept x-www-form-urlencoded
// @Produce html
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Param remember_me formData boolean false "Keep the session across browser restarts"
// @Param from formData string false "Location to return to"
// @Success 303 {string} string "Signed in"
// @Failure 401 {string} string "HTML form with a generic error"
// @Router /signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	manager := middleware.SessionManagerFrom(c)
	if manager == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	var in models.LoginInput
	if err := c.ShouldBind(&in); err != nil {
		in = models.LoginInput{Email: c.PostForm("email")}
	}
	from := c.PostForm("from")

	snap, err := manager.Login(c.Request.Context(), in)
	if err != nil {
		status := http.StatusUnauthorized
		message := appErrors.ErrInvalidCredentials.Message
		switch {
		case errors.Is(err, appErrors.ErrLoginInProgress):
			status, message = http.StatusConflict, appErrors.ErrLoginInProgress.Message
		case errors.Is(err, appErrors.ErrValidation):
			status = http.StatusBadRequest
		}
		h.logger.Info("sign-in failed",
			zap.String("context_id", middleware.ContextIDFrom(c)),
			zap.String("code", appErrors.FromError(err).Code),
		)
		locale := snap.Locale
		if locale == "" {
			locale = h.locale.Default()
		}
		response.HTML(c, status, "signin.tmpl", page{
			Title:      "Sign in",
			Locale:     locale,
			Error:      message,
			From:       from,
			Email:      in.Email,
			RememberMe: in.RememberMe,
		})
		return
	}

	response.Redirect(c, safeRedirect(from))
}

// SignOut godoc
// @Summary Sign out
// @Description Ends the session locally even when the upstream cannot be reached
// @Tags Authentication
// @Success 303 {string} string "Signed out"
// @Router /signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	if manager := middleware.SessionManagerFrom(c); manager != nil {
		manager.Logout(c.Request.Context())
	}
	if h.registry != nil {
		h.registry.Forget(middleware.ContextIDFrom(c))
	}
	response.Redirect(c, signInPath)
}

// Forbidden renders the access denied view.
func (h *AuthHandler) Forbidden(c *gin.Context) {
	locale := h.locale.Default()
	if manager := middleware.SessionManagerFrom(c); manager != nil {
		locale = manager.Snapshot().Locale
	}
	response.HTML(c, http.StatusForbidden, "forbidden.tmpl", page{Title: "Access denied", Locale: locale})
}
