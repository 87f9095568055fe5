package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ag-office-console/internal/middleware"
	"github.com/noah-isme/ag-office-console/internal/models"
	"github.com/noah-isme/ag-office-console/internal/service"
	appErrors "github.com/noah-isme/ag-office-console/pkg/errors"
	"github.com/noah-isme/ag-office-console/pkg/response"
)

// SessionHandler manages the account's sessions on other devices.
type SessionHandler struct {
	registry *service.SessionRegistry
}

// NewSessionHandler creates a new handler.
func NewSessionHandler(registry *service.SessionRegistry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

// List godoc
// @Summary List sessions
// @Description Sessions of the signed-in account, current session first; the current session is never revocable
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	manager := middleware.SessionManagerFrom(c)
	if manager == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	list, err := manager.Sessions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Revoke godoc
// @Summary Revoke session
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope "The current session, use sign out"
// @Router /api/sessions/{id} [delete]
func (h *SessionHandler) Revoke(c *gin.Context) {
	manager := middleware.SessionManagerFrom(c)
	if manager == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	if err := manager.RevokeSession(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// LogoutAll godoc
// @Summary Sign out everywhere
// @Description Revokes every session of the account after confirming the current password
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body models.LogoutAllInput true "Current password"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/logout-all [post]
func (h *SessionHandler) LogoutAll(c *gin.Context) {
	manager := middleware.SessionManagerFrom(c)
	if manager == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	var in models.LogoutAllInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid logout payload"))
		return
	}
	result, err := manager.LogoutAll(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.registry != nil {
		h.registry.Forget(middleware.ContextIDFrom(c))
	}
	response.OK(c, result)
}
