package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ag-office-console/internal/menu"
	"github.com/noah-isme/ag-office-console/internal/middleware"
	"github.com/noah-isme/ag-office-console/internal/service"
	appErrors "github.com/noah-isme/ag-office-console/pkg/errors"
	"github.com/noah-isme/ag-office-console/pkg/response"
)

// ConsoleHandler serves the dashboard, the gated views and the session API.
type ConsoleHandler struct {
	sections []menu.Section
}

// NewConsoleHandler creates a handler over the navigation tree.
func NewConsoleHandler(sections []menu.Section) *ConsoleHandler {
	return &ConsoleHandler{sections: sections}
}

func (h *ConsoleHandler) session(c *gin.Context) (*service.SessionManager, bool) {
	manager := middleware.SessionManagerFrom(c)
	if manager == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return nil, false
	}
	return manager, true
}

func (h *ConsoleHandler) page(snap service.SessionSnapshot, title string) page {
	return page{
		Title:    title,
		Locale:   snap.Locale,
		Menu:     menu.Filter(h.sections, snap.Permissions),
		Identity: snap.Identity,
	}
}

// Dashboard renders the landing page with the navigation the user may see.
func (h *ConsoleHandler) Dashboard(c *gin.Context) {
	manager, ok := h.session(c)
	if !ok {
		return
	}
	response.HTML(c, http.StatusOK, "dashboard.tmpl", h.page(manager.Snapshot(), "Dashboard"))
}

// View renders the placeholder page of a navigation route.
func (h *ConsoleHandler) View(route menu.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		manager, ok := h.session(c)
		if !ok {
			return
		}
		response.HTML(c, http.StatusOK, "view.tmpl", h.page(manager.Snapshot(), route.Name))
	}
}

// Session godoc
// @Summary Current session
// @Description State, identity, permission codes and locale of the browsing context
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/session [get]
func (h *ConsoleHandler) Session(c *gin.Context) {
	manager, ok := h.session(c)
	if !ok {
		return
	}
	response.OK(c, manager.Snapshot())
}

// Menu godoc
// @Summary Navigation
// @Description Navigation sections filtered by the session's permissions
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/menu [get]
func (h *ConsoleHandler) Menu(c *gin.Context) {
	manager, ok := h.session(c)
	if !ok {
		return
	}
	response.OK(c, menu.Filter(h.sections, manager.Permissions()))
}

// ReloadPermissions godoc
// @Summary Reload permissions
// @Description Re-fetches the permission set from the upstream
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /api/permissions/reload [post]
func (h *ConsoleHandler) ReloadPermissions(c *gin.Context) {
	manager, ok := h.session(c)
	if !ok {
		return
	}
	perms, err := manager.ReloadPermissions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"permissions": perms})
}

// ReloadIdentity godoc
// @Summary Reload identity
// @Description Re-fetches the signed-in user's profile from the upstream
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /api/identity/reload [post]
func (h *ConsoleHandler) ReloadIdentity(c *gin.Context) {
	manager, ok := h.session(c)
	if !ok {
		return
	}
	identity, err := manager.ReloadIdentity(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, identity)
}
