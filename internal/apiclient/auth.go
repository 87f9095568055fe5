package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/noah-isme/ag-office-console/internal/models"
	"github.com/noah-isme/ag-office-console/internal/permission"
	appErrors "github.com/noah-isme/ag-office-console/pkg/errors"
)

// Upstream endpoints.
const (
	PathLogin         = "/auth/login"
	PathRefresh       = "/auth/refresh"
	PathLogout        = "/auth/logout"
	PathLogoutAll     = "/auth/logout-all"
	PathSessions      = "/auth/sessions"
	PathPermissions   = "/auth/me/permissions"
	PathCurrentUser   = "/users/me"
	PathConfiguration = "/configuration/me"

	// HeaderRefreshToken lets the upstream flag the caller's own session in
	// the session listing.
	HeaderRefreshToken = "X-Refresh-Token"
)

// Login exchanges credentials for tokens. A refresh token is only granted when
// rememberMe is requested. Any rejection surfaces as ErrInvalidCredentials
// without the upstream's reason.
func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool) (*models.Tokens, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var tokens models.Tokens
	err := c.do(ctx, apiRequest{
		method:   http.MethodPost,
		path:     PathLogin,
		query:    url.Values{"remember_me": []string{strconv.FormatBool(rememberMe)}},
		form:     form,
		respObj:  &tokens,
		rejected: appErrors.ErrInvalidCredentials,
	})
	if err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, appErrors.Clone(appErrors.ErrNetworkOrServer, "upstream issued no access token")
	}
	return &tokens, nil
}

// Refresh exchanges a refresh token for a new token pair. A rejected refresh
// token yields ErrSessionExpired.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*models.Tokens, error) {
	var tokens models.Tokens
	err := c.do(ctx, apiRequest{
		method:   http.MethodPost,
		path:     PathRefresh,
		body:     map[string]string{"refresh_token": refreshToken},
		respObj:  &tokens,
		rejected: appErrors.ErrSessionExpired,
	})
	if err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, appErrors.Clone(appErrors.ErrSessionExpired, "upstream issued no access token")
	}
	return &tokens, nil
}

// CurrentUser fetches the authenticated identity.
func (c *Client) CurrentUser(ctx context.Context) (*models.Identity, error) {
	var identity models.Identity
	if err := c.do(ctx, apiRequest{method: http.MethodGet, path: PathCurrentUser, respObj: &identity}); err != nil {
		return nil, err
	}
	return &identity, nil
}

// Permissions fetches the caller's permission codes.
func (c *Client) Permissions(ctx context.Context) (permission.Set, error) {
	var payload struct {
		Permissions []struct {
			Code string `json:"code"`
		} `json:"permissions"`
	}
	if err := c.do(ctx, apiRequest{method: http.MethodGet, path: PathPermissions, respObj: &payload}); err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(payload.Permissions))
	for _, p := range payload.Permissions {
		codes = append(codes, p.Code)
	}
	return permission.NewSet(codes...), nil
}

// Configuration fetches the caller's application configuration. An
// unparseable payload yields ErrMalformedSettings.
func (c *Client) Configuration(ctx context.Context) (*models.AppConfiguration, error) {
	var cfg models.AppConfiguration
	err := c.do(ctx, apiRequest{
		method:    http.MethodGet,
		path:      PathConfiguration,
		respObj:   &cfg,
		malformed: appErrors.ErrMalformedSettings,
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Sessions lists the account's active sessions. refreshToken, when known, is
// forwarded so the upstream can flag the current one.
func (c *Client) Sessions(ctx context.Context, refreshToken string) (*models.SessionList, error) {
	req := apiRequest{method: http.MethodGet, path: PathSessions}
	if refreshToken != "" {
		req.headers = map[string]string{HeaderRefreshToken: refreshToken}
	}
	var list models.SessionList
	req.respObj = &list
	if err := c.do(ctx, req); err != nil {
		return nil, err
	}
	return &list, nil
}

// RevokeSession revokes one session by id.
func (c *Client) RevokeSession(ctx context.Context, id string) error {
	return c.do(ctx, apiRequest{method: http.MethodDelete, path: PathSessions + "/" + url.PathEscape(id)})
}

// Logout revokes the given refresh token upstream.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	var body interface{}
	if refreshToken != "" {
		body = map[string]string{"refresh_token": refreshToken}
	}
	return c.do(ctx, apiRequest{method: http.MethodPost, path: PathLogout, body: body})
}

// LogoutAll revokes every session of the account after re-checking the
// current password. A wrong password yields ErrInvalidCredentials and leaves
// the session intact; a 401 still means the session itself was lost.
func (c *Client) LogoutAll(ctx context.Context, currentPassword string) (*models.LogoutAllResult, error) {
	var result models.LogoutAllResult
	err := c.do(ctx, apiRequest{
		method:        http.MethodPost,
		path:          PathLogoutAll,
		body:          map[string]string{"current_password": currentPassword},
		respObj:       &result,
		rejected:      appErrors.ErrInvalidCredentials,
		authenticated: true,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
