package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ag-office-console/internal/apiclient"
	"github.com/noah-isme/ag-office-console/internal/dto"
	"github.com/noah-isme/ag-office-console/internal/models"
	"github.com/noah-isme/ag-office-console/internal/permission"
	"github.com/noah-isme/ag-office-console/internal/tokenstore"
	appErrors "github.com/noah-isme/ag-office-console/pkg/errors"
)

type sessionAPI interface {
	Login(ctx context.Context, email, password string, rememberMe bool) (*models.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Tokens, error)
	CurrentUser(ctx context.Context) (*models.Identity, error)
	Permissions(ctx context.Context) (permission.Set, error)
	Configuration(ctx context.Context) (*models.AppConfiguration, error)
	Sessions(ctx context.Context, refreshToken string) (*models.SessionList, error)
	RevokeSession(ctx context.Context, id string) error
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, currentPassword string) (*models.LogoutAllResult, error)
	OnUnauthorized(fn apiclient.UnauthorizedFunc)
}

type tokenStore interface {
	Save(ctx context.Context, tokens *models.Tokens, rememberMe bool) error
	AccessToken(ctx context.Context) string
	RefreshToken(ctx context.Context) string
	RememberMe(ctx context.Context) bool
	IsExpired(ctx context.Context, buffer time.Duration) bool
	HasValidSession(ctx context.Context) bool
	Clear(ctx context.Context)
}

// SessionManagerConfig tunes a SessionManager.
type SessionManagerConfig struct {
	// ExpiryBuffer is how close to expiry an access token is renewed.
	ExpiryBuffer time.Duration
	// LoadConfiguration enables the configuration fetch at the end of sign-in.
	LoadConfiguration bool
}

// SessionSnapshot is a consistent, read-only copy of a session's state.
type SessionSnapshot struct {
	State       models.SessionState `json:"state"`
	Identity    *models.Identity    `json:"identity,omitempty"`
	Permissions permission.Set      `json:"permissions"`
	Locale      string              `json:"locale"`
	RememberMe  bool                `json:"remember_me"`
}

// IsAuthenticated reports whether the session is fully signed in.
func (s SessionSnapshot) IsAuthenticated() bool {
	return s.State == models.StateAuthenticated
}

// SessionManager owns the session, identity and permission set of one
// browsing context. It is the only component that mutates them; everything
// else reads snapshots.
type SessionManager struct {
	api       sessionAPI
	store     tokenStore
	locale    *LocaleService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    SessionManagerConfig

	mu          sync.RWMutex
	generation  uint64
	inFlight    bool
	state       models.SessionState
	identity    *models.Identity
	permissions permission.Set
	localeTag   string
	rememberMe  bool

	refreshMu sync.Mutex
}

// NewSessionManager constructs a manager and subscribes it to the client's
// authentication-rejected event.
func NewSessionManager(api sessionAPI, store tokenStore, locale *LocaleService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config SessionManagerConfig) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if locale == nil {
		locale = NewLocaleService(nil)
	}
	if config.ExpiryBuffer <= 0 {
		config.ExpiryBuffer = tokenstore.DefaultExpiryBuffer
	}
	m := &SessionManager{
		api:       api,
		store:     store,
		locale:    locale,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		state:     models.StateUnauthenticated,
		localeTag: locale.Default(),
	}
	api.OnUnauthorized(m.HandleUnauthorized)
	return m
}

// Snapshot returns the current state.
func (m *SessionManager) Snapshot() SessionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := SessionSnapshot{
		State:       m.state,
		Permissions: m.permissions.Clone(),
		Locale:      m.localeTag,
		RememberMe:  m.rememberMe,
	}
	if m.identity != nil {
		identity := *m.identity
		snap.Identity = &identity
	}
	return snap
}

// State returns the current lifecycle state.
func (m *SessionManager) State() models.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAuthenticated reports whether the session is fully signed in.
func (m *SessionManager) IsAuthenticated() bool {
	return m.State() == models.StateAuthenticated
}

// Permissions returns a copy of the resolved permission set.
func (m *SessionManager) Permissions() permission.Set {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.permissions.Clone()
}

// Login runs the full sign-in sequence: token exchange, token storage,
// identity fetch, permission fetch and, when enabled, configuration fetch.
// A failed exchange or identity fetch rolls everything back. Every failure
// carries the same user-facing message.
func (m *SessionManager) Login(ctx context.Context, in models.LoginInput) (SessionSnapshot, error) {
	if err := m.validator.Struct(in); err != nil {
		return m.Snapshot(), appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "email and password are required")
	}

	gen, err := m.begin()
	if err != nil {
		return m.Snapshot(), err
	}
	defer m.finish()

	m.store.Clear(ctx)
	tokens, err := m.api.Login(ctx, in.Email, in.Password, in.RememberMe)
	if err != nil {
		m.abort(ctx, gen)
		if errors.Is(err, appErrors.ErrInvalidCredentials) {
			m.metrics.RecordLogin(LoginOutcomeInvalidCredentials)
			m.logger.Info("sign-in rejected", zap.Error(err))
		} else {
			m.metrics.RecordLogin(LoginOutcomeError)
			m.logger.Warn("sign-in failed", zap.Error(err))
		}
		return m.Snapshot(), loginFailure(err)
	}

	if err := m.store.Save(ctx, tokens, in.RememberMe); err != nil {
		m.abort(ctx, gen)
		m.metrics.RecordLogin(LoginOutcomeError)
		return m.Snapshot(), loginFailure(err)
	}

	if err := m.hydrate(ctx, gen, in.RememberMe); err != nil {
		return m.Snapshot(), loginFailure(err)
	}

	m.metrics.RecordLogin(LoginOutcomeSuccess)
	snap := m.Snapshot()
	m.logger.Info("signed in",
		zap.String("user_id", snap.Identity.ID),
		zap.Bool("remember_me", in.RememberMe),
		zap.Int("permissions", snap.Permissions.Len()),
	)
	return snap, nil
}

// Restore rehydrates the session from token material left by an earlier
// sign-in, such as a remember-me session surviving a restart. It is a no-op
// when the session is already established or nothing usable is stored.
func (m *SessionManager) Restore(ctx context.Context) error {
	if m.State().HasIdentity() {
		return nil
	}
	if !m.store.HasValidSession(ctx) {
		if m.store.AccessToken(ctx) != "" {
			m.store.Clear(ctx)
		}
		return nil
	}

	gen, err := m.begin()
	if err != nil {
		return err
	}
	defer m.finish()

	rememberMe := m.store.RememberMe(ctx)
	if m.store.IsExpired(ctx, m.config.ExpiryBuffer) {
		if err := m.refresh(ctx); err != nil {
			m.abort(ctx, gen)
			return err
		}
	}
	if err := m.hydrate(ctx, gen, rememberMe); err != nil {
		return err
	}
	m.logger.Info("session restored", zap.Bool("remember_me", rememberMe))
	return nil
}

// hydrate fetches identity, permissions and configuration for freshly stored
// tokens and commits the result. An identity failure rolls back.
func (m *SessionManager) hydrate(ctx context.Context, gen uint64, rememberMe bool) error {
	identity, err := m.api.CurrentUser(ctx)
	if err != nil {
		m.abort(ctx, gen)
		m.metrics.RecordLogin(LoginOutcomeIdentityFailed)
		m.logger.Warn("identity fetch failed, discarding tokens", zap.Error(err))
		return err
	}
	if !m.commit(gen, func() {
		m.identity = identity
		m.rememberMe = rememberMe
		m.state = models.StatePermissionsPending
	}) {
		return appErrors.Clone(appErrors.ErrUnauthenticated, "session ended during sign-in")
	}

	perms, err := m.api.Permissions(ctx)
	if err != nil {
		if appErrors.IsSessionLoss(err) {
			m.abort(ctx, gen)
			return err
		}
		m.logger.Warn("permission fetch failed, continuing with no permissions", zap.Error(err))
		perms = permission.NewSet()
	}

	localeTag := m.locale.Default()
	if m.config.LoadConfiguration {
		cfg, err := m.api.Configuration(ctx)
		switch {
		case err == nil:
			localeTag = m.locale.Match(cfg.Language)
		case appErrors.IsSessionLoss(err):
			m.abort(ctx, gen)
			return err
		default:
			m.logger.Warn("configuration fetch failed, keeping default locale", zap.Error(err))
		}
	}

	if !m.commit(gen, func() {
		m.permissions = perms
		m.localeTag = localeTag
		m.state = models.StateAuthenticated
	}) {
		return appErrors.Clone(appErrors.ErrUnauthenticated, "session ended during sign-in")
	}
	return nil
}

// Logout ends the session locally whatever the upstream answers.
func (m *SessionManager) Logout(ctx context.Context) {
	if m.store.AccessToken(ctx) != "" {
		if err := m.api.Logout(ctx, m.store.RefreshToken(ctx)); err != nil {
			m.logger.Warn("upstream logout failed, clearing locally", zap.Error(err))
		}
	}
	m.reset(ctx)
	m.logger.Info("signed out")
}

// LogoutAll revokes every session of the account after the upstream confirms
// the current password, then ends the local session. A rejected password
// leaves the session untouched.
func (m *SessionManager) LogoutAll(ctx context.Context, in models.LogoutAllInput) (*models.LogoutAllResult, error) {
	if err := m.validator.Struct(in); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "current password is required")
	}
	result, err := m.api.LogoutAll(ctx, in.CurrentPassword)
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidCredentials) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "incorrect password")
		}
		return nil, err
	}
	m.reset(ctx)
	m.logger.Info("signed out everywhere", zap.Int("revoked_sessions", result.RevokedSessions))
	return result, nil
}

// HandleUnauthorized ends the session after the upstream rejected its
// credentials. The API client calls it on every 401.
func (m *SessionManager) HandleUnauthorized(ctx context.Context) {
	m.metrics.RecordRejection()
	m.reset(ctx)
	m.logger.Info("session rejected by upstream, signed out")
}

// EnsureFresh renews the access token when it is within the expiry buffer.
// A session that cannot be renewed is ended and ErrSessionExpired returned.
func (m *SessionManager) EnsureFresh(ctx context.Context) error {
	if !m.State().HasIdentity() {
		return nil
	}
	if !m.store.IsExpired(ctx, m.config.ExpiryBuffer) {
		return nil
	}
	if err := m.refresh(ctx); err != nil {
		if appErrors.IsSessionLoss(err) {
			m.reset(ctx)
		}
		return err
	}
	return nil
}

func (m *SessionManager) refresh(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	// Another request may have renewed the token while this one waited.
	if !m.store.IsExpired(ctx, m.config.ExpiryBuffer) {
		return nil
	}
	refreshToken := m.store.RefreshToken(ctx)
	if refreshToken == "" {
		m.metrics.RecordRefresh("unavailable")
		return appErrors.Clone(appErrors.ErrSessionExpired, "")
	}
	tokens, err := m.api.Refresh(ctx, refreshToken)
	if err != nil {
		m.metrics.RecordRefresh("failed")
		m.logger.Warn("token refresh failed", zap.Error(err))
		return err
	}
	if err := m.store.Save(ctx, tokens, m.store.RememberMe(ctx)); err != nil {
		m.metrics.RecordRefresh("failed")
		return appErrors.WrapAs(appErrors.ErrSessionExpired, err)
	}
	m.metrics.RecordRefresh("success")
	return nil
}

// ReloadPermissions replaces the permission set with a fresh copy from the
// upstream. On failure the current set is kept.
func (m *SessionManager) ReloadPermissions(ctx context.Context) (permission.Set, error) {
	m.mu.RLock()
	gen, ok := m.generation, m.state.HasIdentity()
	m.mu.RUnlock()
	if !ok {
		return nil, appErrors.ErrUnauthenticated
	}
	perms, err := m.api.Permissions(ctx)
	if err != nil {
		return nil, err
	}
	if !m.commit(gen, func() {
		m.permissions = perms
		m.state = models.StateAuthenticated
	}) {
		return nil, appErrors.ErrUnauthenticated
	}
	return perms.Clone(), nil
}

// ReloadIdentity re-fetches the signed-in identity.
func (m *SessionManager) ReloadIdentity(ctx context.Context) (*models.Identity, error) {
	m.mu.RLock()
	gen, ok := m.generation, m.state.HasIdentity()
	m.mu.RUnlock()
	if !ok {
		return nil, appErrors.ErrUnauthenticated
	}
	identity, err := m.api.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !m.commit(gen, func() { m.identity = identity }) {
		return nil, appErrors.ErrUnauthenticated
	}
	out := *identity
	return &out, nil
}

// Sessions lists the account's sessions shaped for display.
func (m *SessionManager) Sessions(ctx context.Context) (dto.SessionListResponse, error) {
	list, err := m.api.Sessions(ctx, m.store.RefreshToken(ctx))
	if err != nil {
		return dto.SessionListResponse{}, err
	}
	return dto.SessionListResponse{Sessions: dto.ShapeSessions(list.Sessions), Total: list.Total}, nil
}

// RevokeSession revokes another device's session. The current session is
// refused: it ends through Logout.
func (m *SessionManager) RevokeSession(ctx context.Context, id string) error {
	list, err := m.api.Sessions(ctx, m.store.RefreshToken(ctx))
	if err != nil {
		return err
	}
	for _, s := range list.Sessions {
		if s.ID == id && s.IsCurrent {
			return appErrors.ErrCurrentSession
		}
	}
	return m.api.RevokeSession(ctx, id)
}

func (m *SessionManager) begin() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return 0, appErrors.ErrLoginInProgress
	}
	m.inFlight = true
	m.generation++
	m.state = models.StateAuthenticating
	m.identity = nil
	m.permissions = nil
	return m.generation, nil
}

func (m *SessionManager) finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false
	if m.state == models.StateAuthenticating {
		m.state = models.StateUnauthenticated
	}
}

// commit applies fn under the write lock unless the session was reset since
// gen was taken.
func (m *SessionManager) commit(gen uint64, fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		return false
	}
	fn()
	return true
}

// abort rolls back an in-progress sign-in started at gen.
func (m *SessionManager) abort(ctx context.Context, gen uint64) {
	m.mu.Lock()
	stale := m.generation != gen
	m.mu.Unlock()
	if stale {
		return
	}
	m.reset(ctx)
}

func (m *SessionManager) reset(ctx context.Context) {
	m.store.Clear(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.state = models.StateUnauthenticated
	m.identity = nil
	m.permissions = nil
	m.localeTag = m.locale.Default()
	m.rememberMe = false
}

// loginFailure hides which step failed behind one user-facing message while
// keeping the cause for logs and the error code for callers.
func loginFailure(err error) error {
	appErr := appErrors.FromError(err)
	code, status := appErr.Code, appErr.Status
	if errors.Is(err, appErrors.ErrUnauthenticated) {
		code, status = appErrors.ErrInvalidCredentials.Code, appErrors.ErrInvalidCredentials.Status
	}
	return appErrors.Wrap(err, code, status, appErrors.ErrInvalidCredentials.Message)
}
