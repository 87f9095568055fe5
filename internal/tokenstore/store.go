// Package tokenstore persists session token material across a durable tier
// and a transient tier. The remember-me flag chosen at sign-in decides which
// tier holds the access token; refresh tokens only ever live in the durable
// tier.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ag-office-console/internal/models"
)

// Storage keys shared by both tiers.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyRememberMe   = "remember_me"
	KeyTokenExpiry  = "token_expiry"
)

// DefaultExpiryBuffer keeps a request from starting with a token that would
// expire while in flight.
const DefaultExpiryBuffer = 60 * time.Second

var allKeys = []string{KeyAccessToken, KeyRefreshToken, KeyRememberMe, KeyTokenExpiry}

// Store reads and writes the session's token material.
type Store struct {
	durable   Tier
	transient Tier
	logger    *zap.Logger
	now       func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for swallowed storage failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Store over the given tiers.
func New(durable, transient Tier, opts ...Option) *Store {
	s := &Store{
		durable:   durable,
		transient: transient,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists freshly issued tokens. The access token and its derived expiry
// go to the durable tier under remember-me and to the transient tier
// otherwise; the opposite tier is purged of stale copies. A refresh token is
// written only when present and only to the durable tier.
func (s *Store) Save(ctx context.Context, tokens *models.Tokens, rememberMe bool) error {
	if tokens == nil || tokens.AccessToken == "" {
		return errors.New("tokenstore: no access token to store")
	}

	primary, other := s.transient, s.durable
	if rememberMe {
		primary, other = s.durable, s.transient
	}

	expiresAt := s.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)

	var errs []error
	errs = append(errs,
		primary.Set(ctx, KeyAccessToken, tokens.AccessToken),
		primary.Set(ctx, KeyTokenExpiry, strconv.FormatInt(expiresAt.UnixMilli(), 10)),
		other.Delete(ctx, KeyAccessToken, KeyTokenExpiry),
		s.durable.Set(ctx, KeyRememberMe, strconv.FormatBool(rememberMe)),
	)
	if tokens.HasRefreshToken() {
		errs = append(errs, s.durable.Set(ctx, KeyRefreshToken, tokens.RefreshToken))
	} else if !rememberMe {
		errs = append(errs, s.durable.Delete(ctx, KeyRefreshToken))
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("token store write failed", zap.Error(err))
		return fmt.Errorf("store tokens: %w", err)
	}
	return nil
}

// AccessToken returns the current access token, reading the transient tier
// first. It returns "" when neither tier holds one.
func (s *Store) AccessToken(ctx context.Context) string {
	if v := s.read(ctx, s.transient, KeyAccessToken); v != "" {
		return v
	}
	return s.read(ctx, s.durable, KeyAccessToken)
}

// RefreshToken returns the refresh token from the durable tier, or "".
func (s *Store) RefreshToken(ctx context.Context) string {
	return s.read(ctx, s.durable, KeyRefreshToken)
}

// RememberMe reports the flag recorded at the last Save.
func (s *Store) RememberMe(ctx context.Context) bool {
	v, err := strconv.ParseBool(s.read(ctx, s.durable, KeyRememberMe))
	return err == nil && v
}

// ExpiresAt returns the recorded access token expiry. ok is false when none is
// recorded or the marker is unreadable.
func (s *Store) ExpiresAt(ctx context.Context) (time.Time, bool) {
	raw := s.read(ctx, s.transient, KeyTokenExpiry)
	if raw == "" {
		raw = s.read(ctx, s.durable, KeyTokenExpiry)
	}
	if raw == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn("unreadable token expiry", zap.String("value", raw))
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// IsExpired reports whether the access token is missing an expiry or is
// within buffer of it.
func (s *Store) IsExpired(ctx context.Context, buffer time.Duration) bool {
	expiresAt, ok := s.ExpiresAt(ctx)
	if !ok {
		return true
	}
	return !s.now().Before(expiresAt.Add(-buffer))
}

// HasValidSession reports whether the stored material can back a session: an
// access token is present and is either fresh or renewable with a refresh
// token held under remember-me.
func (s *Store) HasValidSession(ctx context.Context) bool {
	if s.AccessToken(ctx) == "" {
		return false
	}
	if s.RememberMe(ctx) && s.RefreshToken(ctx) != "" {
		return true
	}
	return !s.IsExpired(ctx, DefaultExpiryBuffer)
}

// Clear erases all token material and markers from both tiers. It is
// idempotent and never fails; storage errors are logged.
func (s *Store) Clear(ctx context.Context) {
	for name, tier := range map[string]Tier{"transient": s.transient, "durable": s.durable} {
		if err := tier.Delete(ctx, allKeys...); err != nil {
			s.logger.Warn("token store clear failed", zap.String("tier", name), zap.Error(err))
		}
	}
}

func (s *Store) read(ctx context.Context, tier Tier, key string) string {
	v, ok, err := tier.Get(ctx, key)
	if err != nil {
		s.logger.Warn("token store read failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return v
}
