package tokenstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ag-office-console/internal/models"
)

type failingTier struct{ err error }

func (f failingTier) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingTier) Set(context.Context, string, string) error        { return f.err }
func (f failingTier) Delete(context.Context, ...string) error          { return f.err }

func newTestStore(now time.Time) (*Store, *MemoryTier, *MemoryTier) {
	durable, transient := NewMemoryTier(), NewMemoryTier()
	store := New(durable, transient, WithClock(func() time.Time { return now }))
	return store, durable, transient
}

func TestSaveWithoutRememberMeStaysTransient(t *testing.T) {
	ctx := context.Background()
	store, durable, transient := newTestStore(time.Now())

	require.NoError(t, store.Save(ctx, &models.Tokens{AccessToken: "A", ExpiresIn: 3600}, false))

	assert.Equal(t, "A", store.AccessToken(ctx))
	assert.Empty(t, store.RefreshToken(ctx))
	_, ok, _ := durable.Get(ctx, KeyAccessToken)
	assert.False(t, ok, "durable tier must not hold the access token")
	v, ok, _ := transient.Get(ctx, KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, "A", v)
	flag, _, _ := durable.Get(ctx, KeyRememberMe)
	assert.Equal(t, "false", flag)
	assert.False(t, store.RememberMe(ctx))
}

func TestSaveWithRememberMeIsDurable(t *testing.T) {
	ctx := context.Background()
	store, durable, transient := newTestStore(time.Now())

	tokens := &models.Tokens{AccessToken: "A", ExpiresIn: 3600, RefreshToken: "R", RefreshExpiresIn: 86400}
	require.NoError(t, store.Save(ctx, tokens, true))

	assert.Equal(t, "R", store.RefreshToken(ctx))
	assert.Equal(t, "A", store.AccessToken(ctx))
	v, ok, _ := durable.Get(ctx, KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, "A", v)
	_, ok, _ = durable.Get(ctx, KeyTokenExpiry)
	assert.True(t, ok)
	assert.Equal(t, 0, transient.Len())
	assert.True(t, store.RememberMe(ctx))
}

func TestRefreshTokenNeverTransient(t *testing.T) {
	ctx := context.Background()
	store, durable, transient := newTestStore(time.Now())

	require.NoError(t, store.Save(ctx, &models.Tokens{AccessToken: "A", ExpiresIn: 60, RefreshToken: "R"}, false))

	_, ok, _ := transient.Get(ctx, KeyRefreshToken)
	assert.False(t, ok)
	v, _, _ := durable.Get(ctx, KeyRefreshToken)
	assert.Equal(t, "R", v)
}

func TestSaveSwitchingTierPurgesStaleCopy(t *testing.T) {
	ctx := context.Background()
	store, durable, _ := newTestStore(time.Now())

	require.NoError(t, store.Save(ctx, &models.Tokens{AccessToken: "old", ExpiresIn: 60, RefreshToken: "R"}, true))
	require.NoError(t, store.Save(ctx, &models.Tokens{AccessToken: "new", ExpiresIn: 60}, false))

	_, ok, _ := durable.Get(ctx, KeyAccessToken)
	assert.False(t, ok)
	assert.Empty(t, store.RefreshToken(ctx))
	assert.Equal(t, "new", store.AccessToken(ctx))
}

func TestAccessTokenPrefersTransientTier(t *testing.T) {
	ctx := context.Background()
	store, durable, transient := newTestStore(time.Now())
	require.NoError(t, durable.Set(ctx, KeyAccessToken, "durable"))
	assert.Equal(t, "durable", store.AccessToken(ctx))
	require.NoError(t, transient.Set(ctx, KeyAccessToken, "transient"))
	assert.Equal(t, "transient", store.AccessToken(ctx))
}

func TestIsExpiredHonoursBuffer(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store, _, _ := newTestStore(now)
	require.NoError(t, store.Save(ctx, &models.Tokens{AccessToken: "A", ExpiresIn: 30}, false))
	assert.True(t, store.IsExpired(ctx, 60*time.Second))

	store, _, _ = newTestStore(now)
	require.NoError(t, store.Save(ctx, &models.Tokens{AccessToken: "A", ExpiresIn: 120}, false))
	assert.False(t, store.IsExpired(ctx, 60*time.Second))

	expiresAt, ok := store.ExpiresAt(ctx)
	require.True(t, ok)
	assert.True(t, expiresAt.Equal(now.Add(120*time.Second)))
}

func TestIsExpiredWithoutExpiry(t *testing.T) {
	store, _, transient := newTestStore(time.Now())
	assert.True(t, store.IsExpired(context.Background(), 0))

	require.NoError(t, transient.Set(context.Background(), KeyTokenExpiry, "not-a-number"))
	assert.True(t, store.IsExpired(context.Background(), 0))
}

func TestHasValidSession(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	store, _, _ := newTestStore(now)
	assert.False(t, store.HasValidSession(ctx))

	require.NoError(t, store.Save(ctx, &models.Tokens{AccessToken: "A", ExpiresIn: 10}, false))
	assert.False(t, store.HasValidSession(ctx), "expired and not renewable")

	require.NoError(t, store.Save(ctx, &models.Tokens{AccessToken: "A", ExpiresIn: 10, RefreshToken: "R"}, true))
	assert.True(t, store.HasValidSession(ctx), "renewable under remember-me")

	require.NoError(t, store.Save(ctx, &models.Tokens{AccessToken: "A", ExpiresIn: 3600}, false))
	assert.True(t, store.HasValidSession(ctx))
}

func TestClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, durable, transient := newTestStore(time.Now())
	require.NoError(t, store.Save(ctx, &models.Tokens{AccessToken: "A", ExpiresIn: 60, RefreshToken: "R"}, true))

	store.Clear(ctx)
	store.Clear(ctx)

	assert.Empty(t, store.AccessToken(ctx))
	assert.Empty(t, store.RefreshToken(ctx))
	assert.Equal(t, 0, durable.Len())
	assert.Equal(t, 0, transient.Len())
}

func TestUnavailableStorageReadsAbsent(t *testing.T) {
	ctx := context.Background()
	broken := failingTier{err: errors.New("storage disabled")}
	store := New(broken, broken)

	err := store.Save(ctx, &models.Tokens{AccessToken: "A", ExpiresIn: 60}, true)
	assert.Error(t, err)
	assert.Empty(t, store.AccessToken(ctx))
	assert.True(t, store.IsExpired(ctx, 0))
	assert.False(t, store.HasValidSession(ctx))
	assert.NotPanics(t, func() { store.Clear(ctx) })
}

func TestSaveRejectsMissingAccessToken(t *testing.T) {
	store, _, _ := newTestStore(time.Now())
	assert.Error(t, store.Save(context.Background(), &models.Tokens{}, false))
	assert.Error(t, store.Save(context.Background(), nil, false))
}
