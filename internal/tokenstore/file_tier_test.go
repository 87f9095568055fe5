package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTierRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	tier := NewFileTier(path)

	_, ok, err := tier.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tier.Set(ctx, KeyRefreshToken, "R"))
	require.NoError(t, tier.Set(ctx, KeyRememberMe, "true"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened := NewFileTier(path)
	v, ok, err := reopened.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "R", v)
}

func TestFileTierRemovesEmptyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	tier := NewFileTier(path)
	require.NoError(t, tier.Set(ctx, KeyAccessToken, "A"))

	require.NoError(t, tier.Delete(ctx, allKeys...))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, tier.Delete(ctx, allKeys...))
}

func TestFileTierCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := NewFileTier(path).Get(context.Background(), KeyAccessToken)
	assert.Error(t, err)
}
