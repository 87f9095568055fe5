package tokenstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failure error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failure != nil {
		return redis.NewStringResult("", f.failure)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.failure != nil {
		return redis.NewStatusResult("", f.failure)
	}
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.failure != nil {
		return redis.NewIntResult(0, f.failure)
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisTierNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	tier := NewRedisTier(client, "agoffice:session", "ctx-1", time.Hour)

	require.NoError(t, tier.Set(ctx, KeyAccessToken, "A"))
	assert.Equal(t, "A", client.values["agoffice:session:ctx-1:access_token"])
	assert.Equal(t, time.Hour, client.ttls["agoffice:session:ctx-1:access_token"])

	v, ok, err := tier.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	other := NewRedisTier(client, "agoffice:session", "ctx-2", time.Hour)
	_, ok, err = other.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisTierDelete(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	tier := NewRedisTier(client, "p", "c", 0)
	require.NoError(t, tier.Set(ctx, KeyAccessToken, "A"))
	require.NoError(t, tier.Set(ctx, KeyRefreshToken, "R"))

	require.NoError(t, tier.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyRememberMe))
	assert.Empty(t, client.values)
	require.NoError(t, tier.Delete(ctx))
}

func TestRedisTierErrors(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	client.failure = errors.New("connection refused")
	tier := NewRedisTier(client, "p", "c", 0)

	_, _, err := tier.Get(ctx, KeyAccessToken)
	assert.Error(t, err)
	assert.Error(t, tier.Set(ctx, KeyAccessToken, "A"))
	assert.Error(t, tier.Delete(ctx, KeyAccessToken))
}
