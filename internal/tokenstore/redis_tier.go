package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient is the subset of *redis.Client used by RedisTier.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisTier is the console's durable tier. Keys are namespaced by a prefix and
// the browsing context id, and expire after ttl so abandoned remember-me
// sessions do not accumulate.
type RedisTier struct {
	client    redisClient
	namespace string
	ttl       time.Duration
}

// NewRedisTier returns a tier storing keys under "<prefix>:<contextID>:".
func NewRedisTier(client redisClient, prefix, contextID string, ttl time.Duration) *RedisTier {
	return &RedisTier{
		client:    client,
		namespace: fmt.Sprintf("%s:%s:", prefix, contextID),
		ttl:       ttl,
	}
}

func (t *RedisTier) key(k string) string {
	return t.namespace + k
}

// Get implements Tier.
func (t *RedisTier) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := t.client.Get(ctx, t.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set implements Tier.
func (t *RedisTier) Set(ctx context.Context, key, value string) error {
	if err := t.client.Set(ctx, t.key(key), value, t.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements Tier.
func (t *RedisTier) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = t.key(k)
	}
	if err := t.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
