package tokenstore

import (
	"context"
	"sync"
)

// Tier is one storage backing for token material. Get reports ok=false when
// the key holds nothing.
type Tier interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryTier keeps values in process memory. The console uses one per
// browsing context as the transient tier: it disappears with the context.
type MemoryTier struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryTier returns an empty in-memory tier.
func NewMemoryTier() *MemoryTier {
	return &MemoryTier{values: make(map[string]string)}
}

// Get implements Tier.
func (t *MemoryTier) Get(_ context.Context, key string) (string, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[key]
	return v, ok, nil
}

// Set implements Tier.
func (t *MemoryTier) Set(_ context.Context, key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[key] = value
	return nil
}

// Delete implements Tier.
func (t *MemoryTier) Delete(_ context.Context, keys ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, key := range keys {
		delete(t.values, key)
	}
	return nil
}

// Len returns how many keys the tier holds.
func (t *MemoryTier) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}
