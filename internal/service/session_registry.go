package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ag-office-console/internal/apiclient"
	"github.com/noah-isme/ag-office-console/internal/tokenstore"
)

// DurableTiers hands out the durable tier of each browsing context. Release is
// called once a context leaves the registry.
type DurableTiers interface {
	Tier(contextID string) tokenstore.Tier
	Release(contextID string)
}

// DurableTierFactory adapts a function to DurableTiers for backends that
// expire their own data, such as Redis.
type DurableTierFactory func(contextID string) tokenstore.Tier

// Tier implements DurableTiers.
func (f DurableTierFactory) Tier(contextID string) tokenstore.Tier { return f(contextID) }

// Release implements DurableTiers.
func (f DurableTierFactory) Release(string) {}

// SessionRegistryConfig configures a SessionRegistry.
type SessionRegistryConfig struct {
	API     apiclient.Config
	Manager SessionManagerConfig
	// IdleTTL is how long an unused browsing context is kept in memory.
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Logger        *zap.Logger
}

// MemoryDurableTiers keeps each context's durable tier in process memory so it
// survives sweeps but not restarts. Empty tiers are freed on release.
type MemoryDurableTiers struct {
	mu    sync.Mutex
	tiers map[string]*tokenstore.MemoryTier
}

// NewMemoryDurableTiers returns an empty set of in-memory durable tiers.
func NewMemoryDurableTiers() *MemoryDurableTiers {
	return &MemoryDurableTiers{tiers: make(map[string]*tokenstore.MemoryTier)}
}

// Tier implements DurableTiers.
func (m *MemoryDurableTiers) Tier(contextID string) tokenstore.Tier {
	m.mu.Lock()
	defer m.mu.Unlock()
	tier, ok := m.tiers[contextID]
	if !ok {
		tier = tokenstore.NewMemoryTier()
		m.tiers[contextID] = tier
	}
	return tier
}

// Release drops the context's tier unless it still holds remembered tokens.
func (m *MemoryDurableTiers) Release(contextID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tier, ok := m.tiers[contextID]; ok && tier.Len() == 0 {
		delete(m.tiers, contextID)
	}
}

// Len returns how many tiers are held.
func (m *MemoryDurableTiers) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tiers)
}

type registryEntry struct {
	manager  *SessionManager
	lastSeen time.Time
}

// SessionRegistry holds one SessionManager per browsing context. Each context
// gets its own transient tier, which lives only as long as the entry; the
// durable tier comes from the factory and outlives it.
type SessionRegistry struct {
	cfg        SessionRegistryConfig
	durable    DurableTiers
	httpClient *http.Client
	locale     *LocaleService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewSessionRegistry builds a registry sharing one HTTP client across all
// browsing contexts.
func NewSessionRegistry(cfg SessionRegistryConfig, durable DurableTiers, locale *LocaleService, metrics *MetricsService, validate *validator.Validate) *SessionRegistry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if durable == nil {
		durable = NewMemoryDurableTiers()
	}
	if validate == nil {
		validate = validator.New()
	}
	api := cfg.API
	api.HTTPClient = apiclient.NewHTTPClient(cfg.API)
	cfg.API = api

	return &SessionRegistry{
		cfg:        cfg,
		durable:    durable,
		httpClient: api.HTTPClient,
		locale:     locale,
		metrics:    metrics,
		validator:  validate,
		logger:     cfg.Logger,
		now:        time.Now,
		entries:    make(map[string]*registryEntry),
	}
}

// Resolve returns the manager for contextID, creating it when unknown. The
// boolean reports whether it was created by this call.
func (r *SessionRegistry) Resolve(contextID string) (*SessionManager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[contextID]; ok {
		entry.lastSeen = r.now()
		return entry.manager, false
	}

	logger := r.logger.With(zap.String("context_id", contextID))
	store := tokenstore.New(r.durable.Tier(contextID), tokenstore.NewMemoryTier(), tokenstore.WithLogger(logger))
	client := apiclient.New(r.cfg.API, store, logger)
	manager := NewSessionManager(client, store, r.locale, r.metrics, r.validator, logger, r.cfg.Manager)

	r.entries[contextID] = &registryEntry{manager: manager, lastSeen: r.now()}
	r.metrics.SetActiveContexts(len(r.entries))
	return manager, true
}

// Forget drops a browsing context from memory, typically once it signed out.
// The context is recreated empty on its next request.
func (r *SessionRegistry) Forget(contextID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[contextID]; !ok {
		return
	}
	delete(r.entries, contextID)
	r.durable.Release(contextID)
	r.metrics.SetActiveContexts(len(r.entries))
}

// Len returns the number of tracked browsing contexts.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops contexts idle for longer than IdleTTL and returns how many were
// removed. Dropping a context discards its transient tokens.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.cfg.IdleTTL)
	removed := 0
	for id, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			r.durable.Release(id)
			removed++
		}
	}
	if removed > 0 {
		r.metrics.SetActiveContexts(len(r.entries))
		r.logger.Debug("idle browsing contexts dropped", zap.Int("removed", removed), zap.Int("remaining", len(r.entries)))
	}
	return removed
}

// Run sweeps idle contexts until ctx is cancelled.
func (r *SessionRegistry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
