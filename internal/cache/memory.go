package cache

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is the single-instance ProfileCache.
type MemoryCache struct {
	cache *gocache.Cache
}

var _ ProfileCache = (*MemoryCache)(nil)

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(ttl, 2*ttl)}
}

func (m *MemoryCache) Get(_ context.Context, id uuid.UUID) (models.Profile, bool) {
	v, ok := m.cache.Get(key(id))
	if !ok {
		return models.Profile{}, false
	}
	p, ok := v.(models.Profile)
	return p, ok
}

func (m *MemoryCache) Set(_ context.Context, p models.Profile) {
	m.cache.SetDefault(key(p.ID), p)
}

func (m *MemoryCache) Delete(_ context.Context, id uuid.UUID) {
	m.cache.Delete(key(id))
}

// Close is a no-op for the in-memory cache.
func (m *MemoryCache) Close() error {
	return nil
}
