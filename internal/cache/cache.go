// Package cache keeps member profiles close to the request path so the
// caller gate does not hit the database on every request.
package cache

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ProfileCache stores profiles by member id.
type ProfileCache interface {
	Get(ctx context.Context, id uuid.UUID) (models.Profile, bool)
	Set(ctx context.Context, p models.Profile)
	Delete(ctx context.Context, id uuid.UUID)
	Close() error
}

func key(id uuid.UUID) string {
	return "profile:" + id.String()
}

// Loader fronts a ProfileCache and collapses concurrent misses for the same
// id into a single load.
type Loader struct {
	cache ProfileCache
	group singleflight.Group
}

func NewLoader(c ProfileCache) *Loader {
	return &Loader{cache: c}
}

// Load returns the cached profile or calls fn once per id across concurrent
// callers. Errors from fn are not cached.
func (l *Loader) Load(ctx context.Context, id uuid.UUID, fn func(context.Context) (models.Profile, error)) (models.Profile, error) {
	if p, ok := l.cache.Get(ctx, id); ok {
		return p, nil
	}

	v, err, _ := l.group.Do(key(id), func() (interface{}, error) {
		p, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		l.cache.Set(ctx, p)
		return p, nil
	})
	if err != nil {
		return models.Profile{}, err
	}
	p, ok := v.(models.Profile)
	if !ok {
		return models.Profile{}, fmt.Errorf("cache: unexpected value %T", v)
	}
	return p, nil
}

func (l *Loader) Invalidate(ctx context.Context, id uuid.UUID) {
	if l == nil {
		return
	}
	l.cache.Delete(ctx, id)
}
