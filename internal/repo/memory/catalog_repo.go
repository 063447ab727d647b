package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/eventmanager/internal/domain/catalog"
)

type CatalogRepo struct {
	mu         sync.RWMutex
	categories map[string]catalog.Category
	locations  map[string]catalog.Location
}

func NewCatalogRepo() *CatalogRepo {
	return &CatalogRepo{
		categories: make(map[string]catalog.Category),
		locations:  make(map[string]catalog.Location),
	}
}

func (r *CatalogRepo) PutCategory(c catalog.Category) {
	r.mu.Lock()
	r.categories[c.Code] = c
	r.mu.Unlock()
}

func (r *CatalogRepo) PutLocation(l catalog.Location) {
	r.mu.Lock()
	r.locations[l.Code] = l
	r.mu.Unlock()
}

// CategoryExists reports whether an active category has this code.
func (r *CatalogRepo) CategoryExists(_ context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[code]
	return ok && c.Active, nil
}

func (r *CatalogRepo) LocationExists(_ context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.locations[code]
	return ok && l.Active, nil
}
