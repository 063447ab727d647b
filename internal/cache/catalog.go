package cache

import (
	"context"
	"time"

	"github.com/geocoder89/eventmanager/internal/validation/publish"
)

const (
	categoryPrefix = "category:"
	locationPrefix = "location:"

	maxPositiveTTL = 10 * time.Second
	maxNegativeTTL = 5 * time.Second
)

// Catalog memoizes category and location existence checks for the publish
// gate. An "exists" answer is kept at most maxPositiveTTL so a deactivated
// code stops passing the gate soon after, and a "does not exist" answer at
// most maxNegativeTTL so a new code becomes publishable quickly. Lookup
// errors are never cached.
type Catalog struct {
	next        publish.CatalogLookup
	cache       *Cache[bool]
	negativeTTL time.Duration
}

func NewCatalog(next publish.CatalogLookup, ttl time.Duration) *Catalog {
	c := &Catalog{next: next, cache: New[bool](min(ttl, maxPositiveTTL))}
	c.negativeTTL = min(c.cache.ttl, maxNegativeTTL)
	return c
}

func (c *Catalog) CategoryExists(ctx context.Context, code string) (bool, error) {
	return c.lookup(categoryPrefix+code, func() (bool, error) {
		return c.next.CategoryExists(ctx, code)
	})
}

func (c *Catalog) LocationExists(ctx context.Context, code string) (bool, error) {
	return c.lookup(locationPrefix+code, func() (bool, error) {
		return c.next.LocationExists(ctx, code)
	})
}

func (c *Catalog) lookup(key string, load func() (bool, error)) (bool, error) {
	if ok, hit := c.cache.Get(key); hit {
		return ok, nil
	}

	ok, err := load()
	if err != nil {
		return false, err
	}
	if ok {
		c.cache.Set(key, true)
	} else {
		c.cache.SetTTL(key, false, c.negativeTTL)
	}
	return ok, nil
}
