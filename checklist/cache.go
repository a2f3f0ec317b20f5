package checklist

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes a provider's catalogue. Concurrent loads after an
// invalidation collapse into one call to the underlying provider.
type Cache struct {
	source Provider

	mu    sync.RWMutex
	cat   *Catalogue
	gen   uint64
	group singleflight.Group
}

// NewCache wraps source.
func NewCache(source Provider) *Cache {
	return &Cache{source: source}
}

// Catalogue implements Provider.
func (c *Cache) Catalogue(ctx context.Context) (*Catalogue, error) {
	c.mu.RLock()
	cat, gen := c.cat, c.gen
	c.mu.RUnlock()
	if cat != nil {
		return cat, nil
	}

	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		loaded, err := c.source.Catalogue(ctx)
		if err != nil {
			return nil, err
		}
		if loaded == nil {
			loaded = &Catalogue{}
		}
		c.mu.Lock()
		// A load that raced an invalidation is served but not kept.
		if c.gen == gen {
			c.cat = loaded
		}
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalogue), nil
}

// Invalidate drops the cached catalogue; the next read reloads it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.cat = nil
	c.gen++
	c.mu.Unlock()
}
