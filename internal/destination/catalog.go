package destination

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoadFunc fetches the full destination list from the backend. It returns an
// empty list on failure.
type LoadFunc func(ctx context.Context) []Destination

// ListCache is an optional shared store for the destination list.
type ListCache interface {
	GetDestinations(ctx context.Context) ([]Destination, error)
	SetDestinations(ctx context.Context, list []Destination) error
	DeleteDestinations(ctx context.Context) error
}

// Catalog holds the destination reference list. The list is loaded once and
// then served from memory; an empty load is not memoized so the next caller
// tries again. Concurrent callers share a single in-flight load.
type Catalog struct {
	load  LoadFunc
	cache ListCache
	log   *slog.Logger
	group singleflight.Group

	mu     sync.RWMutex
	list   []Destination
	loaded bool
}

// NewCatalog constructs a Catalog. cache may be nil.
func NewCatalog(load LoadFunc, cache ListCache, log *slog.Logger) *Catalog {
	return &Catalog{load: load, cache: cache, log: log}
}

// All returns the destination list, loading it on first use.
func (c *Catalog) All(ctx context.Context) []Destination {
	if list, ok := c.memoized(); ok {
		return list
	}

	v, _, _ := c.group.Do("destinations", func() (any, error) {
		if list, ok := c.memoized(); ok {
			return list, nil
		}
		return c.fetch(ctx), nil
	})
	list, _ := v.([]Destination)
	return list
}

// Reload drops the memoized list and any cached copy, then loads again.
func (c *Catalog) Reload(ctx context.Context) []Destination {
	c.mu.Lock()
	c.list, c.loaded = nil, false
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.DeleteDestinations(ctx); err != nil {
			c.log.Warn("destination cache delete failed", "err", err)
		}
	}
	return c.All(ctx)
}

func (c *Catalog) memoized() ([]Destination, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.list, c.loaded
}

func (c *Catalog) store(list []Destination) {
	c.mu.Lock()
	c.list, c.loaded = list, true
	c.mu.Unlock()
}

func (c *Catalog) fetch(ctx context.Context) []Destination {
	if c.cache != nil {
		cached, err := c.cache.GetDestinations(ctx)
		if err != nil {
			c.log.Warn("destination cache get failed", "err", err)
		}
		if len(cached) > 0 {
			c.store(cached)
			return cached
		}
	}

	list := c.load(ctx)
	if len(list) == 0 {
		c.log.Warn("destination list empty, will retry on next request")
		return nil
	}

	if c.cache != nil {
		if err := c.cache.SetDestinations(ctx, list); err != nil {
			c.log.Warn("destination cache set failed", "err", err)
		}
	}

	c.store(list)
	c.log.Info("destination list loaded", "count", len(list))
	return list
}

// Search runs Search against the loaded list.
func (c *Catalog) Search(ctx context.Context, input string, limit int) []Destination {
	return Search(c.All(ctx), input, limit)
}
