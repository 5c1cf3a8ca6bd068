package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader fetches a fresh copy of a page
type Loader interface {
	FetchPage(ctx context.Context) (string, error)
}

// DefaultLoadTimeout bounds a shared load once it is detached from its callers
const DefaultLoadTimeout = 30 * time.Second

// PageCache serves a page from a Store and loads it on a miss.
// Concurrent misses share one upstream request.
type PageCache struct {
	store       Store
	loader      Loader
	key         string
	ttl         time.Duration
	loadTimeout time.Duration
	group       singleflight.Group
	logger      *zap.Logger
}

// NewPageCache caches loader's page under key for ttl. A ttl <= 0 disables caching.
func NewPageCache(store Store, loader Loader, key string, ttl time.Duration, logger *zap.Logger) *PageCache {
	return &PageCache{
		store:       store,
		loader:      loader,
		key:         key,
		ttl:         ttl,
		loadTimeout: DefaultLoadTimeout,
		logger:      logger,
	}
}

// SetLoadTimeout changes how long a shared load may run. d <= 0 keeps the default.
func (c *PageCache) SetLoadTimeout(d time.Duration) {
	if d > 0 {
		c.loadTimeout = d
	}
}

// FetchPage implements Loader so a PageCache can stand in for its loader
func (c *PageCache) FetchPage(ctx context.Context) (string, error) {
	page, _, err := c.Fetch(ctx)
	return page, err
}

// Fetch returns the page and whether it came from the store.
// Store errors are logged and treated as a miss; load errors are never cached.
// The shared load does not inherit the caller's cancellation, so one caller
// giving up does not fail the others waiting on it.
func (c *PageCache) Fetch(ctx context.Context) (string, bool, error) {
	if c.ttl > 0 {
		value, ok, err := c.store.Get(ctx, c.key)
		if err != nil {
			c.logger.Warn("Cache read failed", zap.String("key", c.key), zap.Error(err))
		} else if ok {
			return string(value), true, nil
		}
	}

	ch := c.group.DoChan(c.key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		page, err := c.loader.FetchPage(loadCtx)
		if err != nil {
			return "", err
		}
		if c.ttl > 0 {
			if err := c.store.Set(loadCtx, c.key, []byte(page), c.ttl); err != nil {
				c.logger.Warn("Cache write failed", zap.String("key", c.key), zap.Error(err))
			}
		}
		return page, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", false, res.Err
		}
		if res.Shared {
			c.logger.Debug("Shared in-flight page load", zap.String("key", c.key))
		}
		return res.Val.(string), false, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// Ping checks the underlying store
func (c *PageCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}
