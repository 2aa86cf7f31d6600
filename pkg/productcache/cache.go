package productcache

import (
	"context"
	"sync"
	"time"

	"WasteGuard-Backend/domain"
	"WasteGuard-Backend/pkg/logger"
	"WasteGuard-Backend/pkg/product"

	"golang.org/x/sync/singleflight"
)

type (
	// Cache sits between the handlers and the product service. Reads are
	// served from memory while fresh, deduplicated across concurrent
	// callers, and fall back to stale data when the backend is
	// unreachable. Mutations are applied to the cached lists before the
	// backend call and rolled back if it fails.
	Cache struct {
		service product.ProductService
		cfg     Config
		now     func() time.Time

		mu      sync.Mutex
		entries map[queryKey]*entry

		group singleflight.Group
	}

	Config struct {
		StaleAll        time.Duration
		StaleCategory   time.Duration
		StaleExpiring   time.Duration
		StaleSearch     time.Duration
		StaleCategories time.Duration
		StaleStats      time.Duration

		// GCFactor scales a key's staleness window into its eviction
		// deadline. Stale entries are kept around this long so they can
		// still be served when the backend is down.
		GCFactor int

		MaxReadRetries       int
		RetryInitialInterval time.Duration
		RetryMaxInterval     time.Duration
		MutationRetryDelay   time.Duration

		GCInterval time.Duration
	}

	entry struct {
		products []domain.ProductItem
		value    any

		fetchedAt time.Time
		staleFor  time.Duration
		evictAt   time.Time

		// version is bumped by every optimistic patch and rollback on the
		// key. A completed fetch only installs its result when the version
		// it started from is still current, so a slow refresh can never
		// clobber a newer optimistic state.
		version uint64
	}
)

// Cache is a drop-in ProductService, so callers like the expiry
// coordinator go through the cached, optimistic paths.
var _ product.ProductService = (*Cache)(nil)

func DefaultConfig() Config {
	return Config{
		StaleAll:             3 * time.Minute,
		StaleCategory:        5 * time.Minute,
		StaleExpiring:        2 * time.Minute,
		StaleSearch:          10 * time.Minute,
		StaleCategories:      30 * time.Minute,
		StaleStats:           2 * time.Minute,
		GCFactor:             10,
		MaxReadRetries:       5,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     30 * time.Second,
		MutationRetryDelay:   250 * time.Millisecond,
		GCInterval:           time.Minute,
	}
}

func New(service product.ProductService, cfg Config) *Cache {
	if cfg.GCFactor <= 0 {
		cfg.GCFactor = 10
	}
	return &Cache{
		service: service,
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[queryKey]*entry),
	}
}

// Start runs the eviction loop until ctx is cancelled.
func (c *Cache) Start(ctx context.Context) {
	interval := c.cfg.GCInterval
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.evictExpired()
			}
		}
	}()
}

func (c *Cache) evictExpired() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if now.After(e.evictAt) {
			delete(c.entries, k)
		}
	}
}

func (c *Cache) staleWindow(kind string) time.Duration {
	switch kind {
	case KindAll:
		return c.cfg.StaleAll
	case KindCategory:
		return c.cfg.StaleCategory
	case KindExpiring:
		return c.cfg.StaleExpiring
	case KindSearch:
		return c.cfg.StaleSearch
	case KindCategories:
		return c.cfg.StaleCategories
	default:
		return c.cfg.StaleStats
	}
}

// lookup returns the entry for key and whether it is still fresh.
func (c *Cache) lookup(key queryKey) (*entry, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}
	if c.now().After(e.evictAt) {
		delete(c.entries, key)
		return nil, false, false
	}
	fresh := c.now().Sub(e.fetchedAt) < e.staleFor
	return e, true, fresh
}

func (c *Cache) store(key queryKey, startVersion uint64, products []domain.ProductItem, value any) {
	staleFor := c.staleWindow(key.Kind)
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.version != startVersion {
		// An optimistic patch landed while the fetch was in flight.
		return
	}
	c.entries[key] = &entry{
		products:  products,
		value:     value,
		fetchedAt: c.now(),
		staleFor:  staleFor,
		evictAt:   c.now().Add(staleFor * time.Duration(c.cfg.GCFactor)),
	}
}

func (c *Cache) currentVersion(key queryKey) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.version
	}
	return 0
}

// listThrough serves a product list from the cache, refreshing through
// singleflight when the entry is missing or stale. A stale entry is
// returned as-is when the refresh fails.
func (c *Cache) listThrough(ctx context.Context, key queryKey, fetch func() ([]domain.ProductItem, error)) ([]domain.ProductItem, error) {
	if e, ok, fresh := c.lookup(key); ok && fresh {
		return cloneItems(e.products), nil
	}

	result, err, _ := c.group.Do(key.String(), func() (any, error) {
		startVersion := c.currentVersion(key)
		var items []domain.ProductItem
		fetchErr := c.retryRead(ctx, func() error {
			var err error
			items, err = fetch()
			return err
		})
		if fetchErr != nil {
			return nil, fetchErr
		}
		c.store(key, startVersion, items, nil)
		return items, nil
	})
	if err != nil {
		if e, ok, _ := c.lookup(key); ok {
			logger.Logger.Warn().Err(err).Str("key", key.String()).
				Msg("refresh failed, serving stale products")
			return cloneItems(e.products), nil
		}
		return nil, err
	}
	return cloneItems(result.([]domain.ProductItem)), nil
}

// valueThrough is listThrough for non-list payloads.
func (c *Cache) valueThrough(ctx context.Context, key queryKey, fetch func() (any, error)) (any, error) {
	if e, ok, fresh := c.lookup(key); ok && fresh {
		return e.value, nil
	}

	result, err, _ := c.group.Do(key.String(), func() (any, error) {
		startVersion := c.currentVersion(key)
		var value any
		fetchErr := c.retryRead(ctx, func() error {
			var err error
			value, err = fetch()
			return err
		})
		if fetchErr != nil {
			return nil, fetchErr
		}
		c.store(key, startVersion, nil, value)
		return value, nil
	})
	if err != nil {
		if e, ok, _ := c.lookup(key); ok {
			logger.Logger.Warn().Err(err).Str("key", key.String()).
				Msg("refresh failed, serving stale value")
			return e.value, nil
		}
		return nil, err
	}
	return result, nil
}

func cloneItems(items []domain.ProductItem) []domain.ProductItem {
	out := make([]domain.ProductItem, len(items))
	copy(out, items)
	return out
}

// GetProducts returns the user's full product list.
func (c *Cache) GetProducts(ctx context.Context, userID string) ([]domain.ProductItem, error) {
	return c.listThrough(ctx, keyAll(userID), func() ([]domain.ProductItem, error) {
		return c.service.GetProducts(ctx, userID)
	})
}

// GetProductsByCategory returns the user's products in one category.
func (c *Cache) GetProductsByCategory(ctx context.Context, userID, category string) ([]domain.ProductItem, error) {
	return c.listThrough(ctx, keyCategory(userID, category), func() ([]domain.ProductItem, error) {
		return c.service.GetProductsByCategory(ctx, userID, category)
	})
}

// GetExpiringSoonProducts returns products expiring within the window.
func (c *Cache) GetExpiringSoonProducts(ctx context.Context, userID string, withinDays int) ([]domain.ProductItem, error) {
	return c.listThrough(ctx, keyExpiring(userID, withinDays), func() ([]domain.ProductItem, error) {
		return c.service.GetExpiringSoonProducts(ctx, userID, withinDays)
	})
}

// SearchProducts returns products whose name or category matches query.
func (c *Cache) SearchProducts(ctx context.Context, userID, query string) ([]domain.ProductItem, error) {
	return c.listThrough(ctx, keySearch(userID, query), func() ([]domain.ProductItem, error) {
		return c.service.SearchProducts(ctx, userID, query)
	})
}

// GetCategories returns the user's category list.
func (c *Cache) GetCategories(ctx context.Context, userID string) ([]string, error) {
	v, err := c.valueThrough(ctx, keyCategories(userID), func() (any, error) {
		return c.service.GetCategories(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// GetUserStatistics returns the user's waste statistics.
func (c *Cache) GetUserStatistics(ctx context.Context, userID string) (domain.UserStatisticsResponse, error) {
	v, err := c.valueThrough(ctx, keyStatistics(userID), func() (any, error) {
		return c.service.GetUserStatistics(ctx, userID)
	})
	if err != nil {
		return domain.UserStatisticsResponse{}, err
	}
	return v.(domain.UserStatisticsResponse), nil
}

// GetUserAnalytics returns the user's derived usage analytics.
func (c *Cache) GetUserAnalytics(ctx context.Context, userID string) (domain.UserAnalyticsResponse, error) {
	v, err := c.valueThrough(ctx, keyAnalytics(userID), func() (any, error) {
		return c.service.GetUserAnalytics(ctx, userID)
	})
	if err != nil {
		return domain.UserAnalyticsResponse{}, err
	}
	return v.(domain.UserAnalyticsResponse), nil
}

// GetUsageHistory returns the user's mark-as-used history.
func (c *Cache) GetUsageHistory(ctx context.Context, userID string) ([]domain.UsageHistoryItem, error) {
	v, err := c.valueThrough(ctx, keyUsageHistory(userID), func() (any, error) {
		return c.service.GetUsageHistory(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.UsageHistoryItem), nil
}

// InvalidateUser drops every cached key belonging to userID. The change
// feed consumer calls this when another session mutates the user's data.
func (c *Cache) InvalidateUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.UserID == userID {
			delete(c.entries, k)
		}
	}
}

// invalidateDerived drops the keys a product mutation makes stale:
// every product list except the one just patched, plus statistics,
// analytics, usage history and the category list.
func (c *Cache) invalidateDerived(userID string, keep queryKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.UserID != userID || k == keep {
			continue
		}
		delete(c.entries, k)
	}
}
