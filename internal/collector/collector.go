package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"StockLens/internal/clock"
	"StockLens/internal/dispatcher"
	"StockLens/internal/logger"
	"StockLens/internal/model"
)

// DefaultCacheTTL is how long a cached payload is served before re-fetching.
const DefaultCacheTTL = 24 * time.Hour

// CacheStore persists raw provider payloads keyed by (symbol, data type).
type CacheStore interface {
	// GetCached returns the payload fetched at or after notBefore, or
	// model.ErrCacheMiss.
	GetCached(ctx context.Context, symbol string, dataType model.DataType, notBefore time.Time) ([]byte, error)
	UpsertCached(ctx context.Context, entry model.CacheEntry) error
}

// SeriesResult is a normalized daily series and where it came from.
type SeriesResult struct {
	Symbol    string
	Series    model.Series
	FromCache bool
}

// Collector serves provider data cache-aside: fresh cache hits are returned
// directly, misses go through the shared dispatcher and are written back.
type Collector struct {
	Provider   Provider
	Cache      CacheStore
	Dispatcher *dispatcher.Dispatcher
	TTL        time.Duration
	Clock      clock.Clock

	log    *logger.Entry
	writes sync.WaitGroup
}

// NewCollector creates a new Collector.
func NewCollector(p Provider, cache CacheStore, d *dispatcher.Dispatcher, ttl time.Duration, clk clock.Clock) *Collector {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Collector{
		Provider:   p,
		Cache:      cache,
		Dispatcher: d,
		TTL:        ttl,
		Clock:      clk,
		log:        logger.GetLogger().WithComponent("collector"),
	}
}

// FetchRaw returns the raw payload for (symbol, dataType). symbol must
// already be normalized.
func (c *Collector) FetchRaw(ctx context.Context, symbol string, dataType model.DataType) ([]byte, bool, error) {
	entry := c.log.WithFields(logger.Fields{"symbol": symbol, "data_type": dataType})

	notBefore := c.Clock.Now().Add(-c.TTL)
	payload, err := c.Cache.GetCached(ctx, symbol, dataType, notBefore)
	switch {
	case err == nil:
		entry.Debug("cache hit")
		return payload, true, nil
	case errors.Is(err, model.ErrCacheMiss):
		entry.Debug("cache miss")
	default:
		entry.WithError(err).Warn("cache read failed, fetching from provider")
	}

	// The job outlives a cancelled caller, so it writes the cache itself.
	c.writes.Add(1)
	payload, err = dispatcher.Do(ctx, c.Dispatcher, func(jobCtx context.Context) ([]byte, error) {
		defer c.writes.Done()
		body, err := c.Provider.Fetch(jobCtx, symbol, dataType)
		if err != nil {
			return nil, err
		}
		c.persist(model.CacheEntry{
			Symbol:    symbol,
			DataType:  dataType,
			Payload:   body,
			FetchedAt: c.Clock.Now(),
		})
		return body, nil
	})
	if err != nil {
		return nil, false, err
	}
	return payload, false, nil
}

// persist writes the entry in the background. Failures are logged only.
func (c *Collector) persist(e model.CacheEntry) {
	c.writes.Add(1)
	go func() {
		defer c.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Cache.UpsertCached(ctx, e); err != nil {
			err = fmt.Errorf("%w: %s/%s: %v", model.ErrCacheWrite, e.Symbol, e.DataType, err)
			c.log.WithError(err).Error("cache write failed")
		}
	}()
}

// Wait blocks until queued fetches and background cache writes have finished.
func (c *Collector) Wait() {
	c.writes.Wait()
}

// DailySeries returns the normalized daily series for symbol.
func (c *Collector) DailySeries(ctx context.Context, symbol string) (*SeriesResult, error) {
	payload, fromCache, err := c.FetchRaw(ctx, symbol, model.DataTypeDaily)
	if err != nil {
		return nil, fmt.Errorf("fetch daily series %s: %w", symbol, err)
	}
	series, err := NormalizeDaily(payload)
	if err != nil {
		return nil, fmt.Errorf("normalize daily series %s: %w", symbol, err)
	}
	return &SeriesResult{Symbol: symbol, Series: series, FromCache: fromCache}, nil
}

// Overview returns company metadata for symbol.
func (c *Collector) Overview(ctx context.Context, symbol string) (*model.Overview, bool, error) {
	payload, fromCache, err := c.FetchRaw(ctx, symbol, model.DataTypeOverview)
	if err != nil {
		return nil, false, fmt.Errorf("fetch overview %s: %w", symbol, err)
	}
	ov, err := NormalizeOverview(payload)
	if err != nil {
		return nil, false, fmt.Errorf("normalize overview %s: %w", symbol, err)
	}
	return ov, fromCache, nil
}
