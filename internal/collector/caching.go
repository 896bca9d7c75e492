package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"NiftyImbalance/internal/cache"
	"NiftyImbalance/internal/model"
)

// CachingFetcher serves bars from a BarCache and falls back to Inner on a
// miss. Cache failures are logged and bypassed.
type CachingFetcher struct {
	Inner  Fetcher
	Cache  cache.BarCache
	TTL    time.Duration
	logger zerolog.Logger
}

// NewCachingFetcher wraps inner with cache.
func NewCachingFetcher(inner Fetcher, c cache.BarCache, ttl time.Duration, logger zerolog.Logger) *CachingFetcher {
	return &CachingFetcher{
		Inner:  inner,
		Cache:  c,
		TTL:    ttl,
		logger: logger.With().Str("component", "caching_fetcher").Logger(),
	}
}

func (f *CachingFetcher) Name() string { return f.Inner.Name() + "+cache" }

func (f *CachingFetcher) FetchDailyRange(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	bars, ok, err := f.Cache.Get(symbol, start, end, time.Now().Add(-f.TTL))
	if err != nil {
		f.logger.Warn().Err(err).Msg("cache lookup failed")
	} else if ok {
		f.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("cache hit")
		return bars, nil
	}

	bars, err = f.Inner.FetchDailyRange(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if err := f.Cache.Put(symbol, start, end, bars); err != nil {
		f.logger.Warn().Err(err).Msg("cache store failed")
	}
	return bars, nil
}
