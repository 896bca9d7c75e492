package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"NiftyImbalance/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData []model.OHLCV
	Err       error
	Calls     int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyRange(_ context.Context, _ string, start, end time.Time) ([]model.OHLCV, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, start, end), nil
}

// generateMockBars emits one slowly drifting bar per weekday in [start, end).
func generateMockBars(basePrice float64, start, end time.Time) []model.OHLCV {
	var bars []model.OHLCV
	i := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i%20-10)*0.002)
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}

// Collector fetches the daily series of one configured symbol.
type Collector struct {
	Fetcher Fetcher
	Symbol  string
	logger  zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, logger zerolog.Logger) *Collector {
	return &Collector{
		Fetcher: fetcher,
		Symbol:  symbol,
		logger:  logger.With().Str("component", "collector").Logger(),
	}
}

// Series fetches bars in [start, end). An upstream "no data" answer yields an
// empty series rather than an error.
func (c *Collector) Series(ctx context.Context, start, end time.Time) (*model.PriceSeries, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("invalid range %s..%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	bars, err := c.Fetcher.FetchDailyRange(ctx, c.Symbol, start, end)
	if errors.Is(err, ErrNoData) {
		c.logger.Warn().Str("source", c.Fetcher.Name()).Err(err).Msg("upstream returned no bars")
		bars, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}
	c.logger.Debug().
		Str("source", c.Fetcher.Name()).
		Int("bars", len(bars)).
		Time("start", start).
		Time("end", end).
		Msg("series fetched")
	return &model.PriceSeries{
		Symbol:    c.Symbol,
		DailyBars: bars,
		FetchedAt: time.Now(),
	}, nil
}
