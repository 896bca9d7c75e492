// Package cache stores upstream daily bars so repeated requests for the same
// window skip the market-data API.
package cache

import (
	"time"

	"NiftyImbalance/internal/model"
)

// Window is a fetched [Start, End) date range for one symbol.
type Window struct {
	Symbol    string
	Start     time.Time
	End       time.Time
	FetchedAt time.Time
}

// BarCache persists fetched bars by symbol and window.
type BarCache interface {
	// Get returns the bars in [start, end) when a window fetched no earlier
	// than freshAfter covers the whole range. ok is false on a miss.
	Get(symbol string, start, end, freshAfter time.Time) (bars []model.OHLCV, ok bool, err error)
	// Put stores bars and records [start, end) as fetched.
	Put(symbol string, start, end time.Time, bars []model.OHLCV) error
	Close() error
}
