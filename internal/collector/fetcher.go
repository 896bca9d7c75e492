package collector

import (
	"context"
	"errors"
	"time"

	"NiftyImbalance/internal/model"
)

// ErrNoData is returned when the upstream source has no bars for the window.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching market data.
// Bars cover [start, end) and are returned oldest first.
type Fetcher interface {
	FetchDailyRange(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}
