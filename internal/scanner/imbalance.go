// Package scanner detects candlestick patterns in daily price series.
//
// The scanner trusts its input: every bar is expected to satisfy
// high >= max(open, close) and low <= min(open, close) with no NaN values,
// and index order is taken as time order. ValidateBars checks the bar-level
// part of that precondition without affecting scan results.
package scanner

import (
	"math"

	"NiftyImbalance/internal/model"
)

// IsBullishVolumeImbalance reports whether the window (i-2, i-1, i) forms a
// bullish volume imbalance: three bearish bars where the oldest low sits above
// the newest high and the middle bar overlaps both neighbours.
// It returns false when i does not address a full window.
func IsBullishVolumeImbalance(bars []model.OHLCV, i int) bool {
	if i < 2 || i >= len(bars) {
		return false
	}
	c1, c2, c3 := bars[i-2], bars[i-1], bars[i]

	return c3.Open > c3.Close &&
		c2.Open > c2.Close &&
		c1.Open > c1.Close &&
		c1.Low > c3.High &&
		c2.Low <= c1.High &&
		c2.High >= c3.Low
}

// ScanBullishImbalances evaluates every 3-bar window in a single forward pass
// and returns the matches ordered by Left. Fewer than three bars yield an
// empty slice. NaN prices make every comparison false, so windows touching
// them never match.
func ScanBullishImbalances(bars []model.OHLCV) []model.ImbalanceEvent {
	events := []model.ImbalanceEvent{}
	for i := 2; i < len(bars); i++ {
		if !IsBullishVolumeImbalance(bars, i) {
			continue
		}
		events = append(events, model.ImbalanceEvent{
			Left:   i - 2,
			Right:  i,
			Top:    math.Min(bars[i-2].Close, bars[i-2].Low),
			Bottom: math.Max(bars[i].Open, bars[i].High),
		})
	}
	return events
}
