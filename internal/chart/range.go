package chart

import (
	"errors"
	"math"

	"NiftyImbalance/internal/model"
)

// PriceRange scans all bars and returns the highest high and lowest low.
// Non-finite prices are ignored.
func PriceRange(bars []model.OHLCV) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if isFinite(b.High) && b.High > high {
			high = b.High
		}
		if isFinite(b.Low) && b.Low < low {
			low = b.Low
		}
	}
	if math.IsInf(high, 0) || math.IsInf(low, 0) {
		return 0, 0, errors.New("no finite prices")
	}
	return high, low, nil
}

// paddedRange widens [low, high] by frac of its span on both sides.
func paddedRange(high, low, frac float64) (lo, hi float64) {
	pad := (high - low) * frac
	if pad == 0 {
		pad = math.Max(math.Abs(high)*frac, 1)
	}
	return low - pad, high + pad
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
