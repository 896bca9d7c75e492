package scanner

import (
	"fmt"
	"math"

	"NiftyImbalance/internal/model"
)

// ValidateBars returns one Violation per bar that breaks OHLC consistency.
// Only the first problem of each bar is reported.
func ValidateBars(bars []model.OHLCV) []model.Violation {
	var out []model.Violation
	for i, b := range bars {
		if reason := checkBar(b); reason != "" {
			out = append(out, model.Violation{Index: i, Reason: reason})
		}
	}
	return out
}

func checkBar(b model.OHLCV) string {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "non-finite price"
		}
	}
	if b.High < b.Low {
		return fmt.Sprintf("high %.2f below low %.2f", b.High, b.Low)
	}
	if top := math.Max(b.Open, b.Close); b.High < top {
		return fmt.Sprintf("high %.2f below body top %.2f", b.High, top)
	}
	if bottom := math.Min(b.Open, b.Close); b.Low > bottom {
		return fmt.Sprintf("low %.2f above body bottom %.2f", b.Low, bottom)
	}
	return ""
}
