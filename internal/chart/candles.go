package chart

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"NiftyImbalance/internal/model"
)

var (
	upColor     = color.RGBA{R: 0x26, G: 0xa6, B: 0x9a, A: 0xff}
	downColor   = color.RGBA{R: 0xef, G: 0x53, B: 0x50, A: 0xff}
	markerColor = color.RGBA{R: 0x00, G: 0x80, B: 0x00, A: 0xff}
)

// Candlesticks draws one candle per bar at x = bar index.
type Candlesticks struct {
	Bars []model.OHLCV

	// BodyWidth is the candle body width in x data units.
	BodyWidth float64

	UpColor   color.Color
	DownColor color.Color
	WickWidth vg.Length
}

// NewCandlesticks returns a plotter for bars with default styling.
func NewCandlesticks(bars []model.OHLCV) *Candlesticks {
	return &Candlesticks{
		Bars:      bars,
		BodyWidth: 0.6,
		UpColor:   upColor,
		DownColor: downColor,
		WickWidth: vg.Points(0.8),
	}
}

// Plot implements plot.Plotter.
func (cs *Candlesticks) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	half := cs.BodyWidth / 2

	for i, b := range cs.Bars {
		if !isFinite(b.Open) || !isFinite(b.High) || !isFinite(b.Low) || !isFinite(b.Close) {
			continue
		}
		clr := cs.UpColor
		if b.Close < b.Open {
			clr = cs.DownColor
		}
		x := float64(i)

		wick := draw.LineStyle{Color: clr, Width: cs.WickWidth}
		c.StrokeLine2(wick, trX(x), trY(b.Low), trX(x), trY(b.High))

		left, right := trX(x-half), trX(x+half)
		top, bottom := trY(math.Max(b.Open, b.Close)), trY(math.Min(b.Open, b.Close))
		if top-bottom < cs.WickWidth {
			// doji: draw the body as a flat line
			c.StrokeLine2(wick, left, bottom, right, bottom)
			continue
		}
		c.FillPolygon(clr, []vg.Point{
			{X: left, Y: bottom},
			{X: right, Y: bottom},
			{X: right, Y: top},
			{X: left, Y: top},
		})
	}
}

// DataRange implements plot.DataRanger.
func (cs *Candlesticks) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = -1, float64(len(cs.Bars))
	high, low, err := PriceRange(cs.Bars)
	if err != nil {
		return xmin, xmax, 0, 1
	}
	ymin, ymax = paddedRange(high, low, 0.02)
	return xmin, xmax, ymin, ymax
}

// dateTicks labels roughly eight evenly spaced bars with their dates.
func dateTicks(bars []model.OHLCV) plot.Ticker {
	return plot.TickerFunc(func(_, _ float64) []plot.Tick {
		step := len(bars) / 8
		if step < 1 {
			step = 1
		}
		var ticks []plot.Tick
		for i := 0; i < len(bars); i += step {
			ticks = append(ticks, plot.Tick{Value: float64(i), Label: bars[i].Time.Format("Jan 02")})
		}
		return ticks
	})
}
