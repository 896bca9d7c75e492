// Package chart renders the candlestick chart and the bottom-value table
// images shown on the web page.
package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"NiftyImbalance/internal/model"
)

// Renderer draws PNG images for one analysis run.
type Renderer struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

// NewRenderer creates a Renderer with the chart size given in inches.
func NewRenderer(title string, widthIn, heightIn float64) *Renderer {
	return &Renderer{
		Title:  title,
		Width:  vg.Length(widthIn) * vg.Inch,
		Height: vg.Length(heightIn) * vg.Inch,
	}
}

// FormatPrice renders a price with two decimals.
func FormatPrice(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// RenderCandles writes the candlestick chart of series to path and marks each
// event with a green cross at (Left, Top) and (Right, Bottom).
func (r *Renderer) RenderCandles(series *model.PriceSeries, events []model.ImbalanceEvent, path string) error {
	var bars []model.OHLCV
	if series != nil {
		bars = series.DailyBars
	}

	p := plot.New()
	p.Title.Text = r.Title
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = dateTicks(bars)
	p.Add(plotter.NewGrid())
	p.Add(NewCandlesticks(bars))

	if len(events) > 0 {
		xys := make(plotter.XYs, 0, 2*len(events))
		for _, ev := range events {
			xys = append(xys,
				plotter.XY{X: float64(ev.Left), Y: ev.Top},
				plotter.XY{X: float64(ev.Right), Y: ev.Bottom},
			)
		}
		markers, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("build markers: %w", err)
		}
		markers.GlyphStyle = draw.GlyphStyle{
			Color:  markerColor,
			Radius: vg.Points(5),
			Shape:  draw.CrossGlyph{},
		}
		p.Add(markers)
		p.Legend.Add("Bullish volume imbalance", markers)
		p.Legend.Top = true
	}

	return savePNG(p, r.Width, r.Height, path)
}

// RenderBottomTable writes a one-column table of each event's Bottom value.
func (r *Renderer) RenderBottomTable(events []model.ImbalanceEvent, path string) error {
	rows := len(events) + 1

	xys := make(plotter.XYs, rows)
	labels := make([]string, rows)
	labels[0] = "Bottom"
	for i, ev := range events {
		xys[i+1] = plotter.XY{X: 0, Y: -float64(i + 1)}
		labels[i+1] = FormatPrice(ev.Bottom)
	}

	cells, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return fmt.Errorf("build table cells: %w", err)
	}
	for i := range cells.TextStyle {
		cells.TextStyle[i].Font.Size = vg.Points(12)
		cells.TextStyle[i].XAlign = draw.XCenter
		cells.TextStyle[i].YAlign = draw.YCenter
	}

	p := plot.New()
	p.HideAxes()
	p.Add(&rowRules{rows: rows, style: draw.LineStyle{Color: color.Gray{Y: 0x80}, Width: vg.Points(0.5)}})
	p.Add(cells)
	p.X.Min, p.X.Max = -1, 1
	p.Y.Min, p.Y.Max = -float64(rows)+0.5, 0.5

	height := vg.Length(rows)*vg.Points(22) + vg.Points(16)
	return savePNG(p, 2*vg.Inch, height, path)
}

// rowRules draws the horizontal cell borders of a one-column table whose
// rows are centred at y = 0, -1, -2, ...
type rowRules struct {
	rows  int
	style draw.LineStyle
}

func (t *rowRules) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for i := 0; i <= t.rows; i++ {
		y := trY(0.5 - float64(i))
		c.StrokeLine2(t.style, trX(-0.9), y, trX(0.9), y)
	}
	top, bottom := trY(0.5), trY(0.5-float64(t.rows))
	c.StrokeLine2(t.style, trX(-0.9), bottom, trX(-0.9), top)
	c.StrokeLine2(t.style, trX(0.9), bottom, trX(0.9), top)
}

func (t *rowRules) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1, 1, 0.5 - float64(t.rows), 0.5
}

// savePNG renders p into a temp file next to path and renames it into place
// so readers never see a partially written image.
func savePNG(p *plot.Plot, w, h vg.Length, path string) error {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp image: %w", err)
	}
	if _, err := wt.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish image: %w", err)
	}
	return nil
}
