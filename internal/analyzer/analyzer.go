// Package analyzer runs one fetch → scan → render pass for a date window.
package analyzer

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"NiftyImbalance/internal/model"
	"NiftyImbalance/internal/scanner"
)

// SeriesSource supplies the daily series for [start, end).
type SeriesSource interface {
	Series(ctx context.Context, start, end time.Time) (*model.PriceSeries, error)
}

// Renderer draws the chart and table images.
type Renderer interface {
	RenderCandles(series *model.PriceSeries, events []model.ImbalanceEvent, path string) error
	RenderBottomTable(events []model.ImbalanceEvent, path string) error
}

// FetchError wraps an upstream failure so callers can tell it apart from
// rendering problems.
type FetchError struct{ Err error }

func (e *FetchError) Error() string { return "fetch: " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// Options configures where images go and whether bars are validated.
type Options struct {
	StaticDir    string // filesystem directory served under /static
	ChartFile    string
	TableFile    string
	ValidateOHLC bool
}

// Analyzer ties the collector, the scanner and the renderer together.
type Analyzer struct {
	source   SeriesSource
	renderer Renderer
	opts     Options
	logger   zerolog.Logger

	// publishMu keeps each run's chart and table adjacent on disk.
	publishMu sync.Mutex
}

// New creates an Analyzer.
func New(source SeriesSource, renderer Renderer, opts Options, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		source:   source,
		renderer: renderer,
		opts:     opts,
		logger:   logger.With().Str("component", "analyzer").Logger(),
	}
}

// Scan fetches [start, end) and returns the series with its imbalances.
// Nothing is rendered.
func (a *Analyzer) Scan(ctx context.Context, start, end time.Time) (*model.PriceSeries, []model.ImbalanceEvent, error) {
	series, err := a.source.Series(ctx, start, end)
	if err != nil {
		return nil, nil, &FetchError{Err: err}
	}
	return series, scanner.ScanBullishImbalances(series.DailyBars), nil
}

// Run fetches, scans and renders both images, returning the report.
func (a *Analyzer) Run(ctx context.Context, start, end time.Time) (*model.Report, error) {
	series, events, err := a.Scan(ctx, start, end)
	if err != nil {
		return nil, err
	}

	var violations []model.Violation
	if a.opts.ValidateOHLC {
		violations = scanner.ValidateBars(series.DailyBars)
		for _, v := range violations {
			a.logger.Warn().
				Int("index", v.Index).
				Time("bar_time", series.DailyBars[v.Index].Time).
				Str("reason", v.Reason).
				Msg("inconsistent OHLC bar")
		}
	}

	if err := a.publish(series, events); err != nil {
		return nil, err
	}

	a.logger.Info().
		Str("symbol", series.Symbol).
		Str("start", start.Format("2006-01-02")).
		Str("end", end.Format("2006-01-02")).
		Int("bars", series.Len()).
		Int("imbalances", len(events)).
		Int("violations", len(violations)).
		Msg("analysis complete")

	return &model.Report{
		Start:      start,
		End:        end,
		Series:     series,
		Events:     events,
		Violations: violations,
		ChartFile:  path.Join("/static", a.opts.ChartFile),
		TableFile:  path.Join("/static", a.opts.TableFile),
		CreatedAt:  time.Now(),
	}, nil
}

// publish writes the chart and the table as one unit so concurrent runs never
// leave one run's chart next to another run's table.
func (a *Analyzer) publish(series *model.PriceSeries, events []model.ImbalanceEvent) error {
	a.publishMu.Lock()
	defer a.publishMu.Unlock()

	chartPath := filepath.Join(a.opts.StaticDir, a.opts.ChartFile)
	if err := a.renderer.RenderCandles(series, events, chartPath); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	tablePath := filepath.Join(a.opts.StaticDir, a.opts.TableFile)
	if err := a.renderer.RenderBottomTable(events, tablePath); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}
