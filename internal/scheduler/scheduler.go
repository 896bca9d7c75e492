package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"NiftyImbalance/internal/model"
)

// Scanner fetches a window and returns its imbalances.
type Scanner interface {
	Scan(ctx context.Context, start, end time.Time) (*model.PriceSeries, []model.ImbalanceEvent, error)
}

// Scheduler manages the cache warm job.
type Scheduler struct {
	Cron         *cron.Cron
	Scanner      Scanner
	LookbackDays int
	Timeout      time.Duration
	Ctx          context.Context

	now    func() time.Time
	logger zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc Scanner, lookbackDays int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Scanner:      sc,
		LookbackDays: lookbackDays,
		Timeout:      time.Minute,
		Ctx:          ctx,
		now:          time.Now,
		logger:       logger.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterWarm registers the warm job under warmCron.
func (s *Scheduler) RegisterWarm(warmCron string) error {
	if _, err := s.Cron.AddFunc(warmCron, s.warmTask); err != nil {
		return fmt.Errorf("register warm task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunWarmNow executes the warm job immediately (WARM_ON_START).
func (s *Scheduler) RunWarmNow() {
	s.warmTask()
}

// warmWindow returns the trailing lookback window ending tomorrow at
// midnight UTC, so today's bar falls inside the exclusive end.
func (s *Scheduler) warmWindow() (start, end time.Time) {
	now := s.now().UTC()
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	start = end.AddDate(0, 0, -s.LookbackDays)
	return start, end
}

func (s *Scheduler) warmTask() {
	start, end := s.warmWindow()
	s.logger.Info().
		Str("start", start.Format("2006-01-02")).
		Str("end", end.Format("2006-01-02")).
		Msg("running warm task")

	ctx, cancel := context.WithTimeout(s.Ctx, s.Timeout)
	defer cancel()

	series, events, err := s.Scanner.Scan(ctx, start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("warm task failed")
		return
	}
	s.logger.Info().
		Int("bars", series.Len()).
		Int("imbalances", len(events)).
		Msg("warm task complete")
}
