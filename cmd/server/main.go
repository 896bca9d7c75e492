package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"NiftyImbalance/internal/analyzer"
	"NiftyImbalance/internal/cache"
	"NiftyImbalance/internal/chart"
	"NiftyImbalance/internal/collector"
	"NiftyImbalance/internal/config"
	"NiftyImbalance/internal/scheduler"
	"NiftyImbalance/internal/server"
)

func main() {
	_ = godotenv.Load() // best-effort: .env is optional

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.LogLevel)
	defStart, defEnd := cfg.DefaultRange()
	logger.Info().
		Str("config", cfgPath).
		Str("default_start", defStart.Format(config.DateLayout)).
		Str("default_end", defEnd.Format(config.DateLayout)).
		Msg("NiftyImbalance starting")

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewBarsAPIFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}

	// Init cache
	var bc cache.BarCache = cache.NewNoopCache()
	cacheEnabled := false
	if cfg.Cache.SQLitePath != "" {
		sc, err := cache.NewSQLiteCache(cfg.Cache.SQLitePath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("init sqlite cache failed, using noop")
		} else {
			bc = sc
			cacheEnabled = true
			if _, err := sc.LogRecentWindows(cfg.DataSource.Symbol, 5); err != nil {
				logger.Warn().Err(err).Msg("list cached windows failed")
			}
		}
	}
	defer bc.Close()
	if cacheEnabled {
		fetcher = collector.NewCachingFetcher(fetcher, bc, cfg.CacheTTL(), logger)
	}
	logger.Info().Str("source", fetcher.Name()).Msg("data source ready")

	col := collector.NewCollector(fetcher, cfg.DataSource.Symbol, logger)
	renderer := chart.NewRenderer(cfg.Chart.Title, cfg.Chart.WidthIn, cfg.Chart.HeightIn)
	an := analyzer.New(col, renderer, analyzer.Options{
		StaticDir:    cfg.Server.StaticDir,
		ChartFile:    cfg.Server.ChartFile,
		TableFile:    cfg.Server.TableFile,
		ValidateOHLC: cfg.ValidateOHLC(),
	}, logger)

	if err := os.MkdirAll(cfg.Server.StaticDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create static dir")
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(an, server.Options{
		StaticDir:    cfg.Server.StaticDir,
		TemplateDir:  cfg.Server.TemplateDir,
		DefaultStart: cfg.DataSource.DefaultStart,
		DefaultEnd:   cfg.DataSource.DefaultEnd,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	if cfg.Schedule.WarmCron != "" && cacheEnabled {
		sched := scheduler.NewScheduler(ctx, an, cfg.Schedule.WarmLookbackDays, logger)
		if err := sched.RegisterWarm(cfg.Schedule.WarmCron); err != nil {
			logger.Fatal().Err(err).Msg("register cron tasks")
		}
		sched.Start()
		defer sched.Stop()

		if os.Getenv("WARM_ON_START") == "true" {
			logger.Info().Msg("WARM_ON_START enabled, executing warm task now")
			go sched.RunWarmNow()
		}
	} else if cfg.Schedule.WarmCron != "" {
		logger.Warn().Msg("schedule.warm_cron set but cache disabled, warm job not started")
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server failed")
			cancel()
		}
		close(done)
	}()

	// Wait for shutdown signal or server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Info().Msg("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	shutdownHTTP(httpSrv, 8*time.Second, logger)
	cancel()
	<-done
	logger.Info().Msg("NiftyImbalance stopped")
}

// shutdownHTTP drains in-flight requests for up to timeout.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown")
		return err
	}
	return nil
}
