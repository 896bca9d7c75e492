package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DateLayout is the layout of every date accepted from config and forms.
const DateLayout = "2006-01-02"

// CronParser parses the six-field (with seconds) specs used by the scheduler.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port        int    `yaml:"port"`
		StaticDir   string `yaml:"static_dir"`
		TemplateDir string `yaml:"template_dir"`
		ChartFile   string `yaml:"chart_file"`
		TableFile   string `yaml:"table_file"`
	} `yaml:"server"`
	DataSource struct {
		BaseURL      string `yaml:"base_url"`
		APIKey       string `yaml:"api_key"`
		Symbol       string `yaml:"symbol"`
		DefaultStart string `yaml:"default_start"`
		DefaultEnd   string `yaml:"default_end"`
	} `yaml:"data_source"`
	Chart struct {
		Title    string  `yaml:"title"`
		WidthIn  float64 `yaml:"width_in"`
		HeightIn float64 `yaml:"height_in"`
	} `yaml:"chart"`
	Scanner struct {
		ValidateOHLC *bool `yaml:"validate_ohlc"`
	} `yaml:"scanner"`
	Cache struct {
		SQLitePath string `yaml:"sqlite_path"`
		TTL        string `yaml:"ttl"`
	} `yaml:"cache"`
	Schedule struct {
		WarmCron         string `yaml:"warm_cron"`
		WarmLookbackDays int    `yaml:"warm_lookback_days"`
	} `yaml:"schedule"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Cache.SQLitePath = v
	}
	if v := os.Getenv("CRON_WARM"); v != "" {
		cfg.Schedule.WarmCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// Defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5001
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "static"
	}
	if cfg.Server.ChartFile == "" {
		cfg.Server.ChartFile = "nifty_candlestick_chart.png"
	}
	if cfg.Server.TableFile == "" {
		cfg.Server.TableFile = "table.png"
	}
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "NIFTY"
	}
	if cfg.DataSource.DefaultStart == "" {
		cfg.DataSource.DefaultStart = "2023-01-01"
	}
	if cfg.DataSource.DefaultEnd == "" {
		cfg.DataSource.DefaultEnd = "2023-09-30"
	}
	if cfg.Chart.Title == "" {
		cfg.Chart.Title = "Nifty Candlestick Chart with Bullish Volume Imbalance"
	}
	if cfg.Chart.WidthIn == 0 {
		cfg.Chart.WidthIn = 12
	}
	if cfg.Chart.HeightIn == 0 {
		cfg.Chart.HeightIn = 7
	}
	if cfg.Scanner.ValidateOHLC == nil {
		on := true
		cfg.Scanner.ValidateOHLC = &on
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = "12h"
	}
	if cfg.Schedule.WarmLookbackDays == 0 {
		cfg.Schedule.WarmLookbackDays = 365
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	start, err := time.Parse(DateLayout, c.DataSource.DefaultStart)
	if err != nil {
		return fmt.Errorf("data_source.default_start: %w", err)
	}
	end, err := time.Parse(DateLayout, c.DataSource.DefaultEnd)
	if err != nil {
		return fmt.Errorf("data_source.default_end: %w", err)
	}
	if !start.Before(end) {
		return fmt.Errorf("data_source.default_start must be before default_end")
	}
	if c.Chart.WidthIn <= 0 || c.Chart.HeightIn <= 0 {
		return fmt.Errorf("chart.width_in and chart.height_in must be positive")
	}
	if ttl, err := time.ParseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	} else if ttl <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Schedule.WarmCron != "" {
		if _, err := CronParser.Parse(c.Schedule.WarmCron); err != nil {
			return fmt.Errorf("schedule.warm_cron: %w", err)
		}
	}
	if c.Schedule.WarmLookbackDays < 3 {
		return fmt.Errorf("schedule.warm_lookback_days must be at least 3")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// CacheTTL returns the parsed cache.ttl. Call after Validate.
func (c *Config) CacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.TTL)
	return d
}

// DefaultRange returns the parsed default date window. Call after Validate.
func (c *Config) DefaultRange() (start, end time.Time) {
	start, _ = time.Parse(DateLayout, c.DataSource.DefaultStart)
	end, _ = time.Parse(DateLayout, c.DataSource.DefaultEnd)
	return start, end
}

// ValidateOHLC reports whether the OHLC consistency pass is enabled.
func (c *Config) ValidateOHLC() bool {
	return c.Scanner.ValidateOHLC == nil || *c.Scanner.ValidateOHLC
}
