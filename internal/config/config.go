package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported provider names.
const (
	ProviderAlphaVantage = "alphavantage"
	ProviderMock         = "mock"
)

// Config holds all application configuration.
type Config struct {
	Provider struct {
		Name    string        `yaml:"name"`
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"provider"`
	Dispatcher struct {
		MinInterval time.Duration `yaml:"min_interval"`
		JobTimeout  time.Duration `yaml:"job_timeout"` // negative disables
	} `yaml:"dispatcher"`
	Cache struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Insights struct {
		DeadZone        *float64 `yaml:"dead_zone"`
		IncludeOverview *bool    `yaml:"include_overview"`
	} `yaml:"insights"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Server struct {
		Addr          string  `yaml:"addr"`
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
	} `yaml:"server"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		DigestCron  string `yaml:"digest_cron"`
		CalendarMIC string `yaml:"calendar_mic"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
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
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("DISPATCH_MIN_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse DISPATCH_MIN_INTERVAL: %w", err)
		}
		cfg.Dispatcher.MinInterval = d
	}
	if v := os.Getenv("TREND_DEAD_ZONE"); v != "" {
		dz, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse TREND_DEAD_ZONE: %w", err)
		}
		cfg.Insights.DeadZone = &dz
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("CRON_DIGEST"); v != "" {
		cfg.Schedule.DigestCron = v
	}

	// Defaults
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = ProviderAlphaVantage
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "https://www.alphavantage.co/query"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 15 * time.Second
	}
	if cfg.Dispatcher.MinInterval == 0 {
		cfg.Dispatcher.MinInterval = 12 * time.Second
	}
	if cfg.Dispatcher.JobTimeout == 0 {
		cfg.Dispatcher.JobTimeout = 30 * time.Second
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 24 * time.Hour
	}
	if cfg.Insights.DeadZone == nil {
		dz := 0.5
		cfg.Insights.DeadZone = &dz
	}
	if cfg.Insights.IncludeOverview == nil {
		on := true
		cfg.Insights.IncludeOverview = &on
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "data/stocklens.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RatePerSecond == 0 {
		cfg.Server.RatePerSecond = 10
	}
	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = 20
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 30 16 * * 1-5"
	}
	if cfg.Schedule.DigestCron == "" {
		cfg.Schedule.DigestCron = "0 0 17 * * 1-5"
	}
	if cfg.Schedule.CalendarMIC == "" {
		cfg.Schedule.CalendarMIC = "xnys"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// TrendDeadZone returns the flat band in percent. Zero means no band.
func (c *Config) TrendDeadZone() float64 {
	if c.Insights.DeadZone == nil {
		return 0.5
	}
	return *c.Insights.DeadZone
}

// JobTimeout returns the per-job provider timeout. Zero means none.
func (c *Config) JobTimeout() time.Duration {
	if c.Dispatcher.JobTimeout < 0 {
		return 0
	}
	return c.Dispatcher.JobTimeout
}

// OverviewEnabled reports whether insights include company overview data.
func (c *Config) OverviewEnabled() bool {
	return c.Insights.IncludeOverview == nil || *c.Insights.IncludeOverview
}

// TelegramEnabled reports whether a bot token is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case ProviderAlphaVantage:
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider.api_key is required for %s", ProviderAlphaVantage)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("provider.name %q is not supported", c.Provider.Name)
	}
	if c.Dispatcher.MinInterval < 0 {
		return fmt.Errorf("dispatcher.min_interval must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.TrendDeadZone() < 0 {
		return fmt.Errorf("insights.dead_zone must not be negative")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.TelegramEnabled() && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}
