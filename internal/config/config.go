// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger"`
	Browser BrowserConfig `mapstructure:"browser"`
	Site    SiteConfig    `mapstructure:"site"`
	Pacing  PacingConfig  `mapstructure:"pacing"`
	Harvest HarvestConfig `mapstructure:"harvest"`
}

// LoggerConfig controls the zap logger and the rotating log file sink.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	LogFile     string `mapstructure:"file"`
	MaxSize     int    `mapstructure:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	Compress    bool   `mapstructure:"compress"`
	AddSource   bool   `mapstructure:"add_source"`
	ServiceName string `mapstructure:"service_name"`
}

// BrowserConfig controls the headless Chrome process owned by a session.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless"`
	// ExecPath overrides the Chrome binary location. Empty means auto-detect.
	ExecPath          string        `mapstructure:"exec_path"`
	WindowWidth       int           `mapstructure:"window_width"`
	WindowHeight      int           `mapstructure:"window_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout"`
}

// SiteConfig holds the forum endpoints.
type SiteConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	LoginURL string `mapstructure:"login_url"`
}

// PacingConfig holds the fixed inter-action delays. The target site
// rate-limits, so these are minimum spacings, not tunables to zero out.
type PacingConfig struct {
	LoginSettle  time.Duration `mapstructure:"login_settle"`
	PageSettle   time.Duration `mapstructure:"page_settle"`
	ActionDelay  time.Duration `mapstructure:"action_delay"`
	DialogSettle time.Duration `mapstructure:"dialog_settle"`
	SearchDelay  time.Duration `mapstructure:"search_delay"`
}

// HarvestConfig holds the bounded waits used by the image harvest worker.
type HarvestConfig struct {
	ContentTimeout time.Duration `mapstructure:"content_timeout"`
	ImageTimeout   time.Duration `mapstructure:"image_timeout"`
}

// SetDefaults registers the default values for every key on the given viper
// instance. Callers must invoke this before Load so that a missing config
// file still yields a usable configuration.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.file", "logs/orbi-cli.log")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 7)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "orbi-cli")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.action_timeout", "30s")

	v.SetDefault("site.base_url", "https://orbi.kr")
	v.SetDefault("site.login_url", "https://login.orbi.kr/login")

	v.SetDefault("pacing.login_settle", "3s")
	v.SetDefault("pacing.page_settle", "2s")
	v.SetDefault("pacing.action_delay", "2s")
	v.SetDefault("pacing.dialog_settle", "1s")
	v.SetDefault("pacing.search_delay", "1s")

	v.SetDefault("harvest.content_timeout", "10s")
	v.SetDefault("harvest.image_timeout", "5s")
}

// Load applies defaults and unmarshals the viper state into a Config.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
