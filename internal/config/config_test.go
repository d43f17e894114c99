// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "logs/orbi-cli.log", cfg.Logger.LogFile)
	assert.Equal(t, "orbi-cli", cfg.Logger.ServiceName)

	assert.True(t, cfg.Browser.Headless)
	assert.Empty(t, cfg.Browser.ExecPath)
	assert.Equal(t, 1920, cfg.Browser.WindowWidth)
	assert.Equal(t, 1080, cfg.Browser.WindowHeight)
	assert.Equal(t, 60*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 30*time.Second, cfg.Browser.ActionTimeout)

	assert.Equal(t, "https://orbi.kr", cfg.Site.BaseURL)
	assert.Equal(t, "https://login.orbi.kr/login", cfg.Site.LoginURL)

	assert.Equal(t, 3*time.Second, cfg.Pacing.LoginSettle)
	assert.Equal(t, 2*time.Second, cfg.Pacing.PageSettle)
	assert.Equal(t, 2*time.Second, cfg.Pacing.ActionDelay)
	assert.Equal(t, time.Second, cfg.Pacing.DialogSettle)
	assert.Equal(t, time.Second, cfg.Pacing.SearchDelay)

	assert.Equal(t, 10*time.Second, cfg.Harvest.ContentTimeout)
	assert.Equal(t, 5*time.Second, cfg.Harvest.ImageTimeout)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("browser.headless", false)
	v.Set("browser.exec_path", "/usr/bin/chromium")
	v.Set("pacing.login_settle", "5s")
	v.Set("site.base_url", "https://example.test")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "/usr/bin/chromium", cfg.Browser.ExecPath)
	assert.Equal(t, 5*time.Second, cfg.Pacing.LoginSettle)
	assert.Equal(t, "https://example.test", cfg.Site.BaseURL)
}
