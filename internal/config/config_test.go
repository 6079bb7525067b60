package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WritesTemplateOnFirstRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "trade-checklist")

	cfg, err := Load(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "checklist.db"), cfg.Persistence.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.Persistence.Expiry)
	assert.Equal(t, 500*time.Millisecond, cfg.Persistence.Debounce)
	assert.Equal(t, 2.0, cfg.Risk.MinRiskReward)
	assert.Equal(t, "json", cfg.Export.Format)
	assert.True(t, cfg.Checklist.AutoCheck)

	// The written template loads to the same values.
	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	toml := `
[checklist]
default_style = "swing"
auto_check = false

[risk]
max_position_risk = 1.5

[persistence]
expiry = "12h"
debounce = "250ms"

[export]
format = "yaml"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "swing", cfg.Checklist.DefaultStyle)
	assert.False(t, cfg.Checklist.AutoCheck)
	assert.Equal(t, 1.5, cfg.Risk.MaxPositionRisk)
	assert.Equal(t, 12*time.Hour, cfg.Persistence.Expiry)
	assert.Equal(t, 250*time.Millisecond, cfg.Persistence.Debounce)
	assert.Equal(t, "yaml", cfg.Export.Format)
	// Unset keys keep their defaults.
	assert.Equal(t, 1_000_000.0, cfg.Risk.MaxPrice)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHECKLIST_DB_PATH", "/tmp/other.db")
	t.Setenv("CHECKLIST_DEFAULT_STYLE", "day")
	t.Setenv("CHECKLIST_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.Persistence.DBPath)
	assert.Equal(t, "day", cfg.Checklist.DefaultStyle)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[checklist]\ndefault_style = \"scalp\"\n"), 0644))

	_, err := Load(dir)
	assert.ErrorContains(t, err, "default_style")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown style", func(c *Config) { c.Checklist.DefaultStyle = "scalp" }, "default_style"},
		{"zero max price", func(c *Config) { c.Risk.MaxPrice = 0 }, "max_price"},
		{"zero account ceiling", func(c *Config) { c.Risk.MaxAccountSize = 0 }, "max_account_size"},
		{"risk over 100", func(c *Config) { c.Risk.MaxRiskPercent = 101 }, "max_risk_percent"},
		{"negative min rr", func(c *Config) { c.Risk.MinRiskReward = -1 }, "min_risk_reward"},
		{"position risk over ceiling", func(c *Config) { c.Risk.MaxPositionRisk = 150 }, "max_position_risk"},
		{"bad export format", func(c *Config) { c.Export.Format = "csv" }, "export format"},
		{"zero expiry", func(c *Config) { c.Persistence.Expiry = 0 }, "expiry"},
		{"negative debounce", func(c *Config) { c.Persistence.Debounce = -time.Second }, "debounce"},
		{"negative quota", func(c *Config) { c.Persistence.QuotaBytes = -1 }, "quota_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
