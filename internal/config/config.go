// Package config provides configuration management for the checklist tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Checklist   ChecklistConfig   `mapstructure:"checklist"`
	Risk        RiskConfig        `mapstructure:"risk"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Export      ExportConfig      `mapstructure:"export"`
	Log         LogConfig         `mapstructure:"log"`
	UI          UIConfig          `mapstructure:"ui"`
}

// ChecklistConfig holds checklist workflow configuration.
type ChecklistConfig struct {
	DefaultStyle string `mapstructure:"default_style"` // day, swing, position or empty
	AutoCheck    bool   `mapstructure:"auto_check"`
}

// RiskConfig holds calculator ceilings and auto-check thresholds.
type RiskConfig struct {
	MaxPrice        float64 `mapstructure:"max_price"`
	MaxAccountSize  float64 `mapstructure:"max_account_size"`
	MaxRiskPercent  float64 `mapstructure:"max_risk_percent"`
	MinRiskReward   float64 `mapstructure:"min_risk_reward"`
	MaxPositionRisk float64 `mapstructure:"max_position_risk"`
}

// PersistenceConfig holds local storage configuration.
type PersistenceConfig struct {
	DBPath     string        `mapstructure:"db_path"`
	Expiry     time.Duration `mapstructure:"expiry"`
	Debounce   time.Duration `mapstructure:"debounce"`
	QuotaBytes int           `mapstructure:"quota_bytes"` // 0 disables the quota
}

// ExportConfig holds trade record export configuration.
type ExportConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"` // json or yaml
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// UIConfig holds output configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/trade-checklist"
	}
	return filepath.Join(home, ".config", "trade-checklist")
}

// Default returns the built-in configuration rooted at configDir.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	v := viper.New()
	setDefaults(v, configDir)
	cfg := &Config{}
	// Defaults always decode cleanly.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by the template and defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env in the working directory is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("checklist.default_style", "")
	v.SetDefault("checklist.auto_check", true)

	v.SetDefault("risk.max_price", 1_000_000.0)
	v.SetDefault("risk.max_account_size", 100_000_000.0)
	v.SetDefault("risk.max_risk_percent", 100.0)
	v.SetDefault("risk.min_risk_reward", 2.0)
	v.SetDefault("risk.max_position_risk", 2.0)

	v.SetDefault("persistence.db_path", filepath.Join(configDir, "checklist.db"))
	v.SetDefault("persistence.expiry", "24h")
	v.SetDefault("persistence.debounce", "500ms")
	v.SetDefault("persistence.quota_bytes", 5*1024*1024)

	v.SetDefault("export.dir", ".")
	v.SetDefault("export.format", "json")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
	v.SetDefault("log.file", true)
	v.SetDefault("log.file_path", filepath.Join(configDir, "logs", "checklist.log"))
	v.SetDefault("log.max_size", 20)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02 15:04")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHECKLIST_DB_PATH"); v != "" {
		cfg.Persistence.DBPath = v
	}
	if v := os.Getenv("CHECKLIST_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("CHECKLIST_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CHECKLIST_DEFAULT_STYLE"); v != "" {
		cfg.Checklist.DefaultStyle = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Checklist.DefaultStyle {
	case "", "day", "swing", "position":
	default:
		return fmt.Errorf("invalid default_style: %s (must be day, swing or position)", c.Checklist.DefaultStyle)
	}

	if c.Risk.MaxPrice <= 0 {
		return fmt.Errorf("max_price must be positive")
	}
	if c.Risk.MaxAccountSize <= 0 {
		return fmt.Errorf("max_account_size must be positive")
	}
	if c.Risk.MaxRiskPercent <= 0 || c.Risk.MaxRiskPercent > 100 {
		return fmt.Errorf("max_risk_percent must be between 0 and 100")
	}
	if c.Risk.MinRiskReward < 0 {
		return fmt.Errorf("min_risk_reward must be non-negative")
	}
	if c.Risk.MaxPositionRisk <= 0 || c.Risk.MaxPositionRisk > c.Risk.MaxRiskPercent {
		return fmt.Errorf("max_position_risk must be positive and not exceed max_risk_percent")
	}

	switch c.Export.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("invalid export format: %s (must be json or yaml)", c.Export.Format)
	}

	if c.Persistence.Expiry <= 0 {
		return fmt.Errorf("persistence expiry must be positive")
	}
	if c.Persistence.Debounce < 0 {
		return fmt.Errorf("persistence debounce must be non-negative")
	}
	if c.Persistence.QuotaBytes < 0 {
		return fmt.Errorf("quota_bytes must be non-negative")
	}

	return nil
}
