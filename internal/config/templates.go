package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Trade Checklist Configuration

[checklist]
# Trading style selected on first run: "day", "swing", "position" or empty
default_style = ""
# Tick computed checks (R:R, gap, position size) when their inputs are filled in
auto_check = true

[risk]
# Calculator ceilings
max_price = 1000000.0
max_account_size = 100000000.0
max_risk_percent = 100.0
# Minimum risk-reward ratio for the R:R check
min_risk_reward = 2.0
# Maximum risk per trade (percent of account) for the position size check
max_position_risk = 2.0

[persistence]
# SQLite database holding checklist state and the trade journal
# (defaults to checklist.db in the config directory)
# db_path = "/path/to/checklist.db"
# Saved checklist state is discarded after this long
expiry = "24h"
# Quiet period before an edit is written to storage
debounce = "500ms"
# Storage quota in bytes (0 disables)
quota_bytes = 5242880

[export]
# Directory for trade-checklist-YYYY-MM-DD exports
dir = "."
# File format: "json" or "yaml"
format = "json"

[log]
level = "info"
console = false
file = true
# file_path = "/path/to/checklist.log"
max_size = 20
max_backups = 5
max_age = 30

[ui]
color_enabled = true
date_format = "2006-01-02 15:04"
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
