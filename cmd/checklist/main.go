// Command checklist runs the multi-timeframe trade entry checklist.
package main

import (
	"fmt"
	"os"

	"trade-checklist/internal/cli"
	"trade-checklist/internal/config"
)

func main() {
	cfg, err := config.Load(os.Getenv("CHECKLIST_CONFIG_DIR"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := cli.NewLogger(cfg)
	logger.Debug().Msg("Starting trade checklist")

	if err := cli.NewRootCmd(cfg, logger).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
