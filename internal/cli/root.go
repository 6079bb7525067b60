// Package cli provides the command-line interface for the trade checklist.
package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trade-checklist/internal/calc"
	"trade-checklist/internal/checklist"
	"trade-checklist/internal/config"
	"trade-checklist/internal/logging"
	"trade-checklist/internal/models"
	"trade-checklist/internal/store"
	"trade-checklist/pkg/utils"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies. The store and session are opened
// by the first command that needs them.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Store     store.DataStore
	Session   *checklist.Session
}

// NewLogger builds the application logger from configuration.
func NewLogger(cfg *config.Config) zerolog.Logger {
	return logging.NewLoggerWithConfig(logging.LogConfig{
		Level:      cfg.Log.Level,
		Console:    cfg.Log.Console,
		File:       cfg.Log.File,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	})
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:    cfg,
		ConfigDir: config.DefaultConfigDir(),
		Logger:    logger,
	}

	rootCmd := &cobra.Command{
		Use:   "checklist",
		Short: "Multi-timeframe trade entry checklist",
		Long: `Trade Checklist walks a discretionary trade through three timeframes
before entry: trend on the higher timeframe, setup on the middle one and
the entry trigger on the lower one.

Progress is saved locally between commands and expires after a day.
Use 'checklist status' to see where you are.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("config"); dir != "" {
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
				app.ConfigDir = dir
				app.Logger = NewLogger(loaded)
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trade-checklist)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", !cfg.UI.ColorEnabled, "disable colored output")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	addCalcCommands(rootCmd, app)
	addChecklistCommands(rootCmd, app)
	addJournalCommands(rootCmd, app)
	addHelpCommands(rootCmd)

	closeAfterRun(rootCmd, app)
	return rootCmd
}

// closeAfterRun makes every command release the store when it finishes,
// whether or not it succeeded.
func closeAfterRun(cmd *cobra.Command, app *App) {
	for _, sub := range cmd.Commands() {
		closeAfterRun(sub, app)
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if closeErr := app.Close(); err == nil {
			err = closeErr
		}
		return err
	}
}

// OpenStore opens the SQLite store, falling back to an in-memory store when
// the database cannot be opened.
func (a *App) OpenStore(ctx context.Context) store.DataStore {
	if a.Store != nil {
		return a.Store
	}

	dbPath := a.Config.Persistence.DBPath
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to create data directory")
	}

	// Another checklist process may hold the lock briefly.
	retry := utils.DefaultRetryConfig()
	retry.Retryable = store.IsBusy
	dataStore, err := utils.RetryWithResult(ctx, retry, func() (*store.SQLiteStore, error) {
		return store.NewSQLiteStore(dbPath, a.Config.Persistence.QuotaBytes)
	})
	if err != nil {
		a.Logger.Warn().Err(err).Str("path", dbPath).Msg("Failed to initialize store, progress will not be kept")
		a.Store = store.NewMemoryStore(a.Config.Persistence.QuotaBytes)
		return a.Store
	}

	a.Logger.Debug().Str("path", dbPath).Msg("SQLite store initialized")
	a.Store = dataStore
	return a.Store
}

// OpenSession opens the checklist session and restores saved progress.
func (a *App) OpenSession(ctx context.Context, output *Output) *checklist.Session {
	if a.Session != nil {
		return a.Session
	}

	style, _ := models.ParseTradingStyle(a.Config.Checklist.DefaultStyle)
	sessionCfg := checklist.SessionConfig{
		Options: checklist.Options{
			AutoCheck:       a.Config.Checklist.AutoCheck,
			MinRiskReward:   a.Config.Risk.MinRiskReward,
			MaxPositionRisk: a.Config.Risk.MaxPositionRisk,
			Limits:          a.Limits(),
		},
		Expiry:       a.Config.Persistence.Expiry,
		Debounce:     a.Config.Persistence.Debounce,
		DefaultStyle: style,
	}

	a.Session = checklist.NewSession(a.OpenStore(ctx), sessionCfg, a.Logger)
	a.Session.OnStorageError(func(err error) {
		output.Warning("⚠ Progress could not be saved: %v", err)
	})
	a.Session.Start(ctx)
	return a.Session
}

// Limits returns the calculator ceilings from configuration.
func (a *App) Limits() calc.Limits {
	return calc.Limits{
		MaxPrice:       a.Config.Risk.MaxPrice,
		MaxAccountSize: a.Config.Risk.MaxAccountSize,
		MaxRiskPercent: a.Config.Risk.MaxRiskPercent,
	}
}

// Close flushes pending saves and closes the store.
func (a *App) Close() error {
	if a.Session != nil {
		a.Session.Close()
		a.Session = nil
	}
	if a.Store != nil {
		err := a.Store.Close()
		a.Store = nil
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Trade Checklist v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.ConfigDir})
			} else {
				output.Println(app.ConfigDir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Checklist")
	defaultStyle := cfg.Checklist.DefaultStyle
	if defaultStyle == "" {
		defaultStyle = "(ask)"
	}
	output.Printf("  Default Style:     %s\n", defaultStyle)
	output.Printf("  Auto Check:        %v\n", cfg.Checklist.AutoCheck)
	output.Println()

	output.Bold("Risk")
	output.Printf("  Max Price:         %s\n", FormatCurrency(cfg.Risk.MaxPrice))
	output.Printf("  Max Account Size:  %s\n", FormatCurrency(cfg.Risk.MaxAccountSize))
	output.Printf("  Max Risk:          %s\n", FormatPercent(cfg.Risk.MaxRiskPercent))
	output.Printf("  Min Risk/Reward:   %s\n", FormatRiskReward(cfg.Risk.MinRiskReward))
	output.Printf("  Max Position Risk: %s\n", FormatPercent(cfg.Risk.MaxPositionRisk))
	output.Println()

	output.Bold("Persistence")
	output.Printf("  Database:          %s\n", cfg.Persistence.DBPath)
	output.Printf("  Expiry:            %s\n", FormatDuration(cfg.Persistence.Expiry))
	output.Printf("  Debounce:          %s\n", cfg.Persistence.Debounce)
	output.Printf("  Quota:             %d bytes\n", cfg.Persistence.QuotaBytes)
	output.Println()

	output.Bold("Export")
	output.Printf("  Directory:         %s\n", cfg.Export.Dir)
	output.Printf("  Format:            %s\n", cfg.Export.Format)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:             %s\n", cfg.Log.Level)
	output.Printf("  File:              %v (%s)\n", cfg.Log.File, cfg.Log.FilePath)
}
