package cli

import (
	"github.com/spf13/cobra"

	"trade-checklist/internal/models"
	"trade-checklist/internal/rules"
)

func addHelpCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newExamplesCmd())
	rootCmd.AddCommand(newStylesCmd())
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "Size a Trade",
					commands: []string{
						"checklist calc size --account 25000 --risk 1 --entry 50 --stop 48",
						"checklist calc rr --entry 50 --stop 48 --target 56",
					},
				},
				{
					title: "Higher Timeframe Trend",
					commands: []string{
						"checklist checklist style swing       # Weekly / Daily / 4 Hour",
						"checklist checklist toggle higher 1   # Higher highs and higher lows",
						"checklist checklist toggle higher above50EMA",
						"checklist checklist advance           # Unlocks once all five pass",
					},
				},
				{
					title: "Mid Timeframe Setup",
					commands: []string{
						"checklist checklist set pattern pullback",
						"checklist checklist set gap 1.2       # Ticks the gap check",
						"checklist checklist set entry 50",
						"checklist checklist set stop 48",
						"checklist checklist set target 56     # Ticks R:R when >= 2:1",
					},
				},
				{
					title: "Lower Timeframe Entry and Decision",
					commands: []string{
						"checklist checklist set account 25000",
						"checklist checklist set risk 1        # Ticks position size",
						"checklist checklist advance final",
						"checklist checklist execute --notes \"retest of breakout\"",
						"checklist journal list",
					},
				},
			}

			for _, ex := range examples {
				output.Printf("%s\n", output.Green(ex.title))
				for _, c := range ex.commands {
					output.Printf("  %s\n", c)
				}
				output.Println()
			}
			return nil
		},
	}
}

func newStylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List trading styles and their timeframes",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			configs := make(map[models.TradingStyle]models.TimeframeConfig)
			for _, style := range models.AllStyles() {
				configs[style] = rules.MustConfigFor(style)
			}
			if output.IsJSON() {
				return output.JSON(configs)
			}

			table := NewTable(output, "Style", "Higher", "Mid", "Lower", "Hold Time", "Trades/Week", "Risk")
			for _, style := range models.AllStyles() {
				cfg := configs[style]
				table.AddRow(
					string(style),
					cfg.Higher.Name,
					cfg.Mid.Name,
					cfg.Lower.Name,
					cfg.HoldTime,
					cfg.TradesPerWeek,
					FormatPercent(cfg.RiskPerTrade),
				)
			}
			table.Render()
			return nil
		},
	}
}
