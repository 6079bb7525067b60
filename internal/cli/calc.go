package cli

import (
	"github.com/spf13/cobra"

	"trade-checklist/internal/calc"
	"trade-checklist/internal/errors"
)

// calcResult mirrors the calculator contract in JSON output.
type calcResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
}

func addCalcCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Position size and risk/reward calculators",
	}

	cmd.AddCommand(newCalcSizeCmd(app))
	cmd.AddCommand(newCalcRRCmd(app))

	rootCmd.AddCommand(cmd)
}

func newCalcSizeCmd(app *App) *cobra.Command {
	var account, risk, entry, stop string

	cmd := &cobra.Command{
		Use:   "size",
		Short: "Calculate position size for a long trade",
		Long: `Calculate how many shares to buy so that a stop-out loses the given
percentage of the account.`,
		Example: `  checklist calc size --account 10000 --risk 1 --entry 50 --stop 48`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			in := calc.PositionInput{}
			err := parseInputs(
				numberInput{calc.FieldAccountSize, account, &in.AccountSize},
				numberInput{calc.FieldRiskPercent, risk, &in.RiskPercent},
				numberInput{calc.FieldEntryPrice, entry, &in.EntryPrice},
				numberInput{calc.FieldStopLoss, stop, &in.StopLoss},
			)
			var result *calc.PositionSize
			if err == nil {
				result, err = app.Limits().PositionSize(in)
			}
			if err != nil {
				return calcFailed(output, err)
			}

			if output.IsJSON() {
				return output.JSON(calcResult{Success: true, Data: result})
			}

			output.Bold("Position Size")
			output.Printf("  Shares:          %s\n", FormatShares(result.Shares))
			output.Printf("  Position Value:  %s\n", FormatCurrency(result.PositionValue))
			output.Printf("  Risk Amount:     %s\n", FormatCurrency(result.RiskAmount))
			output.Printf("  Risk per Share:  %s\n", FormatCurrency(result.RiskPerShare))
			output.Printf("  %% of Account:    %s\n", FormatPercent(result.PercentOfAccount))
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account size")
	cmd.Flags().StringVar(&risk, "risk", "", "risk per trade (% of account)")
	cmd.Flags().StringVar(&entry, "entry", "", "entry price")
	cmd.Flags().StringVar(&stop, "stop", "", "stop loss price")

	return cmd
}

func newCalcRRCmd(app *App) *cobra.Command {
	var entry, stop, target string

	cmd := &cobra.Command{
		Use:   "rr",
		Short: "Calculate risk/reward ratio",
		Example: `  checklist calc rr --entry 50 --stop 48 --target 56
  checklist calc rr --entry 50 --stop 52 --target 44`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			in := calc.RiskRewardInput{}
			err := parseInputs(
				numberInput{calc.FieldEntryPrice, entry, &in.EntryPrice},
				numberInput{calc.FieldStopLoss, stop, &in.StopLoss},
				numberInput{calc.FieldTargetPrice, target, &in.TargetPrice},
			)
			var result *calc.RiskReward
			if err == nil {
				result, err = app.Limits().RiskReward(in)
			}
			if err != nil {
				return calcFailed(output, err)
			}

			if output.IsJSON() {
				return output.JSON(calcResult{Success: true, Data: result})
			}

			output.Bold("Risk/Reward")
			output.Printf("  Position:        %s\n", result.PositionType)
			output.Printf("  Risk per Share:  %s\n", FormatCurrency(result.RiskPerShare))
			output.Printf("  Reward per Share: %s\n", FormatCurrency(result.RewardPerShare))
			ratio := FormatRiskReward(result.RRRatio)
			if result.IsValidTrade {
				output.Printf("  Ratio:           %s\n", output.Green(ratio))
			} else {
				output.Printf("  Ratio:           %s %s\n", output.Red(ratio), output.DimText("(reward below risk)"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&entry, "entry", "", "entry price")
	cmd.Flags().StringVar(&stop, "stop", "", "stop loss price")
	cmd.Flags().StringVar(&target, "target", "", "target price")

	return cmd
}

type numberInput struct {
	field string
	raw   string
	dest  *float64
}

// parseInputs parses every field and returns the first input error.
func parseInputs(inputs ...numberInput) error {
	for _, in := range inputs {
		v, err := calc.ParseNumber(in.field, in.raw)
		if err != nil {
			return err
		}
		*in.dest = v
	}
	return nil
}

// calcFailed renders a calculator error. Single-field errors are shown
// against their field; relationship errors get a summary line.
func calcFailed(output *Output, err error) error {
	field := errors.FieldOf(err)
	if output.IsJSON() {
		if jsonErr := output.JSON(calcResult{Success: false, Error: err.Error(), Field: field}); jsonErr != nil {
			return jsonErr
		}
		return err
	}

	var relErr *errors.RelationshipError
	if errors.As(err, &relErr) {
		output.Error("✗ %s", relErr.Message)
		output.Dim("  Check: %v", relErr.Fields)
		return err
	}
	output.FieldError(field, err)
	return err
}
