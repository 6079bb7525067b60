package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trade-checklist/internal/checklist"
	"trade-checklist/internal/export"
	"trade-checklist/internal/models"
)

// statusView is the JSON form of the checklist status.
type statusView struct {
	State          models.ChecklistState                    `json:"state"`
	Results        map[models.Stage]models.ValidationResult `json:"results"`
	Unlocked       map[models.Step]bool                     `json:"unlocked"`
	Recommendation *models.Recommendation                   `json:"recommendation,omitempty"`
	LastSaved      *time.Time                               `json:"lastSaved,omitempty"`
}

var stepOrder = []models.Step{
	models.StepStyleSelection,
	models.StepHigher,
	models.StepMid,
	models.StepLower,
	models.StepFinal,
}

func addChecklistCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "checklist",
		Aliases: []string{"cl"},
		Short:   "Work through the multi-timeframe entry checklist",
	}

	cmd.AddCommand(newChecklistStatusCmd(app))
	cmd.AddCommand(newChecklistStyleCmd(app))
	cmd.AddCommand(newChecklistToggleCmd(app))
	cmd.AddCommand(newChecklistSetCmd(app))
	cmd.AddCommand(newChecklistAdvanceCmd(app))
	cmd.AddCommand(newChecklistBackCmd(app))
	cmd.AddCommand(newChecklistResetCmd(app))
	cmd.AddCommand(newChecklistRestartCmd(app))
	cmd.AddCommand(newChecklistExecuteCmd(app))
	cmd.AddCommand(newChecklistPassCmd(app))
	cmd.AddCommand(newChecklistExportCmd(app))

	rootCmd.AddCommand(cmd)
}

func newChecklistStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current checklist",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := context.Background()
			session := app.OpenSession(ctx, output)
			return renderStatus(ctx, output, session)
		},
	}
}

func newChecklistStyleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "style <day|swing|position>",
		Short:     "Select a trading style and start a new checklist",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"day", "swing", "position"},
		RunE: func(cmd *cobra.Command, args []string) error {
			style, ok := models.ParseTradingStyle(args[0])
			if !ok {
				return fmt.Errorf("unknown trading style %q (use day, swing or position)", args[0])
			}
			return runAction(cmd, app, checklist.SelectStyle{Style: style})
		},
	}
}

func newChecklistToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <higher|mid|lower> <check>",
		Short: "Tick or untick a check",
		Long: `Tick or untick a check. The check is named by its id or by its
position in 'checklist status' (1-based).`,
		Example: `  checklist toggle higher above50EMA
  checklist toggle mid 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage := models.Stage(strings.ToLower(args[0]))
			if !stage.Valid() {
				return fmt.Errorf("unknown stage %q (use higher, mid or lower)", args[0])
			}
			id, err := parseCheck(stage, args[1])
			if err != nil {
				return err
			}
			return runAction(cmd, app, checklist.ToggleCheck{Stage: stage, Check: id})
		},
	}
}

func newChecklistSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <field> <value>",
		Short: "Set a price, gap, pattern or position sizing field",
		Long: `Set an input field. Computed checks are ticked automatically when
auto_check is enabled.

Mid timeframe:   entry, stop, target, gap, pattern (breakout|pullback)
Lower timeframe: account, risk, lower-entry, lower-stop`,
		Example: `  checklist set entry 50
  checklist set gap 1.2
  checklist set risk 1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := parseSetAction(args[0], args[1])
			if err != nil {
				return err
			}
			return runAction(cmd, app, action)
		},
	}
}

func newChecklistAdvanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "advance [step]",
		Short: "Move forward to the next unlocked step",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			session := app.OpenSession(context.Background(), output)

			to := nextStep(session.State().CurrentStep)
			if len(args) == 1 {
				to = models.Step(args[0])
			}
			return runAction(cmd, app, checklist.Advance{To: to})
		},
	}
}

func newChecklistBackCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "back [step]",
		Short: "Return to an earlier stage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			session := app.OpenSession(context.Background(), output)

			to := previousStep(session.State().CurrentStep)
			if len(args) == 1 {
				to = models.Step(args[0])
			}
			return runAction(cmd, app, checklist.Retreat{To: to})
		},
	}
}

func newChecklistResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all checks and keep the trading style",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, app, checklist.ResetChecklist{})
		},
	}
}

func newChecklistRestartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Clear everything and choose a trading style again",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, app, checklist.ResetToStyleSelection{})
		},
	}
}

func newChecklistExecuteCmd(app *App) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Record a decision to take the trade",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			session := app.OpenSession(context.Background(), output)
			entry, err := session.Execute(context.Background(), notes)
			return renderDecision(output, entry, err)
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "notes for the journal")
	return cmd
}

func newChecklistPassCmd(app *App) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "pass",
		Short: "Record a decision to skip the trade",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			session := app.OpenSession(context.Background(), output)
			entry, err := session.Pass(context.Background(), reason)
			return renderDecision(output, entry, err)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the trade was skipped")
	return cmd
}

func newChecklistExportCmd(app *App) *cobra.Command {
	var dir, formatName string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the checklist as a trade record file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			session := app.OpenSession(context.Background(), output)

			if dir == "" {
				dir = app.Config.Export.Dir
			}
			if formatName == "" {
				formatName = app.Config.Export.Format
			}
			format, err := export.ParseFormat(formatName)
			if err != nil {
				output.Error("✗ %v", err)
				return err
			}
			path, err := export.WriteFormat(dir, session.State(), time.Now(), format)
			if err != nil {
				output.Error("Export failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Success("✓ Exported to %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default from config)")
	cmd.Flags().StringVar(&formatName, "format", "", "file format: json or yaml (default from config)")
	return cmd
}

// runAction dispatches an action and shows the resulting status.
func runAction(cmd *cobra.Command, app *App, action checklist.Action) error {
	output := NewOutput(cmd)
	ctx := context.Background()
	session := app.OpenSession(ctx, output)

	if err := session.Dispatch(ctx, action); err != nil {
		output.Error("✗ %v", err)
		return err
	}
	return renderStatus(ctx, output, session)
}

func renderDecision(output *Output, entry *models.JournalEntry, err error) error {
	if err != nil {
		output.Error("✗ %v", err)
		return err
	}
	if output.IsJSON() {
		return output.JSON(entry)
	}

	if entry.Action == models.DecisionExecute {
		output.Success("✓ Trade executed at %d%% size (%s)", entry.PositionSize, entry.Status)
	} else {
		output.Warning("Trade passed (%s)", entry.Status)
	}
	output.Dim("Journal entry %s", entry.ID)
	output.Dim("Checklist reset for the next %s trade.", entry.Style)
	return nil
}

func renderStatus(ctx context.Context, output *Output, session *checklist.Session) error {
	state := session.State()
	rec, hasRec := session.Recommendation()

	if output.IsJSON() {
		view := statusView{
			State:    state,
			Results:  make(map[models.Stage]models.ValidationResult),
			Unlocked: make(map[models.Step]bool),
		}
		for _, stage := range models.AllStages() {
			if r, ok := session.Result(stage); ok {
				view.Results[stage] = r
			}
		}
		for _, step := range stepOrder {
			view.Unlocked[step] = session.Unlocked(step)
		}
		if hasRec {
			view.Recommendation = &rec
		}
		if saved, ok := session.Adapter().LastSaveTime(ctx); ok {
			view.LastSaved = &saved
		}
		return output.JSON(view)
	}

	if !state.HasStyle() {
		output.Info("No trading style selected.")
		output.Dim("Run 'checklist style <day|swing|position>' to start.")
		return nil
	}

	cfg := state.TimeframeConfig
	output.Bold("%s trading: %s → %s → %s", capitalize(string(state.TradingStyle)), cfg.Higher.Name, cfg.Mid.Name, cfg.Lower.Name)
	output.Dim("Hold time %s, %s trades/week, risk %.1f%% per trade", cfg.HoldTime, cfg.TradesPerWeek, cfg.RiskPerTrade)
	output.Println()

	for _, stage := range models.AllStages() {
		renderStage(output, session, &state, stage)
	}

	if state.CurrentStep == models.StepFinal && hasRec {
		output.Printf("Recommendation: %s\n", output.Recommendation(rec))
		output.Dim("  %s", rec.Reason)
		output.Println()
	}

	if saved, ok := session.Adapter().LastSaveTime(ctx); ok {
		output.Dim("Saved %s ago", FormatDuration(time.Since(saved)))
	}
	return nil
}

func renderStage(output *Output, session *checklist.Session, state *models.ChecklistState, stage models.Stage) {
	tf := state.TimeframeConfig.ForStage(stage)
	marker := "  "
	if state.CurrentStep == stage.Step() {
		marker = "▸ "
	}

	locked := !session.Unlocked(stage.Step())
	header := fmt.Sprintf("%s%s (%s)", marker, capitalize(string(stage)), tf.Name)
	if locked {
		output.Printf("%s %s\n", output.DimText(header), output.DimText("locked"))
		return
	}
	output.Printf("%s\n", header)

	for i, f := range state.Flags(stage) {
		output.Printf("    %d. %s %s %s\n", i+1, output.Mark(f.Passed), f.Label, output.DimText(string(f.ID)))
	}

	switch stage {
	case models.StageMid:
		p := state.MidTF.Prices
		output.Printf("    pattern %s  gap %s  entry %s  stop %s  target %s\n",
			state.MidTF.PatternType, orDash(state.MidTF.GapPercentage), orDash(p.Entry), orDash(p.Stop), orDash(p.Target))
	case models.StageLower:
		d := state.LowerTF.PositionData
		output.Printf("    account %s  risk %s  entry %s  stop %s\n",
			orDash(d.AccountSize), orDash(d.RiskPercent), orDash(d.Entry), orDash(d.Stop))
	}

	if r, ok := session.Result(stage); ok {
		if r.IsPassed {
			output.Printf("    %s\n", output.Green(r.Message))
		} else {
			output.Printf("    %s\n", output.Yellow(r.Message))
		}
	}
	output.Println()
}

// parseCheck resolves a check by id, case-insensitively, or by 1-based position.
func parseCheck(stage models.Stage, arg string) (models.CheckID, error) {
	state := models.NewChecklistState()
	flags := state.Flags(stage)

	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(flags) {
			return "", fmt.Errorf("check number must be between 1 and %d", len(flags))
		}
		return flags[n-1].ID, nil
	}
	for _, f := range flags {
		if strings.EqualFold(string(f.ID), arg) {
			return f.ID, nil
		}
	}
	return "", fmt.Errorf("unknown %s check %q", stage, arg)
}

// parseSetAction maps a field name to the action that updates it.
func parseSetAction(field, value string) (checklist.Action, error) {
	switch strings.ToLower(field) {
	case "entry":
		return checklist.UpdatePrice{Field: checklist.PriceEntry, Value: value}, nil
	case "stop":
		return checklist.UpdatePrice{Field: checklist.PriceStop, Value: value}, nil
	case "target":
		return checklist.UpdatePrice{Field: checklist.PriceTarget, Value: value}, nil
	case "gap":
		return checklist.UpdateGapPercentage{Value: value}, nil
	case "pattern":
		pattern := models.PatternType(strings.ToLower(value))
		if pattern != models.PatternBreakout && pattern != models.PatternPullback {
			return nil, fmt.Errorf("unknown pattern %q (use breakout or pullback)", value)
		}
		return checklist.UpdatePatternType{Pattern: pattern}, nil
	case "account":
		return checklist.UpdatePositionData{Field: checklist.PositionAccountSize, Value: value}, nil
	case "risk":
		return checklist.UpdatePositionData{Field: checklist.PositionRiskPercent, Value: value}, nil
	case "lower-entry":
		return checklist.UpdatePositionData{Field: checklist.PositionEntry, Value: value}, nil
	case "lower-stop":
		return checklist.UpdatePositionData{Field: checklist.PositionStop, Value: value}, nil
	}
	return nil, fmt.Errorf("unknown field %q", field)
}

func nextStep(step models.Step) models.Step {
	if i := step.Order(); i >= 0 && i+1 < len(stepOrder) {
		return stepOrder[i+1]
	}
	return step
}

func previousStep(step models.Step) models.Step {
	if i := step.Order(); i > 1 {
		return stepOrder[i-1]
	}
	return step
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
