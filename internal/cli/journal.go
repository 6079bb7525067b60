package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trade-checklist/internal/models"
	"trade-checklist/internal/store"
)

func addJournalCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Review recorded trade decisions",
		Long:  "Every executed or passed checklist is recorded in the journal.",
	}

	cmd.AddCommand(newJournalListCmd(app))

	rootCmd.AddCommand(cmd)
}

func newJournalListCmd(app *App) *cobra.Command {
	var (
		style  string
		action string
		days   int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent decisions",
		Example: `  checklist journal list
  checklist journal list --style swing --action execute --days 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			filter := store.JournalFilter{Limit: limit}
			if style != "" {
				s, ok := models.ParseTradingStyle(style)
				if !ok {
					return fmt.Errorf("unknown trading style %q", style)
				}
				filter.Style = s
			}
			switch models.DecisionAction(action) {
			case "":
			case models.DecisionExecute, models.DecisionPass:
				filter.Action = models.DecisionAction(action)
			default:
				return fmt.Errorf("unknown action %q (use execute or pass)", action)
			}
			if days > 0 {
				filter.StartDate = time.Now().AddDate(0, 0, -days)
			}

			entries, err := app.OpenStore(ctx).GetJournal(ctx, filter)
			if err != nil {
				output.Error("Failed to fetch journal: %v", err)
				return err
			}

			if output.IsJSON() {
				if entries == nil {
					entries = []models.JournalEntry{}
				}
				return output.JSON(entries)
			}

			if len(entries) == 0 {
				output.Info("No decisions recorded yet.")
				output.Dim("Tip: decisions are recorded by 'checklist execute' and 'checklist pass'.")
				return nil
			}

			var executed int
			table := NewTable(output, "Date", "Style", "Timeframes", "Decision", "Status", "Size", "Notes")
			for _, e := range entries {
				decision := output.Yellow("pass")
				if e.Action == models.DecisionExecute {
					executed++
					decision = output.Green("execute")
				}
				table.AddRow(
					e.CreatedAt.Local().Format(app.Config.UI.DateFormat),
					string(e.Style),
					fmt.Sprintf("%s/%s/%s", e.Timeframes.Higher, e.Timeframes.Mid, e.Timeframes.Lower),
					decision,
					string(e.Status),
					fmt.Sprintf("%d%%", e.PositionSize),
					TruncateString(e.Notes, 30),
				)
			}
			table.Render()

			output.Println()
			output.Printf("  %d decisions, %d executed, %d passed\n", len(entries), executed, len(entries)-executed)
			return nil
		},
	}

	cmd.Flags().StringVar(&style, "style", "", "filter by trading style")
	cmd.Flags().StringVar(&action, "action", "", "filter by decision (execute or pass)")
	cmd.Flags().IntVar(&days, "days", 0, "only show the last N days")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")

	return cmd
}
