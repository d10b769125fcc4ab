package cli

import (
	"fmt"

	"github.com/fieldtrace/evidence-cli/internal/dashboard"
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List pending merchandising tasks for the signed-in store",
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := a.dashboard.Fetch(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching tasks: %w", err)
		}

		printTasks("Paid Visibility Tracker", dashboard.Transform(tasks.Table))
		printTasks("Store Activity", dashboard.Transform(tasks.Table1))
		return nil
	},
}

func printTasks(title string, rows []dashboard.Summary) {
	fmt.Printf("=== %s ===\n", title)
	if len(rows) == 0 {
		fmt.Println("  No pending tasks.")
		return
	}
	for _, row := range rows {
		fmt.Printf("  [%s] %s — %s (%s)\n", row.ID, row.ElementName, row.BrandName, row.Execution)
		fmt.Printf("      plan: %s  ends: %s\n", row.PlanName, row.PlanEndDate)
	}
}
