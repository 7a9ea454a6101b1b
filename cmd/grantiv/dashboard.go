package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grantiv/internal/pipeline"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show organization-wide statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		dash, err := client.Dashboard(rootCtx)
		if err != nil {
			return fmt.Errorf("failed to load dashboard: %w", err)
		}

		fmt.Println(titleStyle.Render("Applications"))
		fmt.Printf("  %d tracked, %d active\n", dash.TotalApplications, dash.ActiveApplications)
		for _, status := range pipeline.ValidStatuses() {
			if n := dash.ByStatus[status.Wire()]; n > 0 {
				fmt.Printf("  %-10s %d\n", status.Wire(), n)
			}
		}
		if dash.InvalidStatuses > 0 {
			fmt.Printf("  %s\n", errorStyle.Render(fmt.Sprintf("%d with unknown status", dash.InvalidStatuses)))
		}
		if dash.AwardedAmount > 0 {
			fmt.Printf("  %s\n", successStyle.Render(fmt.Sprintf("%.2f awarded", dash.AwardedAmount)))
		}

		fmt.Println(titleStyle.Render("Tasks"))
		fmt.Printf("  %s\n", renderTaskStats(dash.Tasks))

		if len(dash.UpcomingDeadlines) > 0 {
			fmt.Println(titleStyle.Render("Upcoming deadlines"))
			for _, u := range dash.UpcomingDeadlines {
				fmt.Printf("  %s  %s  %s\n", u.Deadline.Format("2006-01-02"), truncate(u.Title, 40),
					warningStyle.Render(fmt.Sprintf("%dd left", u.DaysLeft)))
			}
		}
		return nil
	},
}
