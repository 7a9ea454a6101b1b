package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"grantiv/internal/apiclient"
	"grantiv/internal/pipeline"
)

var (
	flagAppAgency   string
	flagAppAmount   float64
	flagAppDeadline string
	flagAppAssign   []string
)

var appsCmd = &cobra.Command{
	Use:     "apps",
	Aliases: []string{"applications"},
	Short:   "Manage tracked grant applications",
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications with their pipeline progress",
	Args:  cobra.NoArgs,
	RunE:  runAppsList,
}

var appsAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Start tracking a grant application",
	Args:  cobra.ExactArgs(1),
	RunE:  runAppsAdd,
}

var appsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one application with its tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runAppsShow,
}

var appsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Stop tracking an application and delete its tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		if err := client.DeleteApplication(rootCtx, args[0]); err != nil {
			return fmt.Errorf("failed to delete application: %w", err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	appsAddCmd.Flags().StringVar(&flagAppAgency, "agency", "", "funding agency")
	appsAddCmd.Flags().Float64Var(&flagAppAmount, "amount", 0, "requested amount")
	appsAddCmd.Flags().StringVar(&flagAppDeadline, "deadline", "", "submission deadline (YYYY-MM-DD or RFC 3339)")
	appsAddCmd.Flags().StringSliceVar(&flagAppAssign, "assign", nil, "assigned user ids")

	appsCmd.AddCommand(appsListCmd, appsAddCmd, appsShowCmd, appsRmCmd)
}

func runAppsList(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}
	apps, err := client.ListApplications(rootCtx)
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}
	if len(apps) == 0 {
		fmt.Println("No applications tracked")
		return nil
	}

	orderByPipeline(apps)
	for _, app := range apps {
		fmt.Printf("%s  %s  %s\n", mutedStyle.Render(app.ID[:min(8, len(app.ID))]), titleStyle.Render(truncate(app.Title, 40)), mutedStyle.Render(app.Agency))
		fmt.Printf("    %s\n", renderPipeline(app.Status))
	}
	return nil
}

func runAppsAdd(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}
	app, err := client.CreateApplication(rootCtx, apiclient.NewApplication{
		Title:      args[0],
		Agency:     flagAppAgency,
		Amount:     flagAppAmount,
		Deadline:   flagAppDeadline,
		AssignedTo: flagAppAssign,
	})
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	fmt.Printf("Created %s\n", app.ID)
	return nil
}

func runAppsShow(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}
	app, err := client.GetApplication(rootCtx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load application: %w", err)
	}
	list, err := client.FetchTasksForApplication(rootCtx, app.ID)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	fmt.Println(titleStyle.Render(app.Title))
	fmt.Printf("ID:       %s\n", app.ID)
	if app.Agency != "" {
		fmt.Printf("Agency:   %s\n", app.Agency)
	}
	if app.Amount > 0 {
		fmt.Printf("Amount:   %.2f\n", app.Amount)
	}
	if app.Deadline != "" {
		fmt.Printf("Deadline: %s\n", app.Deadline)
	}
	fmt.Printf("Status:   %s\n", app.Status.Wire())
	fmt.Println(renderPipeline(app.Status))

	if app.Tasks != nil {
		fmt.Printf("\nTasks: %s\n", renderTaskStats(*app.Tasks))
	}
	printTasks(list)
	return nil
}

// orderByPipeline sorts applications by pipeline position, furthest along
// last. Applications with an unknown status go to the end.
func orderByPipeline(apps []apiclient.Application) {
	rank := func(a apiclient.Application) int {
		if r := a.Status.Rank(); r >= 0 {
			return r
		}
		return len(pipeline.ValidStatuses())
	}
	sort.SliceStable(apps, func(i, j int) bool {
		return rank(apps[i]) < rank(apps[j])
	})
}
