package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"grantiv/internal/apiclient"
	"grantiv/internal/models"
	"grantiv/internal/tasks"
)

var (
	flagTaskApp      string
	flagTaskAssignee string
	flagTaskDeadline string
	flagTaskDesc     string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage checklist tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks of the organization or of one application",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		var list []models.Task
		if flagTaskApp != "" {
			list, err = client.FetchTasksForApplication(rootCtx, flagTaskApp)
		} else {
			list, err = client.FetchTasks(rootCtx)
		}
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No tasks")
			return nil
		}
		fmt.Println(renderTaskStats(tasks.Aggregate(list, time.Now())))
		if flagTaskApp != "" {
			printTasks(list)
			return nil
		}

		titles := map[string]string{}
		if apps, err := client.ListApplications(rootCtx); err == nil {
			for _, app := range apps {
				titles[app.ID] = app.Title
			}
		}
		groups := tasks.GroupByGrant(list)
		for _, grantID := range grantOrder(groups) {
			fmt.Println()
			fmt.Println(titleStyle.Render(groupTitle(grantID, titles)))
			printTasks(groups[grantID])
		}
		return nil
	},
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <description>",
	Short: "Add a task to an application (--app) or a personal task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		task, err := client.CreateTask(rootCtx, flagTaskApp, apiclient.NewTask{
			Description: args[0],
			AssigneeID:  flagTaskAssignee,
			Deadline:    flagTaskDeadline,
		})
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		fmt.Printf("Created %s\n", task.ID)
		return nil
	},
}

var tasksEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Reassign a task or change its description or deadline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var update apiclient.TaskUpdate
		if cmd.Flags().Changed("description") {
			update.Description = &flagTaskDesc
		}
		if cmd.Flags().Changed("assignee") {
			update.AssigneeID = &flagTaskAssignee
		}
		if cmd.Flags().Changed("deadline") {
			update.Deadline = &flagTaskDeadline
		}
		if update == (apiclient.TaskUpdate{}) {
			return fmt.Errorf("nothing to change: pass --description, --assignee or --deadline")
		}

		client, _, err := newClient()
		if err != nil {
			return err
		}
		task, err := client.UpdateTask(rootCtx, args[0], update)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		printTasks([]models.Task{task})
		return nil
	},
}

var tasksToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Mark a task done, or open again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		task, err := client.ToggleTaskCompletion(rootCtx, args[0])
		if err != nil {
			return fmt.Errorf("failed to toggle task: %w", err)
		}
		printTasks([]models.Task{task})
		return nil
	},
}

var tasksRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		if err := client.DeleteTask(rootCtx, args[0]); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	tasksListCmd.Flags().StringVar(&flagTaskApp, "app", "", "only tasks of this application")
	tasksAddCmd.Flags().StringVar(&flagTaskApp, "app", "", "application id (omit for a personal task)")
	tasksAddCmd.Flags().StringVar(&flagTaskAssignee, "assignee", "", "assigned user id")
	tasksAddCmd.Flags().StringVar(&flagTaskDeadline, "deadline", "", "deadline (YYYY-MM-DD or RFC 3339)")
	tasksEditCmd.Flags().StringVar(&flagTaskDesc, "description", "", "new description")
	tasksEditCmd.Flags().StringVar(&flagTaskAssignee, "assignee", "", "new assignee (empty to unassign)")
	tasksEditCmd.Flags().StringVar(&flagTaskDeadline, "deadline", "", "new deadline (empty to clear)")

	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksEditCmd, tasksToggleCmd, tasksRmCmd)
}

func printTasks(list []models.Task) {
	stats := tasks.Aggregate(list, time.Now())
	for i, task := range list {
		box := "[ ]"
		if task.Completed {
			box = successStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s %s  %s", box, mutedStyle.Render(task.ID[:min(8, len(task.ID))]), truncate(task.Description, 50))
		if task.AssigneeID != "" {
			line += mutedStyle.Render("  @" + task.AssigneeID)
		}
		if task.Deadline != "" {
			due := "  due " + task.Deadline
			switch flag := stats.Flags[i]; {
			case flag.IsOverdue:
				due = errorStyle.Render(due + " (overdue)")
			case flag.IsUrgent:
				due = warningStyle.Render(due)
			default:
				due = mutedStyle.Render(due)
			}
			line += due
		}
		fmt.Println(line)
	}
}

// grantOrder returns the group keys sorted, personal tasks last.
func grantOrder(groups map[string][]models.Task) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := groups[""]; ok {
		keys = append(keys, "")
	}
	return keys
}

func groupTitle(grantID string, titles map[string]string) string {
	if grantID == "" {
		return "Personal"
	}
	if title, ok := titles[grantID]; ok {
		return title
	}
	return grantID
}
