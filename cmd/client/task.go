package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fastygo/client/api/transport"
	"github.com/fastygo/client/domain"
)

var (
	taskStatusFilter string
	addDescription   string
	addPriority      string
	addDueDate       string
	editTitle        string
	editDescription  string
	editPriority     string
	editStatus       string
	editDueDate      string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		if err := a.tasks.FetchTasks(ctx); err != nil {
			return err
		}

		tasks := a.tasks.Tasks()
		if taskStatusFilter != "" {
			tasks = a.tasks.TasksByStatus(domain.TaskStatus(taskStatusFilter))
		}
		if len(tasks) == 0 {
			fmt.Println("no tasks")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tTITLE")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, t.Title)
		}
		return w.Flush()
	}),
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		task, err := a.tasks.CreateTask(ctx, transport.TaskCreate{
			Title:       args[0],
			Description: addDescription,
			Priority:    addPriority,
			DueDate:     addDueDate,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created %s\n", task.ID)
		return nil
	}),
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Update task fields",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		// The engine needs the current collection before it can patch a task.
		if err := a.tasks.FetchTasks(ctx); err != nil {
			return err
		}

		patch := transport.TaskUpdate{}
		if editTitle != "" {
			patch.Title = &editTitle
		}
		if editDescription != "" {
			patch.Description = &editDescription
		}
		if editPriority != "" {
			patch.Priority = &editPriority
		}
		if editStatus != "" {
			patch.Status = &editStatus
		}
		if editDueDate != "" {
			patch.DueDate = &editDueDate
		}
		if patch == (transport.TaskUpdate{}) {
			return fmt.Errorf("nothing to update, pass at least one field flag")
		}

		task, err := a.tasks.UpdateTask(ctx, args[0], patch)
		if err != nil {
			return err
		}
		fmt.Printf("updated %s\n", task.ID)
		return nil
	}),
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Mark a task as done",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		if err := a.tasks.FetchTasks(ctx); err != nil {
			return err
		}
		if err := a.tasks.CompleteTask(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("completed %s\n", args[0])
		return nil
	}),
}

var taskRmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		if err := a.tasks.FetchTasks(ctx); err != nil {
			return err
		}
		if err := a.tasks.DeleteTask(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	}),
}

func init() {
	taskListCmd.Flags().StringVarP(&taskStatusFilter, "status", "s", "", "filter by status (todo, in-progress, done)")
	taskAddCmd.Flags().StringVarP(&addDescription, "description", "d", "", "task description")
	taskAddCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "priority (high, medium, low)")
	taskAddCmd.Flags().StringVar(&addDueDate, "due", "", "due date (RFC 3339)")
	taskEditCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	taskEditCmd.Flags().StringVarP(&editDescription, "description", "d", "", "new description")
	taskEditCmd.Flags().StringVarP(&editPriority, "priority", "p", "", "new priority")
	taskEditCmd.Flags().StringVarP(&editStatus, "status", "s", "", "new status")
	taskEditCmd.Flags().StringVar(&editDueDate, "due", "", "new due date (RFC 3339)")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskRmCmd)
}
