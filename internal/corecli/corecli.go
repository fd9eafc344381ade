// Package corecli implements todo-core, the machine-friendly command line.
// Output is JSON by default, or a table with --format table.
package corecli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"todo/internal/cli"
	"todo/internal/models"
	"todo/internal/tasks"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// Execute runs todo-core with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := &cobra.Command{
		Use:     "todo-core",
		Short:   "Todo core library CLI",
		Long:    "Create, list, update and delete tasks. Output is JSON unless --format table is given.",
		Version: cli.Version,
	}
	env := cli.NewEnv(root, stdout, stderr)

	root.AddCommand(
		newCreateCmd(env),
		newListCmd(env),
		newUpdateCmd(env),
		newDeleteCmd(env),
	)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		env.PrintError(err)
	}
	return cli.ExitCode(err)
}

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVar(format, "format", formatJSON, "output format (json|table)")
}

func checkFormat(format string) error {
	if format != formatJSON && format != formatTable {
		return cli.Usagef("invalid value for --format: %q is not one of %q, %q", format, formatJSON, formatTable)
	}
	return nil
}

func parseStatusFlag(value string) (models.Status, error) {
	status, err := models.ParseStatus(value)
	if err != nil {
		return "", cli.Usagef("invalid value for --status: %q is not one of %q, %q",
			value, models.StatusPending, models.StatusCompleted)
	}
	return status, nil
}

func parseTaskID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func newCreateCmd(env *cli.Env) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new task",
		Args:  cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return env.WithService(cmd.Context(), func(svc *tasks.Service) error {
				task, err := svc.Create(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeTasks(env.Stdout, format, false, *task)
			})
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func newListCmd(env *cli.Env) *cobra.Command {
	var format, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		Args:  cli.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			var filter *models.Status
			if cmd.Flags().Changed("status") {
				s, err := parseStatusFlag(status)
				if err != nil {
					return err
				}
				filter = &s
			}

			return env.WithService(cmd.Context(), func(svc *tasks.Service) error {
				list, err := svc.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return writeTasks(env.Stdout, format, true, list...)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (PENDING|COMPLETED)")
	addFormatFlag(cmd, &format)
	return cmd
}

func newUpdateCmd(env *cli.Env) *cobra.Command {
	var format, title, status string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task",
		Args:  cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			var params tasks.UpdateParams
			if cmd.Flags().Changed("title") {
				params.Title = &title
			}
			if cmd.Flags().Changed("status") {
				s, err := parseStatusFlag(status)
				if err != nil {
					return err
				}
				params.Status = &s
			}

			return env.WithService(cmd.Context(), func(svc *tasks.Service) error {
				id, err := parseTaskID(args[0])
				if err != nil {
					return err
				}
				task, err := svc.Update(cmd.Context(), id, params)
				if err != nil {
					return err
				}
				return writeTasks(env.Stdout, format, false, *task)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new task title")
	cmd.Flags().StringVar(&status, "status", "", "new task status (PENDING|COMPLETED)")
	addFormatFlag(cmd, &format)
	return cmd
}

func newDeleteCmd(env *cli.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.WithService(cmd.Context(), func(svc *tasks.Service) error {
				id, err := parseTaskID(args[0])
				if err != nil {
					return err
				}
				if err := svc.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintln(env.Stdout, "Task deleted")
				return nil
			})
		},
	}
}

// writeTasks renders tasks as JSON or a table. asList selects a JSON array
// over a single object.
func writeTasks(w io.Writer, format string, asList bool, list ...models.Task) error {
	if format == formatTable {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"ID", "Title", "Status", "Created", "Updated"})
		for _, task := range list {
			tw.AppendRow(table.Row{
				task.ID.String(),
				task.Title,
				task.Status.String(),
				task.CreatedAt.Format(time.RFC3339),
				task.UpdatedAt.Format(time.RFC3339),
			})
		}
		tw.Render()
		return nil
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if asList {
		return enc.Encode(list)
	}
	return enc.Encode(list[0])
}
