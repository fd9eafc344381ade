// Package todocli implements todo, the human-friendly command line.
package todocli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"todo/internal/cli"
	"todo/internal/models"
	"todo/internal/tasks"
)

// errTaskNotFound is what the user sees for any unresolvable task reference.
var errTaskNotFound = errors.New("Task not found")

type app struct {
	env     *cli.Env
	noColor bool
}

// Execute runs todo with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := &cobra.Command{
		Use:     "todo",
		Short:   "Todo application CLI",
		Long:    "A user-friendly command-line interface for managing tasks.",
		Version: cli.Version,
	}
	a := &app{env: cli.NewEnv(root, stdout, stderr)}
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.newAddCmd(),
		a.newListCmd(),
		a.newDoneCmd(),
		a.newRmCmd(),
	)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		a.printError(err)
	}
	return cli.ExitCode(err)
}

// colorsOn reports whether stdout should receive ANSI colors.
func (a *app) colorsOn() bool {
	if a.noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := a.env.Stdout.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) paint(s string, colors ...text.Color) string {
	if !a.colorsOn() {
		return s
	}
	return text.Colors(colors).Sprint(s)
}

func (a *app) printError(err error) {
	msg := "Error: " + err.Error()
	if a.colorsOn() {
		msg = text.Colors{text.FgRed}.Sprint(msg)
	}
	fmt.Fprintln(a.env.Stderr, msg)
}

func (a *app) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title>",
		Short: "Add a new task",
		Args:  cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.env.WithService(cmd.Context(), func(svc *tasks.Service) error {
				task, err := svc.Create(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.env.Stdout, "Added task: %s\n", a.paint(task.Title, text.FgCyan))
				return nil
			})
		},
	}
}

func (a *app) newListCmd() *cobra.Command {
	var all, done, pending bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cli.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *models.Status
			switch {
			case done:
				s := models.StatusCompleted
				filter = &s
			case pending:
				s := models.StatusPending
				filter = &s
			}

			return a.env.WithService(cmd.Context(), func(svc *tasks.Service) error {
				list, err := svc.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(a.env.Stdout, a.paint("No tasks found", text.FgYellow))
					return nil
				}
				a.renderTasks(list)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "show all tasks")
	cmd.Flags().BoolVar(&done, "done", false, "show completed tasks")
	cmd.Flags().BoolVar(&pending, "pending", false, "show pending tasks")
	return cmd
}

func (a *app) newDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <n>",
		Short: "Mark a task as completed",
		Long:  "Mark a task as completed. <n> is the task's number in 'todo list --all', or its id.",
		Args:  cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			return a.env.WithService(cmd.Context(), func(svc *tasks.Service) error {
				task, err := resolve(cmd.Context(), svc, ref)
				if err != nil {
					return err
				}
				completed := models.StatusCompleted
				updated, err := svc.Update(cmd.Context(), task.ID, tasks.UpdateParams{Status: &completed})
				if err != nil {
					return notFoundAsUser(err)
				}
				fmt.Fprintf(a.env.Stdout, "Completed task: %s\n", a.paint(updated.Title, text.FgGreen))
				return nil
			})
		},
	}
}

func (a *app) newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <n>",
		Short: "Remove a task",
		Long:  "Remove a task. <n> is the task's number in 'todo list --all', or its id.",
		Args:  cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			return a.env.WithService(cmd.Context(), func(svc *tasks.Service) error {
				task, err := resolve(cmd.Context(), svc, ref)
				if err != nil {
					return err
				}
				if err := svc.Delete(cmd.Context(), task.ID); err != nil {
					return notFoundAsUser(err)
				}
				fmt.Fprintf(a.env.Stdout, "Removed task: %s\n", a.paint(task.Title, text.FgRed))
				return nil
			})
		},
	}
}

func (a *app) renderTasks(list []models.Task) {
	tw := table.NewWriter()
	tw.SetOutputMirror(a.env.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Title", "Status"})

	for i, task := range list {
		statusColor := text.FgYellow
		if task.IsCompleted() {
			statusColor = text.FgGreen
		}
		tw.AppendRow(table.Row{
			a.paint(strconv.Itoa(i+1), text.FgCyan),
			task.Title,
			a.paint(task.Status.String(), statusColor),
		})
	}

	tw.Render()
}

// taskRef addresses a task either by 1-based list position or by id.
type taskRef struct {
	position int
	id       uuid.UUID
}

func parseRef(arg string) (taskRef, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		return taskRef{position: n}, nil
	}
	if id, err := uuid.Parse(arg); err == nil {
		return taskRef{id: id}, nil
	}
	return taskRef{}, cli.Usagef("invalid value for task number: %q is not a valid integer", arg)
}

// resolve finds the task ref points to. Positions index the current
// unfiltered list, so they shift when tasks are added or removed.
func resolve(ctx context.Context, svc *tasks.Service, ref taskRef) (*models.Task, error) {
	if ref.id != uuid.Nil {
		task, found, err := svc.Get(ctx, ref.id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errTaskNotFound
		}
		return task, nil
	}

	list, err := svc.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	if ref.position < 1 || ref.position > len(list) {
		return nil, errTaskNotFound
	}
	return &list[ref.position-1], nil
}

// notFoundAsUser maps a store-level not-found onto the user-facing message.
// It happens when the task vanished between resolve and the write.
func notFoundAsUser(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return errTaskNotFound
	}
	return err
}
