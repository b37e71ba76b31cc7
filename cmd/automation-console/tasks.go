// ABOUTME: Task commands: wait for a hub task and show the history of awaited tasks
// ABOUTME: History comes from the local database

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"

	"github.com/2389/automation-console/internal/render"
	"github.com/2389/automation-console/internal/store"
	"github.com/2389/automation-console/internal/task"
)

func cmdTasks(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tasks wait <id|href> | tasks history [--limit N]")
	}

	switch args[0] {
	case "wait":
		return cmdTasksWait(ctx, a, args[1:])
	case "history":
		return cmdTasksHistory(ctx, a, args[1:])
	default:
		return fmt.Errorf("unknown tasks subcommand: %s (use wait, history)", args[0])
	}
}

func cmdTasksWait(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tasks wait <id|href>")
	}
	waiter := a.waiter("wait")
	if waiter == nil {
		return fmt.Errorf("servers.hub.url is not configured")
	}

	t, err := waiter.WaitHref(ctx, args[0])
	var failed *task.FailedError
	switch {
	case errors.As(err, &failed):
		color.Red("✗ Task %s failed: %s\n", failed.ID, failed.Description)
		return err
	case errors.Is(err, task.ErrTimeout) && t != nil:
		color.Yellow("Task %s is still %s\n", task.TaskRef(args[0]), t.State)
		return err
	case err != nil:
		return err
	}

	if t.State == task.StateCompleted {
		color.Green("✓ Task %s completed\n", t.ID)
	} else {
		color.Yellow("Task %s %s\n", t.ID, t.State)
	}
	return nil
}

func cmdTasksHistory(ctx context.Context, a *app, args []string) error {
	limit := 20
	format := render.FormatText
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--limit":
			if i+1 >= len(args) {
				return fmt.Errorf("--limit requires a value")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				return fmt.Errorf("--limit must be a number, got %q", args[i+1])
			}
			limit = n
			i++
		case "--format", "-o":
			if i+1 >= len(args) {
				return fmt.Errorf("--format requires a value")
			}
			f, err := render.ParseFormat(args[i+1])
			if err != nil {
				return err
			}
			format = f
			i++
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	records, err := a.store.ListTaskRecords(ctx, limit)
	if err != nil {
		return err
	}
	return render.Write(os.Stdout, format, taskTable(records))
}

func taskTable(records []*store.TaskRecord) render.Table {
	t := render.Table{
		Title:   "Task History",
		Headers: []string{"Finished", "Task", "Action", "State", "Duration", "Error"},
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{
			r.FinishedAt.Local().Format("Jan 02 15:04:05"),
			r.TaskID,
			r.Action,
			r.State,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
			r.Error,
		})
	}
	return t
}
