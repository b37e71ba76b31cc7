// ABOUTME: View state commands: list saved views and reset them to their defaults
// ABOUTME: A reset view starts again from page 1 with default sort and no filters

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/2389/automation-console/internal/render"
	"github.com/2389/automation-console/internal/store"
)

func cmdViews(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		format := render.FormatText
		if len(args) == 3 && (args[1] == "--format" || args[1] == "-o") {
			f, err := render.ParseFormat(args[2])
			if err != nil {
				return err
			}
			format = f
		}
		records, err := a.store.ListViewStates(ctx)
		if err != nil {
			return err
		}
		return render.Write(os.Stdout, format, viewTable(records))
	case "reset":
		if len(args) != 2 {
			return fmt.Errorf("usage: views reset <resource>|--all")
		}
		return resetViews(ctx, a.store, args[1])
	default:
		return fmt.Errorf("unknown views subcommand: %s (use list, reset)", args[0])
	}
}

func viewTable(records []*store.ViewRecord) render.Table {
	t := render.Table{
		Title:   "Saved Views",
		Headers: []string{"View", "Query", "Updated"},
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{r.ViewID, r.Query, r.UpdatedAt.Local().Format("Jan 02 15:04")})
	}
	return t
}

func resetViews(ctx context.Context, s store.Store, target string) error {
	var ids []string
	if target == "--all" {
		records, err := s.ListViewStates(ctx)
		if err != nil {
			return err
		}
		for _, r := range records {
			ids = append(ids, r.ViewID)
		}
	} else {
		id, ok := resolveResource(target)
		if !ok {
			return fmt.Errorf("unknown resource: %s", target)
		}
		ids = []string{id}
	}

	for _, id := range ids {
		err := s.DeleteViewState(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Printf("  %s has no saved state\n", id)
			continue
		}
		if err != nil {
			return fmt.Errorf("resetting %s: %w", id, err)
		}
		color.Green("  ✓ Reset %s\n", id)
	}
	return nil
}
