// ABOUTME: Resource commands: list a page through a list view controller, delete selected items
// ABOUTME: View state is restored from and saved to the local store unless --no-sync is given

package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/automation-console/internal/api"
	"github.com/2389/automation-console/internal/fetcher"
	"github.com/2389/automation-console/internal/listview"
	"github.com/2389/automation-console/internal/render"
	"github.com/2389/automation-console/internal/resources"
	"github.com/2389/automation-console/internal/store"
	"github.com/2389/automation-console/internal/view"
)

// listFlags are the flags shared by list and delete.
type listFlags struct {
	page         int
	perPage      int
	sort         string
	desc         bool
	filters      map[string][]string
	clearFilters bool
	noSync       bool
	format       render.Format
	watch        bool
	yes          bool
}

// parseListFlags separates flags from positional arguments.
func parseListFlags(args []string) (listFlags, []string, error) {
	flags := listFlags{format: render.FormatText}
	var positional []string

	value := func(i int) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", args[i])
		}
		return args[i+1], nil
	}
	number := func(i int) (int, error) {
		v, err := value(i)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, fmt.Errorf("%s must be a positive number, got %q", args[i], v)
		}
		return n, nil
	}

	for i := 0; i < len(args); i++ {
		var err error
		switch args[i] {
		case "--page", "-p":
			flags.page, err = number(i)
			i++
		case "--per-page", "-n":
			flags.perPage, err = number(i)
			i++
		case "--sort", "-s":
			flags.sort, err = value(i)
			i++
		case "--desc":
			flags.desc = true
		case "--filter", "-f":
			var v string
			if v, err = value(i); err == nil {
				key, val, ok := strings.Cut(v, "=")
				if !ok || key == "" {
					err = fmt.Errorf("--filter expects KEY=VALUE, got %q", v)
				} else {
					if flags.filters == nil {
						flags.filters = map[string][]string{}
					}
					flags.filters[key] = append(flags.filters[key], val)
				}
			}
			i++
		case "--clear-filters":
			flags.clearFilters = true
		case "--no-sync":
			flags.noSync = true
		case "--format", "-o":
			var v string
			if v, err = value(i); err == nil {
				flags.format, err = render.ParseFormat(v)
			}
			i++
		case "--watch", "-w":
			flags.watch = true
		case "--yes", "-y":
			flags.yes = true
		default:
			if strings.HasPrefix(args[i], "-") {
				err = fmt.Errorf("unknown flag: %s", args[i])
			} else {
				positional = append(positional, args[i])
			}
		}
		if err != nil {
			return listFlags{}, nil, err
		}
	}
	return flags, positional, nil
}

// resolveResource maps a command name to a definition id. Both the full id
// ("eda/credentials") and the bare resource name ("credentials") work.
func resolveResource(name string) (string, bool) {
	for _, id := range resources.Names {
		if id == name {
			return id, true
		}
	}
	for _, id := range resources.Names {
		if _, bare, _ := strings.Cut(id, "/"); bare == name {
			return id, true
		}
	}
	return "", false
}

func cmdResource(ctx context.Context, a *app, name string, args []string) error {
	id, ok := resolveResource(name)
	if !ok {
		printUsage()
		return fmt.Errorf("unknown command or resource: %s", name)
	}

	sub := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}

	switch id {
	case resources.Credentials.ID:
		return runResource(ctx, a, resources.Credentials, sub, args)
	case resources.DecisionEnvironments.ID:
		if sub == "create" {
			return cmdCreateDecisionEnvironment(ctx, a, args)
		}
		return runResource(ctx, a, resources.DecisionEnvironments, sub, args)
	case resources.RulebookActivations.ID:
		return runResource(ctx, a, resources.RulebookActivations, sub, args)
	case resources.Rules.ID:
		return runResource(ctx, a, resources.Rules, sub, args)
	case resources.Users.ID:
		return runResource(ctx, a, resources.Users, sub, args)
	case resources.Remotes.ID:
		switch sub {
		case "create":
			return cmdCreateRemote(ctx, a, args)
		case "update":
			return cmdUpdateRemote(ctx, a, args)
		}
		return runResource(ctx, a, resources.Remotes, sub, args)
	case resources.Namespaces.ID:
		return runResource(ctx, a, resources.Namespaces, sub, args)
	case resources.Teams.ID:
		return runResource(ctx, a, resources.Teams, sub, args)
	}
	return fmt.Errorf("unknown resource: %s", id)
}

func runResource[T any](ctx context.Context, a *app, def resources.Definition[T], sub string, args []string) error {
	flags, positional, err := parseListFlags(args)
	if err != nil {
		return err
	}

	switch sub {
	case "list":
		if len(positional) > 0 {
			return fmt.Errorf("unexpected arguments: %s", strings.Join(positional, " "))
		}
		return runList(ctx, a, def, flags)
	case "delete":
		if !def.CanDelete() {
			return fmt.Errorf("%s cannot be deleted", def.Title)
		}
		if len(positional) == 0 {
			return fmt.Errorf("usage: %s delete <key>... [flags]", def.ID)
		}
		return runDelete(ctx, a, def, flags, positional)
	default:
		return fmt.Errorf("unknown %s subcommand: %s (use list, delete)", def.ID, sub)
	}
}

// newController builds the fetcher and list view of def and applies flags.
// The caller closes the returned function.
func newController[T any](a *app, def resources.Definition[T], flags listFlags) (*listview.Controller[T], func(), error) {
	client, err := a.client(def.Service)
	if err != nil {
		return nil, nil, err
	}

	f := fetcher.New[T](client, def.Envelope, fetcher.Options{
		Logger: a.logger.With("component", "fetcher", "view", def.ID),
	})
	opts := listview.Options[T]{
		Resource:           def.ListPath(a.paths),
		KeyFn:              def.KeyFn,
		ToolbarFilters:     def.Filters,
		TableColumns:       def.TableColumns(),
		QueryParams:        def.Params,
		DisableQuerySync:   flags.noSync || a.cfg.Views.DisableQuerySync,
		PerPage:            a.cfg.Views.PerPage,
		RevalidateInterval: a.cfg.Views.RevalidateInterval,
		Logger:             a.logger.With("component", "listview", "view", def.ID),
	}
	if !opts.DisableQuerySync {
		opts.Location = store.NewLocation(a.store, def.ID)
	}
	c := listview.New[T](f, opts)

	if err := applyFlags(c, def, flags); err != nil {
		c.Close()
		f.Close()
		return nil, nil, err
	}
	return c, func() {
		c.Close()
		f.Close()
	}, nil
}

// applyFlags moves the view to the state the flags ask for. Filters go
// first since they return to page 1.
func applyFlags[T any](c *listview.Controller[T], def resources.Definition[T], flags listFlags) error {
	for key := range flags.filters {
		if !slices.Contains(def.FilterKeys(), key) {
			return fmt.Errorf("%w: %s has no filter %q (filters: %s)", api.ErrInvalidInput, def.ID, key, strings.Join(def.FilterKeys(), ", "))
		}
	}

	switch {
	case flags.clearFilters:
		c.SetFilters(flags.filters)
	case len(flags.filters) > 0:
		merged := c.Snapshot().State.Filters
		for k, v := range flags.filters {
			merged[k] = v
		}
		c.SetFilters(merged)
	}
	if flags.perPage > 0 {
		c.SetPerPage(flags.perPage)
	}
	if flags.sort != "" {
		dir := view.Asc
		if flags.desc {
			dir = view.Desc
		}
		c.SetSort(flags.sort, dir)
	} else if flags.desc {
		c.SetSort(c.Snapshot().State.Sort, view.Desc)
	}
	if flags.page > 0 {
		c.SetPage(flags.page)
	}
	return nil
}

func runList[T any](ctx context.Context, a *app, def resources.Definition[T], flags listFlags) error {
	c, closeView, err := newController(a, def, flags)
	if err != nil {
		return err
	}
	defer closeView()

	if !flags.watch {
		if err := c.Refresh(ctx); err != nil {
			return err
		}
		c.Wait()
		return printView(def, c.Snapshot(), flags.format)
	}

	last := ""
	changes := make(chan listview.View[T], 1)
	unsubscribe := c.Subscribe(func(v listview.View[T]) {
		select {
		case changes <- v:
		default:
			// Drop a pending snapshot in favor of the newer one
			select {
			case <-changes:
			default:
			}
			select {
			case changes <- v:
			default:
			}
		}
	})
	defer unsubscribe()

	c.Mount(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case v := <-changes:
			if v.Loading && v.PageItems == nil {
				continue
			}
			out := fmt.Sprint(v.State.Query(), def.Rows(v.PageItems), v.Err)
			if out == last {
				continue
			}
			last = out
			if err := printView(def, v, flags.format); err != nil {
				return err
			}
		}
	}
}

func printView[T any](def resources.Definition[T], v listview.View[T], format render.Format) error {
	if v.Err != nil && v.PageItems == nil {
		return v.Err
	}
	if v.Err != nil {
		color.Yellow("Warning: showing cached data, refresh failed: %v\n", v.Err)
	}
	return render.Write(os.Stdout, format, render.Table{
		Title:   def.Title,
		Headers: def.Headers(),
		Rows:    def.Rows(v.PageItems),
		Footer:  footer(v.State, v.ItemCount, len(v.PageItems)),
	})
}

// footer describes the page position, e.g. "Page 2 of 5, items 11-20 of 43".
func footer(st view.State, count *int, onPage int) string {
	if count == nil {
		return fmt.Sprintf("Page %d", st.Page)
	}
	pages := (*count + st.PerPage - 1) / st.PerPage
	if pages < 1 {
		pages = 1
	}
	if onPage == 0 {
		return fmt.Sprintf("Page %d of %d, %d items", st.Page, pages, *count)
	}
	first := st.Offset() + 1
	return fmt.Sprintf("Page %d of %d, items %d-%d of %d", st.Page, pages, first, first+onPage-1, *count)
}

func runDelete[T any](ctx context.Context, a *app, def resources.Definition[T], flags listFlags, keys []string) error {
	c, closeView, err := newController(a, def, flags)
	if err != nil {
		return err
	}
	defer closeView()

	if err := c.Refresh(ctx); err != nil {
		return err
	}
	c.Wait()

	v := c.Snapshot()
	for _, key := range keys {
		found := false
		for _, item := range v.PageItems {
			if matchesKey(def, item, key) {
				c.Select(item)
				found = true
			}
		}
		if !found {
			return fmt.Errorf("%w: no item %q on page %d of %s", api.ErrInvalidInput, key, v.State.Page, def.ID)
		}
	}

	selected := c.Selected()
	if !flags.yes {
		rows := def.Rows(selected)
		fmt.Printf("Delete %d %s:\n", c.SelectedCount(), strings.ToLower(def.Title))
		if c.PageSelected() {
			fmt.Printf("  (every item on page %d)\n", v.State.Page)
		}
		for _, row := range rows {
			fmt.Printf("  %s\n", row[0])
		}
		color.Yellow("Nothing deleted. Run again with --yes to delete.\n")
		return nil
	}

	client, err := a.client(def.Service)
	if err != nil {
		return err
	}
	results, err := resources.DeleteAndRefresh[T](ctx, c, client, a.waiter("delete "+def.ID), selected, func(item T) string {
		return def.DeletePath(a.paths, item)
	})

	failed := 0
	for _, r := range results {
		label := def.Rows([]T{r.Item})[0][0]
		if r.Err != nil {
			failed++
			color.Red("  ✗ %s: %s\n", label, api.ErrorMessage(r.Err))
			continue
		}
		color.Green("  ✓ %s\n", label)
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deletes failed", failed, len(results))
	}
	return nil
}

// matchesKey matches an item by its selection key or its first column.
func matchesKey[T any](def resources.Definition[T], item T, key string) bool {
	if def.KeyFn(item) == key {
		return true
	}
	return len(def.Columns) > 0 && def.Columns[0].Value(item) == key
}
