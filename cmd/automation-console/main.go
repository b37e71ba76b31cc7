// ABOUTME: Entry point for automation-console, a command line console for controller, EDA and hub servers
// ABOUTME: Lists, filters, pages and deletes resources and waits for hub tasks

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/automation-console/internal/api"
	"github.com/2389/automation-console/internal/auth"
	"github.com/2389/automation-console/internal/resources"
)

// Version is set at build time.
var version = "dev"

const banner = `
              _                        _   _
   __ _ _   _| |_ ___  _ __ ___   __ _| |_(_) ___  _ __
  / _' | | | | __/ _ \| '_ ' _ \ / _' | __| |/ _ \| '_ \
 | (_| | |_| | || (_) | | | | | | (_| | |_| | (_) | | | |
  \__,_|\__,_|\__\___/|_| |_| |_|\__,_|\__|_|\___/|_| |_|  console
`

// getConfigPath returns the path to the console config file.
// Priority: AUTOMATION_CONSOLE_CONFIG env var > XDG_CONFIG_HOME/automation-console/console.yaml > ~/.config/automation-console/console.yaml
func getConfigPath() string {
	if envPath := os.Getenv("AUTOMATION_CONSOLE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "console.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "automation-console", "console.yaml")
}

func main() {
	args, configPath := extractConfigFlag(os.Args[1:])
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := args[0]
	args = args[1:]

	var err error
	switch cmd {
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "--version":
		fmt.Println("automation-console", version)
		return
	case "resources":
		printResources()
		return
	}

	a, err := newApp(configPath)
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "tasks":
		err = cmdTasks(ctx, a, args)
	case "views":
		err = cmdViews(ctx, a, args)
	default:
		err = cmdResource(ctx, a, cmd, args)
	}
	a.Close()

	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// extractConfigFlag pulls --config <path> out of args wherever it appears.
func extractConfigFlag(args []string) ([]string, string) {
	configPath := getConfigPath()
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			configPath = args[i+1]
			i++
			continue
		}
		rest = append(rest, args[i])
	}
	return rest, configPath
}

func reportError(err error) {
	switch {
	case api.IsUnauthorized(err):
		color.Red("Error: not authorized (%s)\n", api.ErrorMessage(err))
		fmt.Fprintln(os.Stderr, "Log in to the server and set auth.token in your config, or export the token referenced there.")
	case errors.Is(err, auth.ErrExpiredToken):
		color.Red("Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Create a new token and update auth.token in your config.")
	default:
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) {
			color.Red("Error: %v\n", err)
			if msg := api.ErrorMessage(err); msg != httpErr.Error() {
				fmt.Fprintf(os.Stderr, "  %s\n", msg)
			}
			return
		}
		color.Red("Error: %v\n", err)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: automation-console [--config <path>] <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  resources                          List the resources the console knows")
	fmt.Println("  <resource> [list] [flags]          Show one page of a resource")
	fmt.Println("  <resource> delete <key>... [flags] Delete items of the current page by key or name")
	fmt.Println("  eda/decision-environments create   Create a decision environment")
	fmt.Println("  hub/remotes create                 Create a collection remote")
	fmt.Println("  hub/remotes update <name>          Update a collection remote")
	fmt.Println("  tasks wait <id|href>               Wait for a hub task to finish")
	fmt.Println("  tasks history [--limit N]          Show recently awaited tasks")
	fmt.Println("  views list                         Show saved view state")
	fmt.Println("  views reset <resource>|--all       Forget saved view state")
	fmt.Println()
	yellow.Println("List flags:")
	fmt.Println("  --page N, --per-page N             Pagination")
	fmt.Println("  --sort FIELD, --desc               Sorting")
	fmt.Println("  --filter KEY=VALUE                 Filter (repeat a key to match any of its values)")
	fmt.Println("  --clear-filters                    Drop saved filters")
	fmt.Println("  --no-sync                          Do not restore or save view state")
	fmt.Println("  --format text|markdown|html        Output format")
	fmt.Println("  --watch                            Keep revalidating and reprint on change")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  AUTOMATION_CONSOLE_CONFIG          Config file path")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  automation-console eda/credentials --filter name=git --sort name --desc")
	fmt.Println("  automation-console hub/remotes delete community --yes")
	fmt.Println("  automation-console controller/teams --page 2 --format markdown")
	fmt.Println()
}

func printResources() {
	for _, id := range resources.Names {
		fmt.Println(id)
	}
}
