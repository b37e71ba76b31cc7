// ABOUTME: Create and update commands for decision environments and collection remotes
// ABOUTME: Remote writes that the hub defers to a task are awaited and recorded

package main

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/fatih/color"

	"github.com/2389/automation-console/internal/resources"
)

// parseFields reads --key value pairs into a map. Keys must be in allowed;
// boolean flags listed in switches take no value.
func parseFields(args []string, allowed []string, switches []string) (map[string]string, []string, error) {
	fields := map[string]string{}
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) < 3 || arg[:2] != "--" {
			positional = append(positional, arg)
			continue
		}
		name := arg[2:]
		switch {
		case slices.Contains(switches, name):
			fields[name] = "true"
		case slices.Contains(allowed, name):
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("%s requires a value", arg)
			}
			fields[name] = args[i+1]
			i++
		default:
			return nil, nil, fmt.Errorf("unknown flag: %s", arg)
		}
	}
	return fields, positional, nil
}

func cmdCreateDecisionEnvironment(ctx context.Context, a *app, args []string) error {
	fields, _, err := parseFields(args, []string{"name", "image", "description", "credential"}, nil)
	if err != nil {
		return err
	}

	in := resources.DecisionEnvironmentInput{
		Name:        fields["name"],
		Description: fields["description"],
		ImageURL:    fields["image"],
	}
	if v := fields["credential"]; v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("--credential must be a credential id, got %q", v)
		}
		in.CredentialID = &id
	}

	client, err := a.client(resources.ServiceEDA)
	if err != nil {
		return err
	}
	de, err := resources.CreateDecisionEnvironment(ctx, client, a.paths, in)
	if err != nil {
		return err
	}

	color.Green("✓ Created decision environment %s (id %d)\n", de.Name, de.ID)
	return nil
}

var remoteFields = []string{"name", "url", "auth-url", "token", "username", "password", "proxy-url", "requirements-file", "download-concurrency"}

func remoteInput(fields map[string]string) (resources.RemoteInput, error) {
	in := resources.RemoteInput{
		Name:             fields["name"],
		URL:              fields["url"],
		AuthURL:          fields["auth-url"],
		Token:            fields["token"],
		Username:         fields["username"],
		Password:         fields["password"],
		ProxyURL:         fields["proxy-url"],
		RequirementsFile: fields["requirements-file"],
	}
	if v := fields["download-concurrency"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return in, fmt.Errorf("--download-concurrency must be a positive number, got %q", v)
		}
		in.DownloadConcurrency = &n
	}
	if fields["no-tls-validation"] == "true" {
		off := false
		in.TLSValidation = &off
	}
	if fields["signed-only"] == "true" {
		on := true
		in.SignedOnly = &on
	}
	return in, nil
}

func cmdCreateRemote(ctx context.Context, a *app, args []string) error {
	fields, _, err := parseFields(args, remoteFields, []string{"no-tls-validation", "signed-only"})
	if err != nil {
		return err
	}
	in, err := remoteInput(fields)
	if err != nil {
		return err
	}

	client, err := a.client(resources.ServiceHub)
	if err != nil {
		return err
	}
	remote, err := resources.CreateRemote(ctx, client, a.waiter("create remote "+in.Name), a.paths, in)
	if err != nil {
		return err
	}

	if remote == nil {
		color.Yellow("Remote %s is being created in the background\n", in.Name)
		return nil
	}
	color.Green("✓ Created remote %s (%s)\n", remote.Name, remote.URL)
	return nil
}

func cmdUpdateRemote(ctx context.Context, a *app, args []string) error {
	fields, positional, err := parseFields(args, remoteFields, []string{"no-tls-validation", "signed-only"})
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("usage: hub/remotes update <name> --url <url> [flags]")
	}

	client, err := a.client(resources.ServiceHub)
	if err != nil {
		return err
	}
	current, err := resources.FindRemote(ctx, client, a.paths, positional[0])
	if err != nil {
		return fmt.Errorf("finding remote %s: %w", positional[0], err)
	}

	// Unset fields keep their current values
	if fields["name"] == "" {
		fields["name"] = current.Name
	}
	if fields["url"] == "" {
		fields["url"] = current.URL
	}
	in, err := remoteInput(fields)
	if err != nil {
		return err
	}

	if err := resources.UpdateRemote(ctx, client, a.waiter("update remote "+current.Name), a.paths, current.PulpHref, in); err != nil {
		return err
	}

	color.Green("✓ Updated remote %s\n", in.Name)
	return nil
}
