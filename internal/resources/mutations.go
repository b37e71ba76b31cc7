// ABOUTME: Mutating operations: bulk delete, decision environment creation, remote create and update
// ABOUTME: Deferred replies (HTTP 202 with a task) are awaited through a TaskWaiter

package resources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/2389/automation-console/internal/api"
	"github.com/2389/automation-console/internal/task"
)

// DeleteConcurrency bounds parallel delete requests of one bulk delete.
const DeleteConcurrency = 5

// Mutator sends mutating requests. *api.Client satisfies it.
type Mutator interface {
	Post(ctx context.Context, path string, body, out any) (*api.Result, error)
	Patch(ctx context.Context, path string, body, out any) (*api.Result, error)
	Delete(ctx context.Context, path string) (*api.Result, error)
}

// TaskWaiter waits for a deferred operation. *task.Poller satisfies it.
type TaskWaiter interface {
	WaitHref(ctx context.Context, href string) (*task.Task, error)
}

// Refresher is the part of a list view a bulk delete updates afterwards.
// *listview.Controller satisfies it.
type Refresher[T any] interface {
	UnselectItemsAndRefresh(ctx context.Context, items []T) error
}

// DeleteResult is the outcome of deleting one item.
type DeleteResult[T any] struct {
	Item T
	Task *task.Task // set when the server deferred the delete
	Err  error
}

// BulkDelete deletes items, a few at a time, and returns one result per
// item in input order. A deferred delete is awaited with waiter; when waiter
// is nil the task is left running and only its reply is reported.
func BulkDelete[T any](ctx context.Context, m Mutator, waiter TaskWaiter, items []T, pathFn func(T) string) []DeleteResult[T] {
	results := make([]DeleteResult[T], len(items))
	logger := slog.Default().With("component", "resources")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(DeleteConcurrency)
	for i, item := range items {
		results[i].Item = item
		g.Go(func() error {
			results[i].Task, results[i].Err = deleteOne(ctx, m, waiter, pathFn(item))
			if results[i].Err != nil {
				logger.Warn("delete failed", "error", results[i].Err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func deleteOne(ctx context.Context, m Mutator, waiter TaskWaiter, path string) (*task.Task, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: item has no delete endpoint", api.ErrInvalidInput)
	}
	res, err := m.Delete(ctx, path)
	if err != nil {
		return nil, err
	}
	if !res.Deferred() || waiter == nil {
		return nil, nil
	}
	return waiter.WaitHref(ctx, res.Task)
}

// Deleted returns the items whose delete succeeded.
func Deleted[T any](results []DeleteResult[T]) []T {
	var out []T
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Item)
		}
	}
	return out
}

// DeleteAndRefresh bulk deletes items, then drops the deleted ones from the
// view's selection and refreshes it. The refresh error, if any, is returned;
// per-item failures are in the results.
func DeleteAndRefresh[T any](ctx context.Context, view Refresher[T], m Mutator, waiter TaskWaiter, items []T, pathFn func(T) string) ([]DeleteResult[T], error) {
	results := BulkDelete(ctx, m, waiter, items, pathFn)
	if err := view.UnselectItemsAndRefresh(ctx, Deleted(results)); err != nil {
		return results, fmt.Errorf("refreshing view: %w", err)
	}
	return results, nil
}

// DecisionEnvironmentInput is the payload creating a decision environment.
type DecisionEnvironmentInput struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"image_url"`
	CredentialID *int   `json:"credential_id,omitempty"`
}

// CreateDecisionEnvironment creates a decision environment on EDA.
func CreateDecisionEnvironment(ctx context.Context, m Mutator, paths api.Paths, in DecisionEnvironmentInput) (*EdaDecisionEnvironment, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", api.ErrInvalidInput)
	}
	if strings.TrimSpace(in.ImageURL) == "" {
		return nil, fmt.Errorf("%w: image is required", api.ErrInvalidInput)
	}

	var created EdaDecisionEnvironment
	if _, err := m.Post(ctx, paths.EDA("/decision-environments/"), in, &created); err != nil {
		return nil, fmt.Errorf("creating decision environment: %w", err)
	}
	return &created, nil
}

// RemoteInput is the writable part of a collection remote.
type RemoteInput struct {
	Name                string `json:"name"`
	URL                 string `json:"url"`
	AuthURL             string `json:"auth_url,omitempty"`
	Token               string `json:"token,omitempty"`
	Username            string `json:"username,omitempty"`
	Password            string `json:"password,omitempty"`
	ProxyURL            string `json:"proxy_url,omitempty"`
	ProxyUsername       string `json:"proxy_username,omitempty"`
	ProxyPassword       string `json:"proxy_password,omitempty"`
	TLSValidation       *bool  `json:"tls_validation,omitempty"`
	RequirementsFile    string `json:"requirements_file,omitempty"`
	DownloadConcurrency *int   `json:"download_concurrency,omitempty"`
	RateLimit           *int   `json:"rate_limit,omitempty"`
	SignedOnly          *bool  `json:"signed_only,omitempty"`
}

func (in RemoteInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", api.ErrInvalidInput)
	}
	u, err := url.Parse(in.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: remote url %q must be absolute", api.ErrInvalidInput, in.URL)
	}
	return nil
}

// RemoteClient creates remotes and reads them back. *api.Client satisfies it.
type RemoteClient interface {
	Mutator
	Getter
}

// CreateRemote creates a collection remote. The URL gets a trailing slash.
// When the server defers the create to a task, the task is awaited and the
// remote is read back by name. With a nil waiter a deferred create returns
// a nil remote, since it may not exist yet.
func CreateRemote(ctx context.Context, c RemoteClient, waiter TaskWaiter, paths api.Paths, in RemoteInput) (*HubRemote, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.URL = api.AppendTrailingSlash(in.URL)

	var created HubRemote
	res, err := c.Post(ctx, paths.Pulp("/remotes/ansible/collection/"), in, &created)
	if err != nil {
		return nil, fmt.Errorf("creating remote %s: %w", in.Name, err)
	}
	if res == nil || !res.Deferred() {
		return &created, nil
	}
	if waiter == nil {
		return nil, nil
	}
	if err := awaitDeferred(ctx, waiter, res); err != nil {
		return nil, fmt.Errorf("creating remote %s: %w", in.Name, err)
	}
	remote, err := FindRemote(ctx, c, paths, in.Name)
	if err != nil {
		return nil, fmt.Errorf("reading back remote %s: %w", in.Name, err)
	}
	return remote, nil
}

// UpdateRemote patches the remote at href. Pulp defers remote updates to a
// task, which is awaited before returning.
func UpdateRemote(ctx context.Context, m Mutator, waiter TaskWaiter, paths api.Paths, href string, in RemoteInput) error {
	id := api.ParsePulpIDFromURL(href)
	if id == "" {
		return fmt.Errorf("%w: remote href %q has no id", api.ErrInvalidInput, href)
	}
	if err := in.validate(); err != nil {
		return err
	}
	in.URL = api.AppendTrailingSlash(in.URL)

	res, err := m.Patch(ctx, paths.Pulp("/remotes/ansible/collection/{}/", id), in, nil)
	if err != nil {
		return fmt.Errorf("updating remote %s: %w", in.Name, err)
	}
	if err := awaitDeferred(ctx, waiter, res); err != nil {
		return fmt.Errorf("updating remote %s: %w", in.Name, err)
	}
	return nil
}

func awaitDeferred(ctx context.Context, waiter TaskWaiter, res *api.Result) error {
	if res == nil || !res.Deferred() || waiter == nil {
		return nil
	}
	_, err := waiter.WaitHref(ctx, res.Task)
	return err
}

// Getter fetches and decodes a JSON resource. *api.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, path string, out any) error
}

// FindRemote looks a collection remote up by exact name.
// Returns api.ErrInvalidInput for an empty name and a 404 HTTPError when
// no remote has that name.
func FindRemote(ctx context.Context, g Getter, paths api.Paths, name string) (*HubRemote, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: remote name is required", api.ErrInvalidInput)
	}
	path := paths.Pulp("/remotes/ansible/collection/") + "?name=" + url.QueryEscape(name)

	var page struct {
		Results []HubRemote `json:"results"`
	}
	if err := g.Get(ctx, path, &page); err != nil {
		return nil, err
	}
	for i := range page.Results {
		if page.Results[i].Name == name {
			return &page.Results[i], nil
		}
	}
	return nil, &api.HTTPError{StatusCode: 404, Status: "Not Found", URL: path}
}

