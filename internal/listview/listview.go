// ABOUTME: List View Controller composing view state, query encoding, fetching and selection
// ABOUTME: Keeps one paginated remote list consistent: sticky counts, stale data retention, 404 page reset

package listview

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/2389/automation-console/internal/api"
	"github.com/2389/automation-console/internal/cache"
	"github.com/2389/automation-console/internal/query"
	"github.com/2389/automation-console/internal/selection"
	"github.com/2389/automation-console/internal/view"
)

// DefaultRevalidateInterval is how often a mounted view refetches its page.
const DefaultRevalidateInterval = 30 * time.Second

// Source loads list pages. *fetcher.Fetcher satisfies it.
type Source[T any] interface {
	Fetch(ctx context.Context, key cache.Key) (*api.ListResponse[T], error)
	Cached(key cache.Key) (*api.ListResponse[T], bool)
	Prefetch(ctx context.Context, next string)
	Invalidate(resource string)
}

// Options configures a Controller.
type Options[T any] struct {
	Resource           string // list endpoint path, e.g. "/api/eda/v1/users/"
	KeyFn              selection.KeyFunc[T]
	ToolbarFilters     []query.ToolbarFilter
	TableColumns       []query.TableColumn
	QueryParams        query.Params
	DisableQuerySync   bool
	Location           view.Location
	PerPage            int
	RevalidateInterval time.Duration
	Logger             *slog.Logger
}

// View is a consistent snapshot of a controller.
type View[T any] struct {
	State     view.State
	PageItems []T  // nil while the current page has never loaded
	ItemCount *int // last count reported by the server; survives reloads
	Err       error
	Loading   bool
	Selected  []T
}

// Controller drives one paginated list view.
type Controller[T any] struct {
	src      Source[T]
	store    *view.Store
	sel      *selection.Selection[T]
	resource string
	filters  []query.ToolbarFilter
	params   query.Params
	interval time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup // all background goroutines
	loads  sync.WaitGroup // page loads started by state changes and Mount

	mu       sync.Mutex
	current  cache.Key
	items    []T
	count    *int
	err      error
	inflight int
	mounted  bool

	subMu  sync.Mutex
	subs   map[int]func(View[T])
	nextID int

	unsubscribeStore func()
}

// New creates a controller over src. Nothing is fetched until Mount,
// Refresh, or a state change.
func New[T any](src Source[T], opts Options[T]) *Controller[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "listview")
	}
	interval := opts.RevalidateInterval
	if interval <= 0 {
		interval = DefaultRevalidateInterval
	}

	store := view.NewStore(view.Options{
		Defaults: view.State{
			Page:          1,
			PerPage:       opts.PerPage,
			Sort:          query.DefaultSort(opts.TableColumns),
			SortDirection: view.Asc,
		},
		Location:    opts.Location,
		DisableSync: opts.DisableQuerySync,
	})

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller[T]{
		src:      src,
		store:    store,
		sel:      selection.New(opts.KeyFn),
		resource: opts.Resource,
		filters:  opts.ToolbarFilters,
		params:   opts.QueryParams,
		interval: interval,
		logger:   logger.With("resource", opts.Resource),
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[int]func(View[T])),
	}
	c.current = c.keyFor(store.State())
	c.unsubscribeStore = store.Subscribe(c.onStateChange)
	return c
}

// keyFor encodes st into the cache key of its page.
func (c *Controller[T]) keyFor(st view.State) cache.Key {
	return cache.Key{Resource: c.resource, Query: query.Encode(st, c.filters, c.params)}
}

// URL returns the request path of the current page.
func (c *Controller[T]) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.URL()
}

// Snapshot returns the current view.
func (c *Controller[T]) Snapshot() View[T] {
	c.mu.Lock()
	v := View[T]{
		State:   c.store.State(),
		Err:     c.err,
		Loading: c.inflight > 0,
	}
	if c.items != nil {
		v.PageItems = slices.Clone(c.items)
	}
	if c.count != nil {
		n := *c.count
		v.ItemCount = &n
	}
	c.mu.Unlock()

	v.Selected = c.sel.Selected()
	return v
}

// Subscribe registers fn to receive a snapshot after every change.
// The returned function removes the subscription.
func (c *Controller[T]) Subscribe(fn func(View[T])) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Controller[T]) notify() {
	c.subMu.Lock()
	subs := make([]func(View[T]), 0, len(c.subs))
	for _, id := range slices.Sorted(maps.Keys(c.subs)) {
		subs = append(subs, c.subs[id])
	}
	c.subMu.Unlock()

	if len(subs) == 0 {
		return
	}
	v := c.Snapshot()
	for _, fn := range subs {
		fn(v)
	}
}

// SetPage moves to page and loads it.
func (c *Controller[T]) SetPage(page int) {
	c.store.SetPage(page)
}

// SetPerPage changes the page size, returning to the first page.
func (c *Controller[T]) SetPerPage(perPage int) {
	c.store.SetPerPage(perPage)
}

// SetSort changes the sort order.
func (c *Controller[T]) SetSort(field string, dir view.Direction) {
	c.store.SetSort(field, dir)
}

// SetFilters replaces the active filters, returning to the first page.
func (c *Controller[T]) SetFilters(filters map[string][]string) {
	c.store.SetFilters(filters)
}

// Navigate applies an externally changed query string.
func (c *Controller[T]) Navigate(rawQuery string) { c.store.Navigate(rawQuery) }

// onStateChange switches to the page for st. A cached copy of that page is
// shown immediately and revalidated in the background.
func (c *Controller[T]) onStateChange(st view.State) {
	key := c.keyFor(st)

	c.mu.Lock()
	if key == c.current {
		c.mu.Unlock()
		return
	}
	c.current = key
	c.err = nil
	if cached, ok := c.src.Cached(key); ok {
		c.items = cached.Items
		if cached.Count != nil {
			c.count = cached.Count
		}
	} else {
		c.items = nil
	}
	c.mu.Unlock()

	c.notify()
	c.load(key)
}

// load fetches key in the background.
func (c *Controller[T]) load(key cache.Key) {
	c.wg.Add(1)
	c.loads.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.loads.Done()
		c.fetch(c.ctx, key)
	}()
}

// fetch requests key and applies the result if key is still the current
// page. It returns the error now shown by the view.
func (c *Controller[T]) fetch(ctx context.Context, key cache.Key) error {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()

	resp, err := c.src.Fetch(ctx, key)

	c.mu.Lock()
	c.inflight--
	if key != c.current {
		// Superseded by a newer page; nothing is listening for this one
		c.mu.Unlock()
		return nil
	}

	if err != nil {
		if ctx.Err() != nil {
			// This caller stopped waiting; the page itself did not fail
			c.mu.Unlock()
			if api.IsCanceled(err) {
				return nil
			}
			return err
		}
		if api.IsCanceled(err) {
			c.mu.Unlock()
			return nil
		}
		if api.IsNotFound(err) && c.store.State().Page > 1 {
			c.err = nil
			c.mu.Unlock()
			c.logger.Info("page no longer exists, returning to first page", "url", key.URL())
			c.store.SetPage(1)
			return nil
		}
		c.err = err
		c.mu.Unlock()
		c.logger.Warn("failed to load page", "url", key.URL(), "error", err)
		c.notify()
		return err
	}

	c.items = resp.Items
	if resp.Count != nil {
		c.count = resp.Count
	}
	c.err = nil
	c.mu.Unlock()

	c.notify()
	if resp.Next != "" {
		c.src.Prefetch(c.ctx, resp.Next)
	}
	return nil
}

// Refresh refetches the current page and waits for it. Concurrent refreshes
// share one request. The returned error is also recorded in the view.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	key := c.current
	c.mu.Unlock()

	ctx, stop := mergeCancel(ctx, c.ctx)
	defer stop()
	return c.fetch(ctx, key)
}

// Mount loads the current page and then revalidates it every interval until
// ctx ends or Close is called.
func (c *Controller[T]) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	key := c.current
	c.mu.Unlock()

	c.load(key)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.mu.Lock()
				key := c.current
				c.mu.Unlock()
				c.fetch(c.ctx, key)
			case <-ctx.Done():
				c.cancel()
				return
			case <-c.ctx.Done():
				return
			}
		}
	}()
}

// Wait blocks until every page load started so far, including the first
// page reload after a 404, has been applied or discarded. It does not wait
// for the revalidation loop.
func (c *Controller[T]) Wait() {
	c.loads.Wait()
}

// Close cancels in-flight requests, stops revalidation, and waits for
// background work to finish.
func (c *Controller[T]) Close() {
	c.cancel()
	c.unsubscribeStore()
	c.wg.Wait()
}

// Selection

// Select marks item as selected.
func (c *Controller[T]) Select(item T) {
	c.sel.Select(item)
	c.notify()
}

// Unselect removes item from the selection.
func (c *Controller[T]) Unselect(item T) {
	c.sel.Unselect(item)
	c.notify()
}

// SelectPage selects every item on the current page.
func (c *Controller[T]) SelectPage() {
	c.mu.Lock()
	items := slices.Clone(c.items)
	c.mu.Unlock()
	c.sel.SelectItems(items)
	c.notify()
}

// UnselectAll clears the selection.
func (c *Controller[T]) UnselectAll() {
	c.sel.UnselectAll()
	c.notify()
}

// IsSelected reports whether item is selected.
func (c *Controller[T]) IsSelected(item T) bool { return c.sel.IsSelected(item) }

// Selected returns the selected items.
func (c *Controller[T]) Selected() []T { return c.sel.Selected() }

// SelectedCount returns how many items are selected across all pages.
func (c *Controller[T]) SelectedCount() int { return c.sel.Len() }

// PageSelected reports whether every item of the current page is selected.
func (c *Controller[T]) PageSelected() bool {
	c.mu.Lock()
	items := slices.Clone(c.items)
	c.mu.Unlock()
	return c.sel.AllSelected(items)
}

// UnselectItemsAndRefresh drops items from the selection, forgets every
// cached page of the resource, and refetches the current page. Used after
// items were deleted.
func (c *Controller[T]) UnselectItemsAndRefresh(ctx context.Context, items []T) error {
	c.sel.UnselectItems(items)
	c.src.Invalidate(c.resource)
	c.notify()
	return c.Refresh(ctx)
}

// mergeCancel returns a context that ends when either parent ends.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
