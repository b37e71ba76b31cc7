// ABOUTME: Tests for the List View Controller against httptest backends
// ABOUTME: Covers 404 page reset, sticky counts, selection persistence, de-duplication and envelopes

package listview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/automation-console/internal/api"
	"github.com/2389/automation-console/internal/fetcher"
	"github.com/2389/automation-console/internal/query"
	"github.com/2389/automation-console/internal/view"
)

type credential struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func credentialKey(c credential) string { return c.Name }

const resource = "/api/eda/v1/credentials/"

// backend serves a fixed collection with offset/limit paging in either envelope.
type backend struct {
	items    []credential
	envelope api.Envelope
	omitNext bool

	hits    atomic.Int32
	mu      sync.Mutex
	queries []string
	handler func(w http.ResponseWriter, r *http.Request) bool // returns true when it handled the request
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.hits.Add(1)
	b.mu.Lock()
	b.queries = append(b.queries, r.URL.RawQuery)
	handler := b.handler
	b.mu.Unlock()
	if handler != nil && handler(w, r) {
		return
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset > 0 && offset >= len(b.items) {
		http.Error(w, `{"detail": "Invalid page."}`, http.StatusNotFound)
		return
	}
	end := min(offset+limit, len(b.items))
	page := b.items[offset:end]

	var next *string
	if end < len(b.items) && !b.omitNext {
		link := fmt.Sprintf("%s?offset=%d&limit=%d", r.URL.Path, end, limit)
		next = &link
	}

	var body any
	if b.envelope == api.EnvelopeHub {
		body = map[string]any{
			"data":  page,
			"meta":  map[string]any{"count": len(b.items)},
			"links": map[string]any{"next": next},
		}
	} else {
		body = map[string]any{"results": page, "count": len(b.items), "next": next}
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (b *backend) setHandler(h func(w http.ResponseWriter, r *http.Request) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
}

func makeCredentials(n int) []credential {
	out := make([]credential, n)
	for i := range out {
		out[i] = credential{ID: i + 1, Name: fmt.Sprintf("cred-%02d", i+1)}
	}
	return out
}

func newController(t *testing.T, b *backend, opts Options[credential]) *Controller[credential] {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL, api.Options{})
	require.NoError(t, err)

	f := fetcher.New[credential](client, b.envelope, fetcher.Options{})
	t.Cleanup(f.Close)

	if opts.Resource == "" {
		opts.Resource = resource
	}
	if opts.KeyFn == nil {
		opts.KeyFn = credentialKey
	}
	if opts.PerPage == 0 {
		opts.PerPage = 10
	}
	c := New[credential](f, opts)
	t.Cleanup(c.Close)
	return c
}

func TestController_LoadsFirstPage(t *testing.T) {
	b := &backend{items: makeCredentials(25)}
	c := newController(t, b, Options[credential]{
		TableColumns: []query.TableColumn{{Header: "Name", SortKey: "name"}},
	})

	require.NoError(t, c.Refresh(context.Background()))

	v := c.Snapshot()
	assert.Len(t, v.PageItems, 10)
	require.NotNil(t, v.ItemCount)
	assert.Equal(t, 25, *v.ItemCount)
	assert.NoError(t, v.Err)
	assert.Equal(t, "name", v.State.Sort, "first column seeds the default sort")
	assert.Equal(t, resource+"?sort=name&offset=0&limit=10", c.URL())
}

func TestController_NotFoundOnLaterPageResetsToFirst(t *testing.T) {
	b := &backend{items: makeCredentials(5)}
	c := newController(t, b, Options[credential]{})

	c.SetPage(3)
	c.Wait()

	v := c.Snapshot()
	assert.Equal(t, 1, v.State.Page)
	assert.NoError(t, v.Err)
	assert.Len(t, v.PageItems, 5)
}

func TestController_NotFoundOnFirstPageIsAnError(t *testing.T) {
	b := &backend{}
	b.setHandler(func(w http.ResponseWriter, r *http.Request) bool {
		http.NotFound(w, r)
		return true
	})
	c := newController(t, b, Options[credential]{})

	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	assert.Equal(t, err, c.Snapshot().Err)
}

func TestController_ErrorKeepsData(t *testing.T) {
	b := &backend{items: makeCredentials(3)}
	c := newController(t, b, Options[credential]{})
	require.NoError(t, c.Refresh(context.Background()))

	b.setHandler(func(w http.ResponseWriter, r *http.Request) bool {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return true
	})
	require.Error(t, c.Refresh(context.Background()))

	v := c.Snapshot()
	assert.Error(t, v.Err)
	assert.Len(t, v.PageItems, 3, "stale data stays visible")
	require.NotNil(t, v.ItemCount)
	assert.Equal(t, 3, *v.ItemCount)

	b.setHandler(nil)
	require.NoError(t, c.Refresh(context.Background()))
	assert.NoError(t, c.Snapshot().Err)
}

func TestController_StickyItemCount(t *testing.T) {
	b := &backend{items: makeCredentials(25), omitNext: true}
	c := newController(t, b, Options[credential]{})
	require.NoError(t, c.Refresh(context.Background()))

	release := make(chan struct{})
	b.setHandler(func(w http.ResponseWriter, r *http.Request) bool {
		<-release
		fmt.Fprint(w, `{"results": [{"id": 11, "name": "cred-11"}], "next": null}`)
		return true
	})

	c.SetPage(2)
	loading := c.Snapshot()
	assert.Nil(t, loading.PageItems, "page 2 was never loaded")
	require.NotNil(t, loading.ItemCount)
	assert.Equal(t, 25, *loading.ItemCount)

	close(release)
	c.Wait()

	v := c.Snapshot()
	assert.Equal(t, []credential{{ID: 11, Name: "cred-11"}}, v.PageItems)
	require.NotNil(t, v.ItemCount, "reply without a count keeps the previous one")
	assert.Equal(t, 25, *v.ItemCount)
}

func TestController_FilterAndPerPageResetPage(t *testing.T) {
	b := &backend{items: makeCredentials(40)}
	c := newController(t, b, Options[credential]{
		ToolbarFilters: []query.ToolbarFilter{{Key: "type", Label: "Type", Query: "credential_type"}},
	})

	c.SetPage(3)
	c.Wait()
	require.Equal(t, 3, c.Snapshot().State.Page)

	c.SetFilters(map[string][]string{"type": {"scm", "vault"}})
	c.Wait()
	assert.Equal(t, 1, c.Snapshot().State.Page)
	assert.Equal(t, resource+"?or__credential_type=scm&or__credential_type=vault&offset=0&limit=10", c.URL())

	c.SetPage(2)
	c.SetPerPage(20)
	c.Wait()
	assert.Equal(t, 1, c.Snapshot().State.Page)
}

func TestController_SelectionPersistsAcrossPages(t *testing.T) {
	b := &backend{items: makeCredentials(15)}
	c := newController(t, b, Options[credential]{})
	require.NoError(t, c.Refresh(context.Background()))

	first := c.Snapshot().PageItems[0]
	require.Equal(t, "cred-01", first.Name)
	c.Select(first)

	c.SetPage(2)
	c.Wait()
	assert.NotContains(t, c.Snapshot().PageItems, first)

	c.SetPage(1)
	c.Wait()

	v := c.Snapshot()
	assert.Contains(t, v.PageItems, first)
	assert.True(t, c.IsSelected(v.PageItems[0]))
	assert.Equal(t, []credential{first}, v.Selected)
}

func TestController_SelectPageAndUnselectAll(t *testing.T) {
	b := &backend{items: makeCredentials(4)}
	c := newController(t, b, Options[credential]{})
	require.NoError(t, c.Refresh(context.Background()))

	assert.False(t, c.PageSelected())
	c.SelectPage()
	assert.Len(t, c.Selected(), 4)
	assert.True(t, c.PageSelected())

	c.Unselect(c.Snapshot().PageItems[1])
	assert.Len(t, c.Selected(), 3)
	assert.Equal(t, 3, c.SelectedCount())
	assert.False(t, c.PageSelected())

	c.UnselectAll()
	assert.Empty(t, c.Selected())
	assert.Zero(t, c.SelectedCount())
}

func TestController_UnselectItemsAndRefresh(t *testing.T) {
	b := &backend{items: makeCredentials(3)}
	c := newController(t, b, Options[credential]{})
	require.NoError(t, c.Refresh(context.Background()))

	c.SelectPage()
	deleted := c.Snapshot().PageItems[:2]
	b.items = b.items[2:]
	hits := b.hits.Load()

	require.NoError(t, c.UnselectItemsAndRefresh(context.Background(), deleted))

	assert.Equal(t, hits+1, b.hits.Load())
	assert.Equal(t, []credential{{ID: 3, Name: "cred-03"}}, c.Selected())
	assert.Equal(t, []credential{{ID: 3, Name: "cred-03"}}, c.Snapshot().PageItems)
}

func TestController_RefreshTwiceSharesRequest(t *testing.T) {
	b := &backend{items: makeCredentials(3)}
	c := newController(t, b, Options[credential]{})

	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	b.setHandler(func(w http.ResponseWriter, r *http.Request) bool {
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-release
		return false
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, c.Refresh(context.Background()))
	}()
	<-arrived
	go func() {
		defer wg.Done()
		assert.NoError(t, c.Refresh(context.Background()))
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), b.hits.Load())
}

func TestController_TimedOutRefreshDoesNotFailMount(t *testing.T) {
	b := &backend{items: makeCredentials(3)}
	b.setHandler(func(w http.ResponseWriter, r *http.Request) bool {
		time.Sleep(150 * time.Millisecond)
		return false
	})
	c := newController(t, b, Options[credential]{})

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	refreshErr := make(chan error, 1)
	go func() { refreshErr <- c.Refresh(short) }()
	time.Sleep(5 * time.Millisecond)

	c.Mount(context.Background())
	c.Wait()

	err := <-refreshErr
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	v := c.Snapshot()
	assert.NoError(t, v.Err)
	assert.Len(t, v.PageItems, 3)
	assert.Equal(t, int32(1), b.hits.Load())
}

func TestController_PageChangeClearsError(t *testing.T) {
	b := &backend{items: makeCredentials(30), omitNext: true}
	c := newController(t, b, Options[credential]{})
	require.NoError(t, c.Refresh(context.Background()))

	b.setHandler(func(w http.ResponseWriter, r *http.Request) bool {
		if r.URL.Query().Get("offset") == "10" {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return true
		}
		return false
	})
	c.SetPage(2)
	c.Wait()
	require.Error(t, c.Snapshot().Err)

	release := make(chan struct{})
	b.setHandler(func(w http.ResponseWriter, r *http.Request) bool {
		<-release
		return false
	})
	c.SetPage(1)

	v := c.Snapshot()
	assert.NoError(t, v.Err, "error belonged to the previous page")
	assert.Len(t, v.PageItems, 10, "cached copy of the first page is shown")

	close(release)
	c.Wait()
	assert.NoError(t, c.Snapshot().Err)
}

func TestController_SupersededPageIsDiscarded(t *testing.T) {
	b := &backend{items: makeCredentials(30)}
	c := newController(t, b, Options[credential]{})

	release := make(chan struct{})
	b.setHandler(func(w http.ResponseWriter, r *http.Request) bool {
		if r.URL.Query().Get("offset") == "10" {
			<-release
		}
		return false
	})

	c.SetPage(2)
	c.SetPage(3)
	time.Sleep(50 * time.Millisecond)
	close(release)
	c.Wait()

	v := c.Snapshot()
	assert.Equal(t, 3, v.State.Page)
	require.NotEmpty(t, v.PageItems)
	assert.Equal(t, "cred-21", v.PageItems[0].Name)
}

func TestController_CloseAbsorbsCancellation(t *testing.T) {
	b := &backend{items: makeCredentials(3)}
	release := make(chan struct{})
	defer close(release)
	b.setHandler(func(w http.ResponseWriter, r *http.Request) bool {
		<-release
		return false
	})
	c := newController(t, b, Options[credential]{})

	c.Mount(context.Background())
	time.Sleep(20 * time.Millisecond)
	c.Close()

	assert.NoError(t, c.Snapshot().Err)
}

func TestController_MountRevalidates(t *testing.T) {
	b := &backend{items: makeCredentials(3)}
	c := newController(t, b, Options[credential]{RevalidateInterval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	c.Mount(ctx)
	c.Wait()
	assert.Len(t, c.Snapshot().PageItems, 3)

	assert.Eventually(t, func() bool { return b.hits.Load() >= 3 }, time.Second, 10*time.Millisecond)
	cancel()
}

func TestController_PrefetchesNextPage(t *testing.T) {
	b := &backend{items: makeCredentials(15)}
	c := newController(t, b, Options[credential]{})
	require.NoError(t, c.Refresh(context.Background()))

	// The next page is warmed in the background and then served from cache
	assert.Eventually(t, func() bool { return b.hits.Load() == 2 }, time.Second, 5*time.Millisecond)

	c.SetPage(2)
	v := c.Snapshot()
	assert.Len(t, v.PageItems, 5, "cached next page shown before revalidation")
	c.Wait()
}

func TestController_EnvelopesProduceSameView(t *testing.T) {
	items := makeCredentials(12)
	hub := newController(t, &backend{items: items, envelope: api.EnvelopeHub, omitNext: true}, Options[credential]{})
	controller := newController(t, &backend{items: items, envelope: api.EnvelopeController, omitNext: true}, Options[credential]{})

	require.NoError(t, hub.Refresh(context.Background()))
	require.NoError(t, controller.Refresh(context.Background()))

	hv, cv := hub.Snapshot(), controller.Snapshot()
	assert.Equal(t, hv.PageItems, cv.PageItems)
	assert.Equal(t, hv.ItemCount, cv.ItemCount)
}

type memLocation struct {
	mu    sync.Mutex
	query string
}

func (l *memLocation) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

func (l *memLocation) Push(q string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = q
}

func TestController_QuerySync(t *testing.T) {
	b := &backend{items: makeCredentials(30)}
	loc := &memLocation{query: "page=2&perPage=5&sort=-name"}
	c := newController(t, b, Options[credential]{Location: loc})

	st := c.Snapshot().State
	assert.Equal(t, 2, st.Page)
	assert.Equal(t, 5, st.PerPage)
	assert.Equal(t, view.Desc, st.SortDirection)

	c.SetPage(4)
	c.Wait()
	assert.Equal(t, "page=4&perPage=5&sort=-name", loc.Query())

	c.Navigate("page=1&perPage=5")
	c.Wait()
	assert.Equal(t, resource+"?offset=0&limit=5", c.URL())

	unsynced := newController(t, b, Options[credential]{Location: loc, DisableQuerySync: true})
	assert.Equal(t, 1, unsynced.Snapshot().State.Page)
}

func TestController_Subscribe(t *testing.T) {
	b := &backend{items: makeCredentials(3)}
	c := newController(t, b, Options[credential]{})

	var mu sync.Mutex
	var seen []View[credential]
	unsubscribe := c.Subscribe(func(v View[credential]) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, v)
	})

	require.NoError(t, c.Refresh(context.Background()))
	unsubscribe()
	require.NoError(t, c.Refresh(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Len(t, seen[0].PageItems, 3)
}
