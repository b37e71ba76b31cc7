// ABOUTME: Tests for the View State Store and query string round trips
// ABOUTME: Covers page resets, clamping, location sync in both directions, and subscriptions

package view

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLocation is an in-memory Location recording every push.
type memLocation struct {
	mu     sync.Mutex
	query  string
	pushes []string
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
	l.pushes = append(l.pushes, q)
}

func TestNewStore_Defaults(t *testing.T) {
	s := NewStore(Options{})
	st := s.State()
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, DefaultPerPage, st.PerPage)
	assert.Equal(t, Asc, st.SortDirection)
	assert.Empty(t, st.Filters)
}

func TestStore_SetFiltersResetsPage(t *testing.T) {
	for _, page := range []int{2, 3, 17} {
		s := NewStore(Options{})
		s.SetPage(page)
		require.Equal(t, page, s.State().Page)

		s.SetFilters(map[string][]string{"name": {"x"}})
		assert.Equal(t, 1, s.State().Page, "page after SetFilters from page %d", page)
	}
}

func TestStore_SetFiltersSameValuesStillResetsPage(t *testing.T) {
	s := NewStore(Options{})
	s.SetFilters(map[string][]string{"name": {"x"}})
	s.SetPage(4)

	s.SetFilters(map[string][]string{"name": {"x"}})
	assert.Equal(t, 1, s.State().Page)
}

func TestStore_SetPerPageResetsPage(t *testing.T) {
	s := NewStore(Options{})
	s.SetPage(5)
	s.SetPerPage(50)

	st := s.State()
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 50, st.PerPage)
}

func TestStore_Clamping(t *testing.T) {
	s := NewStore(Options{Defaults: State{PerPage: 20}})

	s.SetPage(0)
	assert.Equal(t, 1, s.State().Page)
	s.SetPage(-4)
	assert.Equal(t, 1, s.State().Page)

	s.SetPerPage(0)
	assert.Equal(t, 20, s.State().PerPage)
}

func TestStore_SetSort(t *testing.T) {
	s := NewStore(Options{})
	s.SetPage(3)
	s.SetSort("name", Desc)

	st := s.State()
	assert.Equal(t, "name", st.Sort)
	assert.Equal(t, Desc, st.SortDirection)
	assert.Equal(t, 3, st.Page, "sorting does not reset the page")

	s.SetSort("created", "sideways")
	assert.Equal(t, Asc, s.State().SortDirection)
}

func TestStore_EmptyFilterValuesDropped(t *testing.T) {
	s := NewStore(Options{})
	s.SetFilters(map[string][]string{"name": {}, "type": {"a"}})
	assert.Equal(t, map[string][]string{"type": {"a"}}, s.State().Filters)
}

func TestStore_StateIsACopy(t *testing.T) {
	s := NewStore(Options{})
	s.SetFilters(map[string][]string{"name": {"x"}})

	st := s.State()
	st.Filters["name"][0] = "mutated"
	st.Filters["other"] = []string{"y"}

	assert.Equal(t, map[string][]string{"name": {"x"}}, s.State().Filters)
}

func TestStore_RestoresFromLocation(t *testing.T) {
	loc := &memLocation{query: "page=3&perPage=25&sort=-name&status=running&status=failed"}
	s := NewStore(Options{Location: loc})

	st := s.State()
	assert.Equal(t, 3, st.Page)
	assert.Equal(t, 25, st.PerPage)
	assert.Equal(t, "name", st.Sort)
	assert.Equal(t, Desc, st.SortDirection)
	assert.Equal(t, []string{"running", "failed"}, st.Filters["status"])
}

func TestStore_PushesToLocation(t *testing.T) {
	loc := &memLocation{}
	s := NewStore(Options{Location: loc})

	s.SetPage(2)
	s.SetSort("name", Asc)
	s.SetPage(2) // unchanged, no push

	require.Len(t, loc.pushes, 2)
	assert.Equal(t, "page=2&perPage=10&sort=name", loc.Query())
}

func TestStore_DisableSync(t *testing.T) {
	loc := &memLocation{query: "page=9"}
	s := NewStore(Options{Location: loc, DisableSync: true})

	assert.Equal(t, 1, s.State().Page, "location ignored when sync disabled")

	s.SetPage(2)
	assert.Empty(t, loc.pushes)

	s.Navigate("page=7")
	assert.Equal(t, 2, s.State().Page)
}

func TestStore_Navigate(t *testing.T) {
	loc := &memLocation{}
	s := NewStore(Options{Location: loc, Defaults: State{Sort: "name"}})
	s.SetPage(4)

	var seen []State
	unsubscribe := s.Subscribe(func(st State) { seen = append(seen, st) })
	defer unsubscribe()

	s.Navigate("?page=2&type=scm")

	st := s.State()
	assert.Equal(t, 2, st.Page)
	assert.Equal(t, "name", st.Sort, "missing fields take defaults")
	assert.Equal(t, []string{"scm"}, st.Filters["type"])
	require.Len(t, seen, 1)
	assert.Equal(t, 2, seen[0].Page)

	pushes := len(loc.pushes)
	s.Navigate("?page=2&type=scm")
	assert.Len(t, seen, 1, "unchanged navigation does not notify")
	assert.Len(t, loc.pushes, pushes, "navigation is not pushed back")
}

func TestStore_Unsubscribe(t *testing.T) {
	s := NewStore(Options{})
	calls := 0
	unsubscribe := s.Subscribe(func(State) { calls++ })

	s.SetPage(2)
	unsubscribe()
	s.SetPage(3)

	assert.Equal(t, 1, calls)
}

func TestState_QueryRoundTrip(t *testing.T) {
	st := State{
		Page:          2,
		PerPage:       20,
		Sort:          "modified",
		SortDirection: Desc,
		Filters:       map[string][]string{"name": {"a b", "c&d"}, "kind": {"x"}},
	}

	q := st.Query()
	assert.Equal(t, "page=2&perPage=20&sort=-modified&kind=x&name=a+b&name=c%26d", q)
	assert.Equal(t, st, ParseQuery(q, State{Page: 1, PerPage: 10, SortDirection: Asc}))
}

func TestParseQuery_Malformed(t *testing.T) {
	defaults := State{Page: 1, PerPage: 10, SortDirection: Asc, Filters: map[string][]string{}}
	st := ParseQuery("page=abc&perPage=-3", defaults)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 10, st.PerPage)

	st = ParseQuery("%zz", defaults)
	assert.Equal(t, defaults, st)
}

func TestState_Offset(t *testing.T) {
	assert.Equal(t, 0, State{Page: 1, PerPage: 10}.Offset())
	assert.Equal(t, 40, State{Page: 3, PerPage: 20}.Offset())
}

// slowLocation widens the window between a state change and its push.
type slowLocation struct {
	memLocation
}

func (l *slowLocation) Push(q string) {
	time.Sleep(100 * time.Microsecond)
	l.memLocation.Push(q)
}

func TestStore_ConcurrentUpdatesPushInOrder(t *testing.T) {
	loc := &slowLocation{}
	s := NewStore(Options{Location: loc})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SetPage(i + 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, s.State().Query(), loc.Query(), "last push matches the final state")
	loc.mu.Lock()
	defer loc.mu.Unlock()
	assert.Len(t, loc.pushes, 50)
}
