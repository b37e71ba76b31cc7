// ABOUTME: View State Store holding page, page size, sort and filters for one view
// ABOUTME: Optionally mirrors state into a navigable location's query string, both directions

package view

import (
	"maps"
	"slices"
	"sync"
)

// Location is where a view's query string lives: a browser URL, a saved
// record, a command line. The store reads it once at construction and on
// Navigate, and pushes a new query string after every mutation.
type Location interface {
	Query() string
	Push(query string)
}

// Options configures a Store.
type Options struct {
	Defaults    State    // Page and PerPage default to 1 and DefaultPerPage
	Location    Location // optional
	DisableSync bool     // never read from or write to Location
}

// Store holds the state of one view. All mutation goes through its setters.
// It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	state    State
	defaults State
	location Location

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// NewStore creates a store seeded from defaults, restored from the location's
// query string when sync is enabled.
func NewStore(opts Options) *Store {
	defaults := opts.Defaults.Clone()
	if defaults.Page < 1 {
		defaults.Page = 1
	}
	if defaults.PerPage < 1 {
		defaults.PerPage = DefaultPerPage
	}
	if defaults.SortDirection != Desc {
		defaults.SortDirection = Asc
	}

	s := &Store{
		defaults: defaults,
		state:    defaults.Clone(),
		subs:     make(map[int]func(State)),
	}
	if !opts.DisableSync {
		s.location = opts.Location
	}
	if s.location != nil {
		if q := s.location.Query(); q != "" {
			s.state = ParseQuery(q, defaults)
		}
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SetPage moves to page. Values below 1 select the first page.
func (s *Store) SetPage(page int) {
	s.update(func(st *State) {
		if page < 1 {
			page = 1
		}
		st.Page = page
	})
}

// SetPerPage changes the page size and returns to the first page.
func (s *Store) SetPerPage(perPage int) {
	s.update(func(st *State) {
		if perPage < 1 {
			perPage = s.defaults.PerPage
		}
		st.PerPage = perPage
		st.Page = 1
	})
}

// SetSort sorts by field in the given direction. An empty field clears sorting.
func (s *Store) SetSort(field string, dir Direction) {
	s.update(func(st *State) {
		if dir != Desc {
			dir = Asc
		}
		st.Sort = field
		st.SortDirection = dir
	})
}

// SetFilters replaces the active filters and returns to the first page.
// Keys with no values are dropped.
func (s *Store) SetFilters(filters map[string][]string) {
	s.update(func(st *State) {
		st.Filters = make(map[string][]string, len(filters))
		for k, v := range filters {
			if len(v) > 0 {
				st.Filters[k] = append([]string(nil), v...)
			}
		}
		st.Page = 1
	})
}

// Navigate applies an externally changed query string, e.g. browser history
// navigation. Fields missing from the query take their default values.
// It is a no-op when sync is disabled.
func (s *Store) Navigate(rawQuery string) {
	if s.location == nil {
		return
	}

	s.mu.Lock()
	before := s.state.Query()
	s.state = ParseQuery(rawQuery, s.defaults)
	changed := s.state.Query() != before
	current := s.state.Clone()
	s.mu.Unlock()

	if changed {
		s.notify(current)
	}
}

// Subscribe registers fn to be called with the new state after every change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// update applies mutate, pushes the new query string and notifies
// subscribers if anything changed. The push happens under mu so the
// location sees queries in the order the state changed.
func (s *Store) update(mutate func(*State)) {
	s.mu.Lock()
	before := s.state.Query()
	mutate(&s.state)
	after := s.state.Query()
	current := s.state.Clone()
	if after != before && s.location != nil {
		s.location.Push(after)
	}
	s.mu.Unlock()

	if after == before {
		return
	}
	s.notify(current)
}

func (s *Store) notify(st State) {
	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, id := range slices.Sorted(maps.Keys(s.subs)) {
		subs = append(subs, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(st.Clone())
	}
}
