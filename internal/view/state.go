// ABOUTME: View state for one rendered resource list: page, page size, sort and filters
// ABOUTME: Encodes to and parses from the navigable query string of the view

package view

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// DefaultPerPage is used when no page size is configured.
const DefaultPerPage = 10

// State is the pagination, sorting and filtering state of a view.
// Page is always >= 1.
type State struct {
	Page          int
	PerPage       int
	Sort          string
	SortDirection Direction
	Filters       map[string][]string
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Filters = make(map[string][]string, len(s.Filters))
	for k, v := range s.Filters {
		out.Filters[k] = slices.Clone(v)
	}
	return out
}

// Offset returns the index of the first item on the current page.
func (s State) Offset() int {
	return (s.Page - 1) * s.PerPage
}

// reserved query keys that are not filters
const (
	pageKey    = "page"
	perPageKey = "perPage"
	sortKey    = "sort"
)

// Query renders s as the view's navigable query string: page, perPage, sort
// ("-" prefix when descending), then each filter key once per value, keys
// sorted.
func (s State) Query() string {
	var parts []string
	add := func(k, v string) {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
	}

	add(pageKey, strconv.Itoa(s.Page))
	add(perPageKey, strconv.Itoa(s.PerPage))
	if s.Sort != "" {
		if s.SortDirection == Desc {
			add(sortKey, "-"+s.Sort)
		} else {
			add(sortKey, s.Sort)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(s.Filters)) {
		for _, v := range s.Filters[k] {
			add(k, v)
		}
	}
	return strings.Join(parts, "&")
}

// ParseQuery overlays the values found in a navigable query string on top of
// defaults. Malformed numbers keep the default; filters present in the query
// replace the default filters entirely.
func ParseQuery(raw string, defaults State) State {
	s := defaults.Clone()

	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return s
	}

	if v := values.Get(pageKey); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			s.Page = n
		}
	}
	if v := values.Get(perPageKey); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			s.PerPage = n
		}
	}
	if v, ok := values[sortKey]; ok && len(v) > 0 {
		s.Sort, s.SortDirection = parseSort(v[0])
	}

	filters := map[string][]string{}
	for k, v := range values {
		if k == pageKey || k == perPageKey || k == sortKey {
			continue
		}
		var kept []string
		for _, value := range v {
			if value != "" {
				kept = append(kept, value)
			}
		}
		if len(kept) > 0 {
			filters[k] = kept
		}
	}
	if len(filters) > 0 {
		s.Filters = filters
	}
	return s
}

func parseSort(v string) (string, Direction) {
	if strings.HasPrefix(v, "-") {
		return strings.TrimPrefix(v, "-"), Desc
	}
	return v, Asc
}
