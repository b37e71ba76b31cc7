// ABOUTME: Query Encoder turning a view state plus static filter definitions into a list query string
// ABOUTME: Output is deterministic so it can key the response cache and de-duplicate requests

package query

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/2389/automation-console/internal/view"
)

// orPrefix marks one value of a multi-valued filter; the backend ORs them.
const orPrefix = "or__"

// ToolbarFilter maps a user-facing filter key to the backend query parameter
// it controls.
type ToolbarFilter struct {
	Key   string
	Label string
	Query string
}

// TableColumn describes a column of a list view. Only the first column's
// SortKey seeds the default sort.
type TableColumn struct {
	Header  string
	SortKey string
}

// Params are static query parameters sent with every request of a view.
type Params map[string]string

// DefaultSort returns the sort key of the first column, or "" when there are
// no columns.
func DefaultSort(columns []TableColumn) string {
	if len(columns) == 0 {
		return ""
	}
	return columns[0].SortKey
}

// Encode builds the list query for state: static params (keys sorted), then
// active filters in key order, then sort, then offset and limit. Filter keys
// with no matching ToolbarFilter are skipped.
func Encode(state view.State, filters []ToolbarFilter, params Params) string {
	var b builder

	for _, k := range slices.Sorted(maps.Keys(params)) {
		b.add(k, params[k])
	}

	byKey := make(map[string]ToolbarFilter, len(filters))
	for _, f := range filters {
		byKey[f.Key] = f
	}
	for _, k := range slices.Sorted(maps.Keys(state.Filters)) {
		values := state.Filters[k]
		f, ok := byKey[k]
		if !ok || len(values) == 0 {
			continue
		}
		if len(values) == 1 {
			b.add(f.Query, values[0])
			continue
		}
		for _, v := range values {
			b.add(orPrefix+f.Query, v)
		}
	}

	if state.Sort != "" {
		if state.SortDirection == view.Desc {
			b.add("sort", "-"+state.Sort)
		} else {
			b.add("sort", state.Sort)
		}
	}

	page, perPage := state.Page, state.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = view.DefaultPerPage
	}
	b.add("offset", strconv.Itoa((page-1)*perPage))
	b.add("limit", strconv.Itoa(perPage))
	return b.String()
}

type builder struct {
	parts []string
}

func (b *builder) add(k, v string) {
	b.parts = append(b.parts, Escape(k)+"="+Escape(v))
}

func (b *builder) String() string {
	return strings.Join(b.parts, "&")
}

// Escape percent-encodes s for use as a query key or value. Spaces become
// %20 rather than "+".
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
