// Package listview turns a paginated, filterable, sortable REST collection
// into consistent client-side view state.
//
// A Controller composes the view state store (page, page size, sort,
// filters), the query encoder, a Source of pages (normally a
// fetcher.Fetcher) and a keyed selection. Every state change produces a new
// request URL; the page for that URL is shown from cache when possible and
// revalidated in the background. Replies for a URL that is no longer current
// are discarded, so the latest state always wins.
//
// Recovery is local to the view:
//
//   - a 404 on a page after the first returns to page 1 without an error,
//     which happens when the last item of the last page was deleted
//   - a failed revalidation records the error but keeps the previous items
//   - the item count is sticky: replies without a count keep the last one
//   - cancellation through Close is never reported as an error
package listview
