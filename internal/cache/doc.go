// Package cache stores decoded list responses between fetches.
//
// Entries are keyed by Key, the pair of a resource path and the normalized
// query string produced by the query encoder, so identical view states map to
// the same entry. Entries expire after a TTL and the cache holds at most a
// fixed number of keys, evicting the oldest first. Invalidate drops every
// page of a resource, which is what callers want after a mutation.
package cache
