// ABOUTME: Keyed selection set for list views
// ABOUTME: Items are tracked by a caller-supplied key so selection survives page changes and refetches

package selection

import "sync"

// KeyFunc derives the unique key of an item.
type KeyFunc[T any] func(T) string

// Selection is a set of selected items keyed by KeyFunc. The latest copy of
// an item seen by Select replaces older copies with the same key.
// It is safe for concurrent use.
type Selection[T any] struct {
	mu    sync.RWMutex
	keyFn KeyFunc[T]
	order []string
	items map[string]T
}

// New creates an empty selection.
func New[T any](keyFn KeyFunc[T]) *Selection[T] {
	return &Selection[T]{
		keyFn: keyFn,
		items: make(map[string]T),
	}
}

// Select adds item.
func (s *Selection[T]) Select(item T) {
	s.SelectItems([]T{item})
}

// Unselect removes item.
func (s *Selection[T]) Unselect(item T) {
	s.UnselectItems([]T{item})
}

// SelectItems adds every item, in order.
func (s *Selection[T]) SelectItems(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		k := s.keyFn(item)
		if _, ok := s.items[k]; !ok {
			s.order = append(s.order, k)
		}
		s.items[k] = item
	}
}

// UnselectItems removes every item by key. Keys not selected are ignored.
func (s *Selection[T]) UnselectItems(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	for _, item := range items {
		k := s.keyFn(item)
		if _, ok := s.items[k]; ok {
			delete(s.items, k)
			removed = true
		}
	}
	if !removed {
		return
	}
	kept := s.order[:0]
	for _, k := range s.order {
		if _, ok := s.items[k]; ok {
			kept = append(kept, k)
		}
	}
	s.order = kept
}

// UnselectAll clears the selection.
func (s *Selection[T]) UnselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.items = make(map[string]T)
}

// IsSelected reports whether an item with item's key is selected.
func (s *Selection[T]) IsSelected(item T) bool {
	return s.Has(s.keyFn(item))
}

// Has reports whether key is selected.
func (s *Selection[T]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[key]
	return ok
}

// Selected returns the selected items in selection order.
func (s *Selection[T]) Selected() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}

// Len returns the number of selected items.
func (s *Selection[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// AllSelected reports whether every item of page is selected. An empty page
// is never all selected.
func (s *Selection[T]) AllSelected(page []T) bool {
	if len(page) == 0 {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range page {
		if _, ok := s.items[s.keyFn(item)]; !ok {
			return false
		}
	}
	return true
}
