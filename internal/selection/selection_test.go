// ABOUTME: Tests for the keyed selection set
// ABOUTME: Selection is by key, so fresh copies of an item count as the same item

package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	Key  string
	Name string
}

func keyOf(r row) string { return r.Key }

func TestSelection_ByKey(t *testing.T) {
	s := New(keyOf)
	s.Select(row{Key: "abc", Name: "old"})

	// A refetched copy of the same item is still selected.
	assert.True(t, s.IsSelected(row{Key: "abc", Name: "new"}))
	assert.False(t, s.IsSelected(row{Key: "def"}))

	s.Select(row{Key: "abc", Name: "new"})
	assert.Equal(t, []row{{Key: "abc", Name: "new"}}, s.Selected())
	assert.Equal(t, 1, s.Len())
}

func TestSelection_OrderAndUnselect(t *testing.T) {
	s := New(keyOf)
	s.SelectItems([]row{{Key: "a"}, {Key: "b"}, {Key: "c"}})
	s.Unselect(row{Key: "b"})
	s.UnselectItems([]row{{Key: "zzz"}})

	assert.Equal(t, []row{{Key: "a"}, {Key: "c"}}, s.Selected())
	assert.True(t, s.Has("c"))
	assert.False(t, s.Has("b"))
}

func TestSelection_UnselectAll(t *testing.T) {
	s := New(keyOf)
	s.SelectItems([]row{{Key: "a"}, {Key: "b"}})
	s.UnselectAll()

	assert.Empty(t, s.Selected())
	assert.Equal(t, 0, s.Len())
}

func TestSelection_AllSelected(t *testing.T) {
	s := New(keyOf)
	page := []row{{Key: "a"}, {Key: "b"}}

	assert.False(t, s.AllSelected(nil))
	assert.False(t, s.AllSelected(page))

	s.SelectItems(page)
	assert.True(t, s.AllSelected(page))
	assert.False(t, s.AllSelected(append(page, row{Key: "c"})))
}
