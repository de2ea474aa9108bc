package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedItem struct {
	group string
	name  string
}

func (n namedItem) String() string { return n.name }

func TestListViewGroupsItemsUnderHeaders(t *testing.T) {
	lv := NewListView[string, namedItem](Match(), Match(),
		func(i namedItem) string { return i.group },
		func(g string) string { return g })

	lv.SetItems([]namedItem{
		{group: "moderator", name: "alice"},
		{group: "participant", name: "bob"},
		{group: "moderator", name: "carol"},
	})
	lv.Measure(20, 10)
	lv.Layout(0, 0)

	out := lv.Render()
	assert.Contains(t, out, "moderator")
	assert.Contains(t, out, "participant")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
}

func TestListViewWithUniqueItemDedupesByKeepingLatest(t *testing.T) {
	lv := NewListView[string, namedItem](Match(), Match(),
		func(i namedItem) string { return i.group },
		func(g string) string { return g }).
		WithUniqueItem(func(i namedItem) string { return i.name })

	lv.SetItems([]namedItem{
		{group: "g", name: "alice"},
		{group: "g", name: "alice"},
		{group: "g", name: "bob"},
	})

	require.Len(t, lv.items, 2)
}

func TestListViewWithSortItemOrdersWithinGroup(t *testing.T) {
	lv := NewListView[string, namedItem](Match(), Match(),
		func(i namedItem) string { return i.group },
		func(g string) string { return g }).
		WithSortItem(func(a, b namedItem) bool { return a.name < b.name })

	lv.SetItems([]namedItem{
		{group: "g", name: "carol"},
		{group: "g", name: "alice"},
		{group: "g", name: "bob"},
	})

	groups := lv.groups()
	require.Len(t, groups, 1)
	require.Len(t, groups[0].items, 3)
	assert.Equal(t, "alice", groups[0].items[0].name)
	assert.Equal(t, "bob", groups[0].items[1].name)
	assert.Equal(t, "carol", groups[0].items[2].name)
}

func TestListViewScrollByClampsAtZero(t *testing.T) {
	lv := NewListView[string, namedItem](Match(), Match(),
		func(i namedItem) string { return i.group },
		func(g string) string { return g })
	lv.ScrollBy(-5)
	assert.Equal(t, 0, lv.scrollOff)
}
