package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleBarSetStateMarksDirtyOnlyOnChange(t *testing.T) {
	tb := NewTitleBar()
	tb.SetDirty(false)

	tb.SetState("me@example.com", "console")
	assert.True(t, tb.Dirty())

	tb.SetDirty(false)
	tb.SetState("me@example.com", "console")
	assert.False(t, tb.Dirty(), "re-setting identical state should not force a redraw")
}

func TestTitleBarRenderContainsAccountAndWindow(t *testing.T) {
	tb := NewTitleBar()
	tb.SetState("me@example.com", "room@conference")
	tb.Measure(40, 1)

	out := tb.Render()
	assert.Contains(t, out, "me@example.com")
	assert.Contains(t, out, "room@conference")
}

func TestWinBarRenderMarksActiveAndUnread(t *testing.T) {
	wb := NewWinBar()
	wb.SetState([]string{"console", "bob@example.com", "room@conf"}, "console", map[string]bool{"bob@example.com": true})
	wb.Measure(40, 1)

	out := wb.Render()
	assert.Contains(t, out, "[console]")
	assert.Contains(t, out, "*bob@example.com")
}
