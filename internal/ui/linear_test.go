package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedView struct {
	Base
	content string
}

func newFixedView(wDecl, hDecl Dimension, content string) *fixedView {
	return &fixedView{Base: NewBase(wDecl, hDecl), content: content}
}

func (f *fixedView) Measure(maxW, maxH int) (int, int) {
	f.measureSelf(maxW, maxH, len(f.content), 1)
	return f.w, f.h
}
func (f *fixedView) Render() string          { return padBlock(f.content, f.w, f.h) }
func (f *fixedView) HandleEvent(ev any) bool { return false }

func TestLinearLayoutVerticalStacksFullWidthChildren(t *testing.T) {
	top := newFixedView(Match(), Abs(1), "top")
	body := newFixedView(Match(), Match(), "body")
	bottom := newFixedView(Match(), Abs(1), "bottom")

	l := NewLinearLayout(Vertical, Match(), Abs(10), top, body, bottom)
	w, h := l.Measure(20, 10)
	require.Equal(t, 20, w)
	require.Equal(t, 10, h)

	assert.Equal(t, 1, top.H())
	assert.Equal(t, 1, bottom.H())
	assert.Equal(t, 8, body.H(), "body absorbs whatever remains after the fixed siblings")
}

func TestLinearLayoutHorizontalSplitsRemainderEvenlyAmongMatchChildren(t *testing.T) {
	msgs := newFixedView(Match(), Match(), "msgs")
	roster := newFixedView(Abs(12), Match(), "roster")

	l := NewLinearLayout(Horizontal, Match(), Match(), msgs, roster)
	l.Measure(40, 20)

	assert.Equal(t, 12, roster.W())
	assert.Equal(t, 28, msgs.W())
}

func TestLinearLayoutWithDividerReservesOneColumnPerGap(t *testing.T) {
	a := newFixedView(Match(), Match(), "a")
	b := newFixedView(Match(), Match(), "b")

	l := NewLinearLayout(Horizontal, Match(), Match(), a, b)
	l.Divider = true
	l.Measure(21, 10)

	assert.Equal(t, 10, a.W())
	assert.Equal(t, 10, b.W())
}

func TestLinearLayoutRenderProducesExactRectangle(t *testing.T) {
	top := newFixedView(Match(), Abs(1), "hi")
	l := NewLinearLayout(Vertical, Match(), Abs(3), top)
	l.Measure(5, 3)
	l.Layout(0, 0)

	out := l.Render()
	lines := splitLines(out)
	require.Len(t, lines, 3)
}

func TestFrameLayoutShowsOnlyActiveChild(t *testing.T) {
	f := NewFrameLayout[string](Match(), Match())
	a := newFixedView(Match(), Match(), "A")
	b := newFixedView(Match(), Match(), "B")
	f.Put("a", a)
	f.Put("b", b)
	f.SetActive("a")
	f.Measure(10, 2)
	f.Layout(0, 0)

	out := f.Render()
	assert.Contains(t, out, "A")
	assert.NotContains(t, out, "B")

	f.SetActive("b")
	out = f.Render()
	assert.Contains(t, out, "B")
}

func TestFrameLayoutRemoveClearsActiveKey(t *testing.T) {
	f := NewFrameLayout[string](Match(), Match())
	f.Put("a", newFixedView(Match(), Match(), "A"))
	f.SetActive("a")
	f.Remove("a")

	_, ok := f.Active()
	assert.False(t, ok)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
