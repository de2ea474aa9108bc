// Package ui is the Terminus view toolkit spec.md §4.5 describes: a
// primitive compositing view tree drawn on a raw TTY. Every view carries a
// declared width/height ({Absolute, MatchParent, WrapContent}), a measured
// size, a position, a dirty flag, and renders to a plain string block of
// exactly its measured (w, h) — composited by its parent with
// lipgloss.JoinVertical/JoinHorizontal, the idiom wilbur182-forge's plugin
// views (chat/view.go, gitstatus/sidebar_view.go) already use for stacking
// a status bar, a scrolling body and an input line.
package ui

import "github.com/charmbracelet/lipgloss"

// SizeMode is how a view's width or height along a LinearLayout's axis is
// declared.
type SizeMode int

const (
	// Absolute reserves exactly N cells.
	Absolute SizeMode = iota
	// MatchParent splits the remainder of the parent's allotment equally
	// among every MatchParent sibling.
	MatchParent
	// WrapContent measures the view on its own and reserves exactly what it
	// reports.
	WrapContent
)

// Dimension is one declared width or height.
type Dimension struct {
	Mode SizeMode
	N    int // only meaningful when Mode == Absolute
}

// Abs declares a fixed size of n cells.
func Abs(n int) Dimension { return Dimension{Mode: Absolute, N: n} }

// Match declares a size that fills whatever the parent has left.
func Match() Dimension { return Dimension{Mode: MatchParent} }

// Wrap declares a size driven by the view's own content.
func Wrap() Dimension { return Dimension{Mode: WrapContent} }

// View is the contract every Terminus primitive satisfies: LinearLayout,
// FrameLayout, BufferedWin, ListView, TitleBar and WinBar all implement it.
//
// Contract (spec.md §4.5):
//   - After Measure(maxW, maxH), W() and H() are both finite and
//     ≤ the offered allotment.
//   - After Layout(x, y), the view's own (x, y) plus its measured (w, h)
//     lies within whatever rectangle the caller offered.
//   - Render returns a string block of exactly H() lines each W() cells
//     wide (ANSI styling aside) — it never draws outside that rectangle.
type View interface {
	WidthDecl() Dimension
	HeightDecl() Dimension

	// Measure computes and caches this view's size given the maximum space
	// the parent offers, and returns it.
	Measure(maxW, maxH int) (w, h int)
	// W and H return the most recently measured size.
	W() int
	H() int

	// Layout records this view's absolute position. Called after Measure.
	Layout(x, y int)

	// Render draws the view's own rectangle.
	Render() string

	// Dirty reports whether this view needs a redraw.
	Dirty() bool
	// SetDirty marks this view for redraw.
	SetDirty(dirty bool)

	// HandleEvent delivers ev to this view (and, for composites, its
	// children). Returns true if something became dirty.
	HandleEvent(ev any) bool
}

// Base is embedded by every concrete View to supply the bookkeeping
// (declared dimensions, measured size, position, dirty flag) the View
// interface's accessor methods expose, so leaf views only need to
// implement Measure, Render and HandleEvent.
type Base struct {
	WDecl, HDecl Dimension
	w, h         int
	x, y         int
	dirty        bool
}

// NewBase constructs a Base with the given declared dimensions, initially
// dirty (every view redraws at least once).
func NewBase(wDecl, hDecl Dimension) Base {
	return Base{WDecl: wDecl, HDecl: hDecl, dirty: true}
}

func (b *Base) WidthDecl() Dimension  { return b.WDecl }
func (b *Base) HeightDecl() Dimension { return b.HDecl }
func (b *Base) W() int                { return b.w }
func (b *Base) H() int                { return b.h }
func (b *Base) Dirty() bool           { return b.dirty }
func (b *Base) SetDirty(d bool)       { b.dirty = d }
func (b *Base) Layout(x, y int)       { b.x = x; b.y = y }

// measureSelf applies the view's declared dimension against the parent's
// offered allotment, falling back to contentW/contentH for WrapContent.
func (b *Base) measureSelf(maxW, maxH, contentW, contentH int) {
	b.w = resolve(b.WDecl, maxW, contentW)
	b.h = resolve(b.HDecl, maxH, contentH)
}

func resolve(d Dimension, max, content int) int {
	switch d.Mode {
	case Absolute:
		if d.N > max {
			return max
		}
		return d.N
	case MatchParent:
		return max
	default: // WrapContent
		if content > max {
			return max
		}
		return content
	}
}

// padBlock pads s with trailing spaces/blank lines until it is exactly w
// cells wide and h lines tall, the shape every Render implementation must
// return for LinearLayout/FrameLayout composition to stay rectangle-exact.
func padBlock(s string, w, h int) string {
	return lipgloss.NewStyle().Width(w).Height(h).MaxHeight(h).Render(s)
}
