package ui

import "github.com/charmbracelet/lipgloss"

// Orientation is a LinearLayout's stacking axis.
type Orientation int

const (
	Vertical Orientation = iota
	Horizontal
)

// LinearLayout stacks its children along one axis — vertically (title bar
// over frame over window bar over input, per spec.md §4.7's top-level tree)
// or horizontally (message window beside the occupant/roster ListView in a
// group conversation) — composited with lipgloss.JoinVertical/JoinHorizontal,
// the idiom every wilbur182-forge plugin view already uses to stack a
// status line, a scrolling body and an input line into one string.
//
// Children measure in declaration order: Absolute and WrapContent children
// take their own size first, then whatever space remains along the axis is
// split evenly among MatchParent children. A Divider is drawn between
// Horizontal children (RenderDivider), matching the teacher's group-window
// sidebar split.
type LinearLayout struct {
	Base
	Orientation Orientation
	Children    []View
	Divider     bool
}

// NewLinearLayout builds a LinearLayout with the given declared size.
func NewLinearLayout(o Orientation, wDecl, hDecl Dimension, children ...View) *LinearLayout {
	return &LinearLayout{Base: NewBase(wDecl, hDecl), Orientation: o, Children: children}
}

func (l *LinearLayout) Measure(maxW, maxH int) (int, int) {
	l.measureSelf(maxW, maxH, maxW, maxH)

	if l.Orientation == Horizontal {
		l.measureAxis(l.w, l.h, true)
	} else {
		l.measureAxis(l.w, l.h, false)
	}
	return l.w, l.h
}

// measureAxis measures every child along the primary axis (width if
// horizontal, height if vertical), giving fixed/wrap children their own size
// first and splitting the remainder evenly among MatchParent children.
func (l *LinearLayout) measureAxis(w, h int, horizontal bool) {
	primary := h
	if horizontal {
		primary = w
	}
	dividerCost := 0
	if horizontal && l.Divider && len(l.Children) > 1 {
		dividerCost = len(l.Children) - 1
	}
	remaining := primary - dividerCost

	var matchCount int
	for _, c := range l.Children {
		decl := c.HeightDecl()
		if horizontal {
			decl = c.WidthDecl()
		}
		if decl.Mode == MatchParent {
			matchCount++
			continue
		}
		cw, ch := w, h
		if horizontal {
			cw = remaining
		} else {
			ch = remaining
		}
		gw, gh := c.Measure(cw, ch)
		if horizontal {
			remaining -= gw
		} else {
			remaining -= gh
		}
	}

	if matchCount == 0 {
		return
	}
	share := remaining / matchCount
	extra := remaining % matchCount
	i := 0
	for _, c := range l.Children {
		decl := c.HeightDecl()
		if horizontal {
			decl = c.WidthDecl()
		}
		if decl.Mode != MatchParent {
			continue
		}
		own := share
		if i == matchCount-1 {
			own += extra
		}
		i++
		if horizontal {
			c.Measure(own, h)
		} else {
			c.Measure(w, own)
		}
	}
}

func (l *LinearLayout) Layout(x, y int) {
	l.Base.Layout(x, y)
	cx, cy := x, y
	for i, c := range l.Children {
		c.Layout(cx, cy)
		if l.Orientation == Horizontal {
			cx += c.W()
			if l.Divider && i < len(l.Children)-1 {
				cx++
			}
		} else {
			cy += c.H()
		}
	}
}

func (l *LinearLayout) Render() string {
	blocks := make([]string, 0, len(l.Children)*2)
	for i, c := range l.Children {
		blocks = append(blocks, c.Render())
		if l.Orientation == Horizontal && l.Divider && i < len(l.Children)-1 {
			blocks = append(blocks, RenderDivider(l.h+2))
		}
	}
	if l.Orientation == Horizontal {
		return padBlock(lipgloss.JoinHorizontal(lipgloss.Top, blocks...), l.w, l.h)
	}
	return padBlock(lipgloss.JoinVertical(lipgloss.Left, blocks...), l.w, l.h)
}

func (l *LinearLayout) HandleEvent(ev any) bool {
	dirty := false
	for _, c := range l.Children {
		if c.HandleEvent(ev) {
			dirty = true
		}
	}
	if dirty {
		l.SetDirty(true)
	}
	return dirty
}
