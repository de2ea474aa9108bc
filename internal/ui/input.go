package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/aparte-go/aparte/internal/editor"
	"github.com/aparte-go/aparte/internal/styles"
	"github.com/aparte-go/aparte/internal/tty"
)

// Input is the bottom row of the view tree: the line-editor's buffer with
// an overlaid cursor, rendered via internal/tty.RenderWithCursor the way
// this module's cursor styling was grounded from the start (internal/tty's
// cursor.go/csiu.go predate this view and already expect to draw over an
// arbitrary single-line content string).
type Input struct {
	Base
	Editor  *editor.Editor
	Focused bool
}

// NewInput builds an Input view over ed, declared to match its parent's
// width, fixed at one row.
func NewInput(ed *editor.Editor) *Input {
	return &Input{Base: NewBase(Match(), Abs(1)), Editor: ed}
}

func (i *Input) Measure(maxW, maxH int) (int, int) {
	i.measureSelf(maxW, maxH, maxW, 1)
	return i.w, i.h
}

func (i *Input) Render() string {
	prompt := "> "
	content := prompt + i.Editor.Display()
	col := len(prompt) + i.Editor.DisplayCol()

	c := styles.GetCurrentTheme().Colors
	styled := lipgloss.NewStyle().Foreground(lipgloss.Color(c.TextPrimary)).Render(content)
	withCursor := tty.RenderWithCursor(styled, 0, col, i.Focused)
	return padBlock(withCursor, i.w, i.h)
}

// HandleEvent marks the view dirty whenever it is asked to redraw; the
// actual key handling happens in the owning UI plugin, which has the
// account/conversation context needed to address AutoComplete events, and
// calls Editor.HandleKey directly before forwarding here.
func (i *Input) HandleEvent(ev any) bool {
	i.SetDirty(true)
	return true
}
