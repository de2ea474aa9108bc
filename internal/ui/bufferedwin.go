package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aparte-go/aparte/internal/styles"
)

// BufferedWin shows an append-only, scrollable log of T — the message
// history of a chat or group conversation (spec.md §4.5's BufferedWin
// contract) — one line per T.String(). Grounded on wilbur182-forge's
// MessageViewport (internal/plugins/chat/view.go): a bubbles/viewport.Model
// holds the rendered content, auto-follows the tail while the user hasn't
// scrolled up (atBottom), and stops following once they have.
type BufferedWin[T interface{ String() string }] struct {
	Base
	vp       viewport.Model
	items    []T
	atBottom bool
}

// NewBufferedWin builds an empty BufferedWin with the given declared size.
func NewBufferedWin[T interface{ String() string }](wDecl, hDecl Dimension) *BufferedWin[T] {
	return &BufferedWin[T]{
		Base:     NewBase(wDecl, hDecl),
		vp:       viewport.New(0, 0),
		atBottom: true,
	}
}

// Append adds one item to the buffer and re-renders, following the tail if
// the view was already scrolled to the bottom.
func (b *BufferedWin[T]) Append(item T) {
	b.items = append(b.items, item)
	b.renderContent()
	b.SetDirty(true)
}

// Items returns the full buffer, oldest first.
func (b *BufferedWin[T]) Items() []T { return b.items }

func (b *BufferedWin[T]) renderContent() {
	lines := make([]string, len(b.items))
	for i, it := range b.items {
		lines[i] = it.String()
	}
	content := strings.Join(lines, "\n")
	if content == "" {
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color(styles.GetCurrentTheme().Colors.TextMuted)).
			Render("(no messages yet)")
	}
	b.vp.SetContent(content)
	if b.atBottom {
		b.vp.GotoBottom()
	}
}

func (b *BufferedWin[T]) Measure(maxW, maxH int) (int, int) {
	b.measureSelf(maxW, maxH, maxW, maxH)
	b.vp.Width, b.vp.Height = b.w, b.h
	b.renderContent()
	return b.w, b.h
}

func (b *BufferedWin[T]) Render() string {
	return padBlock(b.vp.View(), b.w, b.h)
}

// HandleEvent forwards scroll keys (arrows, PgUp/PgDn, mouse wheel) and
// mouse events to the embedded viewport, tracking whether the user has
// scrolled away from the tail so a subsequent Append knows whether to
// auto-follow.
func (b *BufferedWin[T]) HandleEvent(ev any) bool {
	switch ev.(type) {
	case tea.KeyMsg, tea.MouseMsg:
		var cmd tea.Cmd
		b.vp, cmd = b.vp.Update(ev)
		_ = cmd
		b.atBottom = b.vp.AtBottom()
		b.SetDirty(true)
		return true
	default:
		return false
	}
}

// GotoBottom resumes following the tail, e.g. when the window becomes
// active again after being read.
func (b *BufferedWin[T]) GotoBottom() {
	b.atBottom = true
	b.vp.GotoBottom()
	b.SetDirty(true)
}
