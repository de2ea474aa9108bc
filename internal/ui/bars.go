package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aparte-go/aparte/internal/styles"
)

// TitleBar is the single-row strip at the top of the screen: the connected
// account and the active window's name, background-coloured the way
// wilbur182-forge's tdmonitor/statusbar.go renders its top strip.
type TitleBar struct {
	Base
	Account string
	Window  string
}

// NewTitleBar builds a TitleBar declared to match its parent's width, fixed
// at one row.
func NewTitleBar() *TitleBar {
	return &TitleBar{Base: NewBase(Match(), Abs(1))}
}

// SetState updates the bar's text and marks it dirty if it changed.
func (t *TitleBar) SetState(account, window string) {
	if t.Account == account && t.Window == window {
		return
	}
	t.Account, t.Window = account, window
	t.SetDirty(true)
}

func (t *TitleBar) Measure(maxW, maxH int) (int, int) {
	t.measureSelf(maxW, maxH, maxW, 1)
	return t.w, t.h
}

func (t *TitleBar) Render() string {
	c := styles.GetCurrentTheme().Colors
	style := lipgloss.NewStyle().
		Width(t.w).
		Background(lipgloss.Color(c.BgSecondary)).
		Foreground(lipgloss.Color(c.TextPrimary)).
		Bold(true)

	left := t.Account
	right := t.Window
	gap := t.w - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return padBlock(style.Render(left+strings.Repeat(" ", gap)+right), t.w, t.h)
}

func (t *TitleBar) HandleEvent(ev any) bool { return false }

// WinBar is the single-row strip between the frame and the input line: the
// list of open windows, with the active one highlighted and unread ones
// marked, mirroring wilbur182-forge's tab-bar idiom in internal/app/model.go
// (tab bounds drive both rendering and mouse hit-testing there; WinBar only
// needs the rendering half, since window switching here is keyboard/command
// driven per spec.md §4.7).
type WinBar struct {
	Base
	Windows []string
	Active  string
	Unread  map[string]bool
}

// NewWinBar builds a WinBar declared to match its parent's width, fixed at
// one row.
func NewWinBar() *WinBar {
	return &WinBar{Base: NewBase(Match(), Abs(1)), Unread: make(map[string]bool)}
}

// SetState updates the bar's window list/active/unread state.
func (w *WinBar) SetState(windows []string, active string, unread map[string]bool) {
	w.Windows, w.Active, w.Unread = windows, active, unread
	w.SetDirty(true)
}

func (w *WinBar) Measure(maxW, maxH int) (int, int) {
	w.measureSelf(maxW, maxH, maxW, 1)
	return w.w, w.h
}

func (w *WinBar) Render() string {
	c := styles.GetCurrentTheme().Colors
	base := lipgloss.NewStyle().Background(lipgloss.Color(c.BgSecondary))
	activeStyle := base.Foreground(lipgloss.Color(c.Primary)).Bold(true)
	unreadStyle := base.Foreground(lipgloss.Color(c.Unread)).Bold(true)
	normalStyle := base.Foreground(lipgloss.Color(c.TextMuted))

	parts := make([]string, 0, len(w.Windows))
	for _, name := range w.Windows {
		switch {
		case name == w.Active:
			parts = append(parts, activeStyle.Render("["+name+"]"))
		case w.Unread[name]:
			parts = append(parts, unreadStyle.Render("*"+name))
		default:
			parts = append(parts, normalStyle.Render(name))
		}
	}
	line := strings.Join(parts, " ")
	return padBlock(base.Width(w.w).Render(line), w.w, w.h)
}

func (w *WinBar) HandleEvent(ev any) bool { return false }
