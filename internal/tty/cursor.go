package tty

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/aparte-go/aparte/internal/styles"
)

// CursorStyle returns the cursor style using the active theme's colours:
// bold reverse video so the cursor stands out regardless of the terminal's
// own palette.
func CursorStyle() lipgloss.Style {
	c := styles.GetCurrentTheme().Colors
	return lipgloss.NewStyle().
		Reverse(true).
		Bold(true).
		Background(lipgloss.Color(c.Primary)).
		Foreground(lipgloss.Color(c.BgPrimary))
}

// RenderWithCursor overlays the cursor on content at the specified position.
// cursorRow is relative to the visible content (0 = first visible line).
// cursorCol is the column within the line (0-indexed), in visual columns as
// go-runewidth would measure them. Preserves ANSI escape codes in
// surrounding content while rendering the cursor.
func RenderWithCursor(content string, cursorRow, cursorCol int, visible bool) string {
	if !visible || cursorRow < 0 || cursorCol < 0 {
		return content
	}

	lines := strings.Split(content, "\n")
	if cursorRow >= len(lines) {
		return content
	}

	line := lines[cursorRow]
	lineWidth := ansi.StringWidth(line)

	if cursorCol >= lineWidth {
		padding := max(cursorCol-lineWidth, 0)
		lines[cursorRow] = line + strings.Repeat(" ", padding) + CursorStyle().Render("█")
	} else {
		before := ansi.Cut(line, 0, cursorCol)
		char := ansi.Cut(line, cursorCol, cursorCol+1)
		after := ansi.Cut(line, cursorCol+1, lineWidth)

		charStripped := ansi.Strip(char)
		if charStripped == "" || charStripped == " " {
			charStripped = "█"
		}
		lines[cursorRow] = before + CursorStyle().Render(charStripped) + after
	}

	return strings.Join(lines, "\n")
}
