package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aparte-go/aparte/internal/styles"
)

// RenderDivider renders the vertical divider LinearLayout draws between the
// message window and the occupant/roster ListView in a horizontal split.
// Height should be the full pane height; divider renders height-2 lines to
// stop above the bottom border.
func RenderDivider(height int) string {
	dividerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(styles.GetCurrentTheme().Colors.BorderNormal)).
		MarginTop(1)

	// Build vertical bar (height-2 to stop above bottom border)
	var sb strings.Builder
	for i := 0; i < height-2; i++ {
		sb.WriteString("│")
		if i < height-3 {
			sb.WriteString("\n")
		}
	}

	return dividerStyle.Render(sb.String())
}
