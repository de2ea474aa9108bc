// Package styles holds the colour palette and lipgloss styles shared by the
// terminal UI: title bar, window bar, roster presence colours, and the two
// built-in themes. Trimmed from wilbur182-forge's internal/styles, which
// carries many more theme fields (git-blame-age gradients, diff colours,
// button hover states) this domain has no use for.
package styles

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ColorPalette holds the colours a theme assigns to each UI concern.
type ColorPalette struct {
	Primary      string `json:"primary"`
	Secondary    string `json:"secondary"`
	Accent       string `json:"accent"`
	Error        string `json:"error"`
	Success      string `json:"success"`
	TextPrimary  string `json:"textPrimary"`
	TextMuted    string `json:"textMuted"`
	BgPrimary    string `json:"bgPrimary"`
	BgSecondary  string `json:"bgSecondary"`
	BorderNormal string `json:"borderNormal"`
	BorderActive string `json:"borderActive"`
	Unread       string `json:"unread"`

	// MarkdownTheme names the glamour style used to render message bodies.
	MarkdownTheme string `json:"markdownTheme"`
}

// Theme is a named ColorPalette.
type Theme struct {
	Name   string
	Colors ColorPalette
}

var (
	// DefaultTheme is the built-in dark theme.
	DefaultTheme = Theme{
		Name: "default",
		Colors: ColorPalette{
			Primary:      "#7C3AED",
			Secondary:    "#3B82F6",
			Accent:       "#F59E0B",
			Error:        "#EF4444",
			Success:      "#10B981",
			TextPrimary:  "#F9FAFB",
			TextMuted:    "#6B7280",
			BgPrimary:    "#111827",
			BgSecondary:  "#1F2937",
			BorderNormal: "#374151",
			BorderActive: "#7C3AED",
			Unread:       "#F59E0B",

			MarkdownTheme: "dark",
		},
	}

	// DraculaTheme is an alternative dark theme.
	DraculaTheme = Theme{
		Name: "dracula",
		Colors: ColorPalette{
			Primary:      "#BD93F9",
			Secondary:    "#8BE9FD",
			Accent:       "#FFB86C",
			Error:        "#FF5555",
			Success:      "#50FA7B",
			TextPrimary:  "#F8F8F2",
			TextMuted:    "#6272A4",
			BgPrimary:    "#282A36",
			BgSecondary:  "#343746",
			BorderNormal: "#44475A",
			BorderActive: "#BD93F9",
			Unread:       "#FFB86C",

			MarkdownTheme: "dracula",
		},
	}
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Theme{
		DefaultTheme.Name: DefaultTheme,
		DraculaTheme.Name: DraculaTheme,
	}
	current = DefaultTheme
)

// RegisterTheme adds or replaces a theme by name.
func RegisterTheme(t Theme) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t.Name] = t
}

// GetTheme returns a registered theme by name, or DefaultTheme if unknown.
func GetTheme(name string) Theme {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if t, ok := registry[name]; ok {
		return t
	}
	return DefaultTheme
}

// ListThemes returns the names of every registered theme.
func ListThemes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// ApplyTheme makes name the active theme for subsequent style lookups. It is
// a no-op if name is not registered.
func ApplyTheme(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if t, ok := registry[name]; ok {
		current = t
	}
}

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return current
}

// GetCurrentThemeName returns the active theme's name.
func GetCurrentThemeName() string {
	return GetCurrentTheme().Name
}

// GetMarkdownTheme returns the active theme's glamour style name, used by
// internal/markdown when constructing a glamour.TermRenderer.
func GetMarkdownTheme() string {
	return GetCurrentTheme().Colors.MarkdownTheme
}

// GetSyntaxTheme returns the chroma style name used for fenced code blocks.
// Glamour's "dark"/"dracula" auto styles already select a matching chroma
// theme, so this just mirrors GetMarkdownTheme for callers that want the
// syntax-highlighting name specifically (e.g. a future standalone code
// viewer).
func GetSyntaxTheme() string {
	return GetMarkdownTheme()
}

// Style accessors, evaluated against the active theme each call so a theme
// switch takes effect immediately without rebuilding cached lipgloss.Style
// values.

func TitleBarStyle() lipgloss.Style {
	c := GetCurrentTheme().Colors
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.Primary)).
		Foreground(lipgloss.Color(c.BgPrimary)).
		Bold(true)
}

func WinBarStyle() lipgloss.Style {
	c := GetCurrentTheme().Colors
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.BgSecondary)).
		Foreground(lipgloss.Color(c.TextMuted))
}

func WinBarCurrentStyle() lipgloss.Style {
	c := GetCurrentTheme().Colors
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.BgSecondary)).
		Foreground(lipgloss.Color(c.TextPrimary)).
		Bold(true)
}

func WinBarUnreadStyle() lipgloss.Style {
	c := GetCurrentTheme().Colors
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.BgSecondary)).
		Foreground(lipgloss.Color(c.Unread)).
		Bold(true)
}

func BorderStyle(active bool) lipgloss.Style {
	c := GetCurrentTheme().Colors
	color := c.BorderNormal
	if active {
		color = c.BorderActive
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(GetCurrentTheme().Colors.Error))
}

func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(GetCurrentTheme().Colors.TextMuted))
}

// PresenceColor maps a model.Presence.String() value to a theme colour. The
// roster ListView does not call it; contacts render without a presence
// colour.
func PresenceColor(presence string) lipgloss.Color {
	c := GetCurrentTheme().Colors
	switch presence {
	case "available", "chat":
		return lipgloss.Color(c.Success)
	case "away", "xa":
		return lipgloss.Color(c.Accent)
	case "dnd":
		return lipgloss.Color(c.Error)
	default:
		return lipgloss.Color(c.TextMuted)
	}
}
