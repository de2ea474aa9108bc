// Package plugin defines the protocol feature plugin contract (spec.md §4.2,
// §4.8) and the registry that owns their lifecycle: ordered init with
// panic-recovery-driven silent degradation, start, and reverse-order stop.
//
// Grounded on wilbur182-forge's internal/plugin registry, whose Registry
// type is kept close to verbatim; the Plugin interface itself was never
// present in the retrieved teacher tree (only inferred from registry.go's
// calls to ID/Init/Start/Stop) and is authored fresh here, extended with
// event.Listener so the core can register every plugin with the dispatcher
// in one line.
package plugin

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aparte-go/aparte/internal/event"
)

// Plugin is one protocol feature module (disco, carbons, bookmarks, muc,
// roster, completion). Init runs once at registration time and may return
// an error to mark the plugin permanently unavailable without aborting
// startup. Start returns any initial tea.Cmd the plugin needs scheduled
// (e.g. an initial bookmarks retrieval). Stop releases resources on
// shutdown or reconnect.
type Plugin interface {
	ID() string
	Init(ctx *Context) error
	Start() tea.Cmd
	Stop()
	event.Listener
}
