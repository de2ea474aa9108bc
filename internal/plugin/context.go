package plugin

import (
	"context"
	"encoding/xml"
	"log/slog"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"

	"github.com/aparte-go/aparte/internal/command"
	"github.com/aparte-go/aparte/internal/config"
	"github.com/aparte-go/aparte/internal/event"
	"github.com/aparte-go/aparte/internal/model"
)

// BindingRegistrar allows plugins to register key bindings dynamically.
// Implemented by keymap.Registry.
type BindingRegistrar interface {
	RegisterPluginBinding(key, command, context string)
}

// Core is the subset of the session core (spec.md §4.4) a plugin is allowed
// to call into during Init/Start or from an OnEvent callback. It is an
// interface, not a concrete *core.Core, so this package never imports the
// core package that in turn imports Registry.
type Core interface {
	// CurrentAccount returns the account the console window is currently
	// scoped to, or the zero Account if none is connected.
	CurrentAccount() model.Account

	// Send asks the core to deliver msg over the wire for account.
	Send(account string, msg model.XmppMessage) error

	// Schedule enqueues ev on the shared dispatcher without re-entering
	// Dispatch from inside a listener callback.
	Schedule(ev event.Event)

	// AddCommand registers spec under name in the shared command registry.
	AddCommand(spec *command.Spec)

	// CommandNames lists every registered root command name, for the
	// completion plugin's column-0 suggestions.
	CommandNames() []string

	// Log appends a local log line to the console window.
	Log(line string)

	// RawSession exposes the account's live wire session for plugins that
	// need to send an IQ or directed presence themselves (bookmarks, MUC,
	// disco), rather than going through Send's chat-message-only shape.
	// Returns nil if the account is not connected.
	RawSession(account string) RawSession

	// Registry exposes the shared plugin registry so one plugin can look up
	// another by ID (e.g. carbons registering its namespace with disco).
	Registry() *Registry
}

// RawSession is the slice of xmppsession.Session a plugin is allowed to
// call directly. Declared as an interface here (rather than importing
// xmppsession's concrete type) so this package has no dependency on the
// transport implementation.
type RawSession interface {
	SendIQ(ctx context.Context, iq stanza.IQ, payload xml.TokenReader) (xmlstream.TokenReadCloser, error)
	SendIQResult(ctx context.Context, iq stanza.IQ, payload xml.TokenReader) error
	UnmarshalIQ(ctx context.Context, iq stanza.IQ, payload xml.TokenReader, v any) error
	SendPresence(ctx context.Context, p stanza.Presence) error
	SendPresencePayload(ctx context.Context, p stanza.Presence, payload xml.TokenReader) error
	SendMessage(ctx context.Context, m model.XmppMessage) error
	LocalAddr() jid.JID
}

// Context provides shared resources to plugins during initialization.
type Context struct {
	ConfigDir string
	Config    *config.Config
	EventBus  *event.Dispatcher
	Logger    *slog.Logger
	Keymap    BindingRegistrar
	Core      Core
	Epoch     uint64 // incremented by Registry.Reinit to invalidate stale async messages
}
