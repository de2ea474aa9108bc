// Package event defines the closed event taxonomy that flows between the
// session core, the plugin registry and the terminal UI, and the
// dispatcher that fans events out to every registered listener in
// registration order.
//
// Delivery is synchronous within the main task: Dispatcher.Dispatch walks
// listeners for one event to completion before the next event (whether
// injected externally or scheduled by a handler) is drained. This mirrors
// spec.md §4.1's ordering guarantee and is grounded on the way
// wilbur182-forge's plugin registry walks its plugin slice once per
// tea.Msg inside Model.Update.
package event

import (
	"log/slog"
	"sync"

	"mellium.im/xmpp/jid"
)

// Event is the marker interface implemented by every event variant. A
// closed set (not meant to be extended outside this package) matching
// spec.md §3's Event union.
type Event interface{ isEvent() }

type base struct{}

func (base) isEvent() {}

// Connected is published once the session establishes a stream and binds a
// resource.
type Connected struct {
	base
	Account string
	JID     jid.JID
}

// Disconnected is published when the transport drops.
type Disconnected struct {
	base
	Err error
}

// Stanza carries a raw top-level XML element observed on the stream before
// any upcast to a more specific event.
type Stanza struct {
	base
	Account string
	Name    string
	Raw     any
	Inner   any
}

// Message carries a chat/groupchat/log message, optionally scoped to an
// account.
type Message struct {
	base
	Account string
	Msg     any // model.Message; any to avoid an import cycle with model
}

// Chat requests that a chat window be opened for contact.
type Chat struct {
	base
	Account string
	Contact jid.JID
}

// Joined is published once a MUC join completes.
type Joined struct {
	base
	Account     string
	Channel     jid.JID
	UserRequest bool
}

// Occupant reports a MUC occupant add/update/remove.
type Occupant struct {
	base
	Conversation string
	Occupant     any // model.Occupant
	Removed      bool
}

// Contact reports a new roster entry.
type Contact struct {
	base
	Account string
	Contact any // model.Contact
}

// ContactUpdate reports a roster entry presence/metadata change.
type ContactUpdate struct {
	base
	Account string
	Contact any // model.Contact
}

// Bookmark reports a bookmark add/update.
type Bookmark struct {
	base
	Bookmark any // model.Bookmark
}

// DeletedBookmark reports a retracted bookmark.
type DeletedBookmark struct {
	base
	JID jid.JID
}

// Key carries one raw terminal key event.
type Key struct {
	base
	Name string // bubbletea-style key string, e.g. "ctrl+a", "pgup"
	Rune rune
}

// WindowChange is published on SIGWINCH / terminal resize.
type WindowChange struct {
	base
	Width, Height int
}

// Win requests switching to the named window.
type Win struct {
	base
	Name string
}

// ChangeWindow is published after the current window actually changed.
type ChangeWindow struct {
	base
	Name string
}

// Completed carries the resolver's answer to a tab-completion request.
type Completed struct {
	base
	Buf    string
	Cursor int
}

// AutoComplete is published on TAB.
type AutoComplete struct {
	base
	Account      string
	Conversation string
	RawBuf       string
	Cursor       int
}

// ResetCompletion is published on any non-TAB key after a completion cycle.
type ResetCompletion struct{ base }

// ReadPassword switches the input line into masked mode; the given command
// is re-scheduled with the captured secret appended once the user submits.
type ReadPassword struct {
	base
	Command any // command.Command
}

// Command carries a fully parsed slash command.
type Command struct {
	base
	Cmd any // command.Command
}

// CommandError reports a parse or dispatch failure for the console.
type CommandError struct {
	base
	Message string
}

// SendMessage asks the core to send a chat/groupchat message.
type SendMessage struct {
	base
	Account string
	Msg     any // model.Message
}

// LoadHistory requests MAM backlog for a conversation (not wired to a
// transport implementation; reserved for a future plugin).
type LoadHistory struct {
	base
	JID jid.JID
}

// Listener receives every event in registration order. Implementations
// must not block or suspend (spec.md §5).
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) OnEvent(e Event) { f(e) }

// Dispatcher is the single sink spec.md §4.1 describes: events scheduled
// during a callback are appended to a tail queue and replayed, in FIFO
// order, only after the event currently being dispatched has been seen by
// every listener.
type Dispatcher struct {
	mu        sync.Mutex
	listeners []Listener
	queue     []Event
	draining  bool
	logger    *slog.Logger
}

// New creates a Dispatcher that logs nothing.
func New() *Dispatcher {
	return &Dispatcher{logger: slog.New(slog.DiscardHandler)}
}

// NewWithLogger creates a Dispatcher that logs every dispatched event at
// debug level.
func NewWithLogger(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{logger: logger}
}

// Register appends a listener. Listeners are invoked in registration
// order, matching spec.md §4.2's plugin init order.
func (d *Dispatcher) Register(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Dispatch publishes ev immediately. If called while another Dispatch is
// already draining the queue on this goroutine, ev is appended to the tail
// instead of being delivered out of order.
func (d *Dispatcher) Dispatch(ev Event) {
	d.mu.Lock()
	if d.draining {
		d.queue = append(d.queue, ev)
		d.mu.Unlock()
		return
	}
	d.draining = true
	d.mu.Unlock()

	d.deliver(ev)

	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.draining = false
			d.mu.Unlock()
			return
		}
		next := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()
		d.deliver(next)
	}
}

// Schedule enqueues ev onto the tail. Called from inside a dispatch, ev is
// delivered after the current event finishes, so cause precedes effect
// without re-entering Dispatch from a listener callback; called outside any
// dispatch, it drains the queue (ev included) before returning.
func (d *Dispatcher) Schedule(ev Event) {
	d.mu.Lock()
	d.queue = append(d.queue, ev)
	draining := d.draining
	d.mu.Unlock()

	if !draining {
		d.Dispatch(nil) // drains the queue without delivering a synthetic event
	}
}

func (d *Dispatcher) deliver(ev Event) {
	if ev == nil {
		return
	}
	d.logger.Debug("dispatch", "event", ev)
	d.mu.Lock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.Unlock()

	for _, l := range listeners {
		l.OnEvent(ev)
	}
}

// Close releases resources held by the dispatcher. Present for symmetry
// with forge's event.Dispatcher, which a caller defers right after
// construction.
func (d *Dispatcher) Close() {}
