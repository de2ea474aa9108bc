// Package core implements the session core spec.md §4.4 describes: the
// single owner of the account connection, the plugin registry, and the
// event dispatcher, driving the cooperative main loop that turns wire
// activity and terminal input into Events.
//
// Grounded on original_source/src/main.rs's Aparte/PluginManager wiring
// (connect, register Disco+Carbons, drain the stanza stream, unwrap
// carbons before re-dispatching) and on wilbur182-forge's cmd/sidecar
// bootstrap shape for how a bubbletea root model owns a plugin registry
// and feeds it tea.Msg-derived events.
package core

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"mellium.im/xmpp/jid"

	"github.com/aparte-go/aparte/internal/apterr"
	"github.com/aparte-go/aparte/internal/command"
	"github.com/aparte-go/aparte/internal/config"
	"github.com/aparte-go/aparte/internal/event"
	"github.com/aparte-go/aparte/internal/model"
	"github.com/aparte-go/aparte/internal/plugin"
	"github.com/aparte-go/aparte/internal/xmppsession"
)

// ReconnectMsg is delivered when a reconnect backoff timer fires.
type ReconnectMsg struct{ Account string }

// IncomingMsg wraps one value read off an xmppsession.Session's Incoming
// channel, tagged with the account it came from.
type IncomingMsg struct {
	Account string
	Value   any
}

// Core owns one or more account connections, the shared plugin registry and
// command registry, and the event dispatcher every plugin and the terminal
// UI are registered against.
type Core struct {
	cfg      *config.Config
	logger   *slog.Logger
	bus      *event.Dispatcher
	commands *command.Registry
	registry *plugin.Registry

	accounts map[string]*accountConn // keyed by bare jid string
	current  string                  // bare jid of the account the console is scoped to
}

type accountConn struct {
	account    model.Account
	session    *xmppsession.Session
	cfg        config.AccountConfig
	backoff    time.Duration
	generation int // incremented each reconnect attempt, guards stale ReconnectMsg
}

// New builds a Core. The returned Core has no accounts connected yet; call
// AddAccount then Connect for each configured account.
func New(cfg *config.Config, bus *event.Dispatcher, logger *slog.Logger, commands *command.Registry) *Core {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Core{
		cfg:      cfg,
		logger:   logger,
		bus:      bus,
		commands: commands,
		accounts: make(map[string]*accountConn),
	}
}

// SetRegistry attaches the plugin registry once constructed (the registry's
// Context embeds a Core interface satisfied by this type, so the registry
// can only be built after New returns).
func (c *Core) SetRegistry(r *plugin.Registry) { c.registry = r }

// AddAccount registers an account for later Connect calls.
func (c *Core) AddAccount(j jid.JID, acctCfg config.AccountConfig) {
	c.accounts[j.Bare().String()] = &accountConn{
		account: model.Account{JID: j},
		cfg:     acctCfg,
		backoff: firstBackoff(acctCfg),
	}
	if c.current == "" {
		c.current = j.Bare().String()
	}
}

// CurrentAccount implements plugin.Core.
func (c *Core) CurrentAccount() model.Account {
	if ac, ok := c.accounts[c.current]; ok {
		return ac.account
	}
	return model.Account{}
}

// Schedule implements plugin.Core.
func (c *Core) Schedule(ev event.Event) { c.bus.Schedule(ev) }

// AddCommand implements plugin.Core.
func (c *Core) AddCommand(spec *command.Spec) { c.commands.Add(spec) }

// CommandNames implements plugin.Core.
func (c *Core) CommandNames() []string { return c.commands.Names() }

// Log implements plugin.Core.
func (c *Core) Log(line string) { c.bus.Schedule(event.Message{Msg: model.NewLog(line)}) }

// Send implements plugin.Core: looks up the account's live session and
// writes the message as given; it does not stamp an id on it.
func (c *Core) Send(account string, m model.XmppMessage) error {
	ac, ok := c.accounts[account]
	if !ok || ac.session == nil || !ac.session.Connected() {
		return apterr.TransportErr(errNotConnected(account))
	}
	return ac.session.SendMessage(context.Background(), m)
}

// Session returns the live xmppsession.Session for account, or nil.
func (c *Core) Session(account string) *xmppsession.Session {
	ac, ok := c.accounts[account]
	if !ok {
		return nil
	}
	return ac.session
}

// RawSession implements plugin.Core.
func (c *Core) RawSession(account string) plugin.RawSession {
	ac, ok := c.accounts[account]
	if !ok || ac.session == nil || !ac.session.Connected() {
		return nil
	}
	return ac.session
}

// Connect dials the named account and, on success, resets its backoff and
// starts draining its Incoming channel. Returns a tea.Cmd the caller must
// fold into the bubbletea program's command batch.
func (c *Core) Connect(account string) tea.Cmd {
	ac, ok := c.accounts[account]
	if !ok {
		return nil
	}

	sess := xmppsession.New(ac.account.JID, ac.cfg.Password)
	ac.session = sess
	ac.generation++
	gen := ac.generation

	return func() tea.Msg {
		if err := sess.Connect(context.Background()); err != nil {
			return c.reconnectAfter(account, gen)()
		}
		ac.backoff = firstBackoff(ac.cfg)
		c.bus.Schedule(event.Connected{Account: account, JID: sess.LocalAddr()})
		return waitIncoming(account, sess.Incoming())()
	}
}

// reconnectAfter schedules a ReconnectMsg after the account's current
// backoff, then doubles the backoff up to ReconnectMax (spec.md §4.4's
// 1s/2s/4s/.../30s cap).
func (c *Core) reconnectAfter(account string, gen int) tea.Cmd {
	ac, ok := c.accounts[account]
	if !ok {
		return nil
	}
	if ac.generation != gen {
		return nil // superseded by a newer Connect call
	}
	delay := ac.backoff
	maxBackoff := ac.cfg.ReconnectMax
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	if ac.backoff < maxBackoff {
		ac.backoff *= 2
		if ac.backoff > maxBackoff {
			ac.backoff = maxBackoff
		}
	}
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ReconnectMsg{Account: account}
	})
}

func firstBackoff(cfg config.AccountConfig) time.Duration {
	if cfg.ReconnectMin > 0 {
		return cfg.ReconnectMin
	}
	return time.Second
}

// waitIncoming returns a tea.Cmd that blocks on one value from ch and
// reports it as an IncomingMsg, re-arming itself is the caller's
// responsibility (Update re-issues waitIncoming after handling each one) so
// delivery stays on bubbletea's single goroutine.
func waitIncoming(account string, ch <-chan any) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return IncomingMsg{Account: account, Value: v}
	}
}

// HandleIncoming translates one value drained off a session's Incoming
// channel into bus events, and returns the tea.Cmd that resumes waiting for
// the next one (once the session has disconnected, the reconnect timer's
// tea.Cmd instead).
func (c *Core) HandleIncoming(msg IncomingMsg) tea.Cmd {
	ac, ok := c.accounts[msg.Account]
	if !ok {
		return nil
	}

	switch v := msg.Value.(type) {
	case xmppsession.IncomingMessage:
		m := model.NewIncoming(v.Msg)
		if v.Sent {
			m = model.NewOutgoing(v.Msg)
		}
		c.bus.Dispatch(event.Message{Account: msg.Account, Msg: m})
		return waitIncoming(msg.Account, ac.session.Incoming())

	case xmppsession.IncomingPresence:
		c.bus.Dispatch(event.Stanza{Account: msg.Account, Name: "presence", Raw: v})
		return waitIncoming(msg.Account, ac.session.Incoming())

	case xmppsession.IncomingIQ:
		c.bus.Dispatch(event.Stanza{Account: msg.Account, Name: "iq", Raw: v, Inner: v.Name})
		return waitIncoming(msg.Account, ac.session.Incoming())

	case xmppsession.Disconnected:
		c.bus.Dispatch(event.Disconnected{Err: v.Err})
		return c.reconnectAfter(msg.Account, ac.generation)

	default:
		return waitIncoming(msg.Account, ac.session.Incoming())
	}
}

// Registry returns the shared plugin registry.
func (c *Core) Registry() *plugin.Registry { return c.registry }

// Commands returns the shared command registry.
func (c *Core) Commands() *command.Registry { return c.commands }

// Bus returns the shared event dispatcher.
func (c *Core) Bus() *event.Dispatcher { return c.bus }

type errString string

func (e errString) Error() string { return string(e) }

func errNotConnected(account string) error {
	return errString("account not connected: " + account)
}
