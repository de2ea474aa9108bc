// Package uiplugin implements the terminal UI component spec.md §4.7
// describes: the root view tree, window management (unread tracking,
// Alt-a cycling, /win), and key routing into either the line editor or a
// parsed slash command.
//
// Unlike the protocol feature plugins in internal/plugins/*, this is not
// registered through plugin.Registry — it is the bubbletea root Model
// itself (mirroring wilbur182-forge's internal/app.Model, which likewise
// owns a plugin.Registry and multiplexes rendering across it rather than
// being one of the plugins it owns), and is registered with the event bus
// directly by cmd/aparte/main.go.
package uiplugin

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"mellium.im/xmpp/jid"

	"github.com/aparte-go/aparte/internal/command"
	"github.com/aparte-go/aparte/internal/config"
	"github.com/aparte-go/aparte/internal/core"
	"github.com/aparte-go/aparte/internal/editor"
	"github.com/aparte-go/aparte/internal/event"
	"github.com/aparte-go/aparte/internal/model"
	"github.com/aparte-go/aparte/internal/plugin"
	"github.com/aparte-go/aparte/internal/ui"
)

const consoleWindow = "console"

// window is one entry in the frame: the console, a chat, or a group.
type window struct {
	name    string
	account string
	kind    model.ConversationKind
	msgs    *ui.BufferedWin[model.Message]
	roster  *ui.ListView[string, model.Contact]
	occ     *ui.ListView[model.Role, model.Occupant]
}

// Model is the root bubbletea Model driving the terminal UI.
type Model struct {
	core     *core.Core
	registry *plugin.Registry
	cmds     *command.Registry
	accounts []string

	ed *editor.Editor

	titleBar *ui.TitleBar
	winBar   *ui.WinBar
	frame    *ui.FrameLayout[string]
	input    *ui.Input
	root     *ui.LinearLayout

	windows map[string]*window
	order   []string
	unread  []string
	current string

	pendingPasswordCmd *command.Command

	width, height int
}

// New builds the terminal UI model. accounts lists the bare-jid accounts
// the session core already knows about (via core.AddAccount) that should
// be dialed once the bubbletea program starts.
func New(c *core.Core, reg *plugin.Registry, cmds *command.Registry, accounts []string) *Model {
	ed := editor.New()

	m := &Model{
		core:     c,
		registry: reg,
		cmds:     cmds,
		accounts: accounts,
		ed:       ed,
		titleBar: ui.NewTitleBar(),
		winBar:   ui.NewWinBar(),
		frame:    ui.NewFrameLayout[string](ui.Match(), ui.Match()),
		input:    ui.NewInput(ed),
		windows:  make(map[string]*window),
	}
	m.input.Focused = true
	m.root = ui.NewLinearLayout(ui.Vertical, ui.Match(), ui.Match(), m.titleBar, m.frame, m.winBar, m.input)

	m.ensureConsole()
	m.current = consoleWindow
	m.frame.SetActive(consoleWindow)
	m.registerCommands()
	m.refreshBars()
	return m
}

func (m *Model) registerCommands() {
	empty := ""
	m.cmds.Add(&command.Spec{
		Name: "connect",
		Help: "/connect <jid> — connect an account, prompting for its password",
		Positionals: []command.Positional{
			{Name: "jid", Parse: command.StringParser},
		},
	})
	m.cmds.Add(&command.Spec{
		Name: "msg",
		Help: "/msg <jid> [text] — open or reuse a chat window",
		Positionals: []command.Positional{
			{Name: "jid", Parse: command.StringParser},
			{Name: "text", Parse: command.StringParser, Default: &empty},
		},
	})
	m.cmds.Add(&command.Spec{
		Name: "win",
		Help: "/win <name> — switch window",
		Positionals: []command.Positional{
			{Name: "name", Parse: command.StringParser},
		},
	})
	m.cmds.Add(&command.Spec{
		Name: "close",
		Help: "/close — close the current window (except console)",
	})
	m.cmds.Add(&command.Spec{
		Name: "quit",
		Help: "/quit — exit aparte",
	})
}

// Init implements tea.Model: starts every registered protocol plugin and
// dials every configured account.
func (m *Model) Init() tea.Cmd {
	batch := m.registry.Start()
	for _, acc := range m.accounts {
		batch = append(batch, m.core.Connect(acc))
	}
	return tea.Batch(batch...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case core.IncomingMsg:
		return m, m.core.HandleIncoming(v)
	case core.ReconnectMsg:
		return m, m.core.Connect(v.Account)
	case tea.WindowSizeMsg:
		m.width, m.height = v.Width, v.Height
		m.root.Measure(v.Width, v.Height)
		m.root.Layout(0, 0)
		m.core.Schedule(event.WindowChange{Width: v.Width, Height: v.Height})
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(v)
	case tea.QuitMsg:
		return m, tea.Quit
	default:
		m.root.HandleEvent(msg)
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	return m.root.Render()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Alt && msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		switch msg.Runes[0] {
		case 'a':
			m.cycleUnread()
			return nil
		}
	}

	switch m.ed.HandleKey(msg) {
	case editor.Validate:
		return m.handleValidate()
	case editor.RequestCompletion:
		m.core.Schedule(event.AutoComplete{
			Account:      m.currentAccount(),
			Conversation: m.current,
			RawBuf:       m.ed.Buf(),
			Cursor:       m.ed.Cursor(),
		})
	case editor.ResetCompletion:
		m.core.Schedule(event.ResetCompletion{})
	case editor.Unhandled:
		m.root.HandleEvent(msg)
	}
	return nil
}

func (m *Model) handleValidate() tea.Cmd {
	buf, _ := m.ed.Validate()

	if m.pendingPasswordCmd != nil {
		cmd := m.pendingPasswordCmd
		m.pendingPasswordCmd = nil
		if len(cmd.Path) > 0 && cmd.Path[0] == "connect" {
			// /connect is the one password-gated command this plugin must
			// finish itself: dialing returns a blocking tea.Cmd that has to
			// reach the bubbletea runtime through Update's return value, not
			// be run inline from an event.Listener callback (spec.md §5
			// forbids plugin callbacks from suspending).
			return m.finishConnect(cmd, buf)
		}
		cmd.Args = append(cmd.Args, buf)
		m.core.Schedule(event.Command{Cmd: cmd})
		return nil
	}

	if buf == "" {
		return nil
	}

	if strings.HasPrefix(buf, "/") {
		cmd, err := m.cmds.Parse(buf)
		if err != nil {
			m.core.Schedule(event.CommandError{Message: err.Error()})
			return nil
		}
		if len(cmd.Path) > 0 {
			if claimed, quitCmd := m.handleOwnCommand(cmd); claimed {
				return quitCmd
			}
		}
		m.core.Schedule(event.Command{Cmd: cmd})
		return nil
	}

	m.sendToCurrent(buf)
	return nil
}

// handleOwnCommand handles the window-management commands this plugin
// registered itself (connect/msg/win/close/quit) and reports whether it
// claimed cmd, so callers don't also forward it to the bus.
func (m *Model) handleOwnCommand(cmd *command.Command) (claimed bool, quitCmd tea.Cmd) {
	switch cmd.Path[0] {
	case "win":
		name, _ := cmd.Values["name"].(string)
		if _, ok := m.windows[name]; !ok {
			m.core.Schedule(event.CommandError{Message: fmt.Sprintf("no such window: %q", name)})
			return true, nil
		}
		m.changeWindow(name)
		return true, nil
	case "close":
		if m.current == consoleWindow {
			m.core.Schedule(event.CommandError{Message: "the console window cannot be closed"})
			return true, nil
		}
		m.closeWindow(m.current)
		return true, nil
	case "msg":
		jidStr, _ := cmd.Values["jid"].(string)
		to, err := jid.Parse(jidStr)
		if err != nil {
			m.core.Schedule(event.CommandError{Message: fmt.Sprintf("/msg: not a jid: %q", jidStr)})
			return true, nil
		}
		w := m.ensureChatWindow(m.currentAccount(), to.Bare())
		m.changeWindow(w.name)
		if text, _ := cmd.Values["text"].(string); text != "" {
			m.sendToCurrent(text)
		}
		return true, nil
	case "quit":
		return true, tea.Quit
	case "connect":
		m.core.Schedule(event.ReadPassword{Command: cmd})
		return true, nil
	default:
		return false, nil
	}
}

// finishConnect completes a /connect command once its password has been
// captured: registers the account with the session core and dials it.
func (m *Model) finishConnect(cmd *command.Command, password string) tea.Cmd {
	jidStr, _ := cmd.Values["jid"].(string)
	j, err := jid.Parse(jidStr)
	if err != nil {
		m.core.Schedule(event.CommandError{Message: fmt.Sprintf("/connect: not a jid: %q", jidStr)})
		return nil
	}
	m.core.AddAccount(j, config.AccountConfig{JID: jidStr, Password: password})
	m.accounts = append(m.accounts, j.Bare().String())
	return m.core.Connect(j.Bare().String())
}

func (m *Model) sendToCurrent(body string) {
	w, ok := m.windows[m.current]
	if !ok || m.current == consoleWindow {
		m.appendLog("nothing to send to here — open a chat or room first")
		return
	}
	to, err := jid.Parse(w.name)
	if err != nil {
		m.appendLog("invalid window jid: " + w.name)
		return
	}
	from, err := jid.Parse(w.account)
	if err != nil {
		m.appendLog("invalid account jid: " + w.account)
		return
	}

	kind := model.KindChat
	if w.kind == model.Group {
		kind = model.KindGroupchat
	}
	xm := model.XmppMessage{
		Kind:      kind,
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		From:      from,
		To:        to,
		Body:      body,
	}
	if err := m.core.Send(w.account, xm); err != nil {
		m.appendLog("send failed: " + err.Error())
		return
	}
	w.msgs.Append(model.NewOutgoing(xm))
}

func (m *Model) currentAccount() string {
	return m.core.CurrentAccount().Bare()
}

// OnEvent implements event.Listener.
func (m *Model) OnEvent(ev event.Event) {
	switch e := ev.(type) {
	case event.Connected:
		m.appendLog("connected as " + e.JID.String())
		m.refreshBars()
	case event.Disconnected:
		m.appendLog("disconnected")
	case event.Message:
		m.onMessage(e)
	case event.Chat:
		w := m.ensureChatWindow(e.Account, e.Contact.Bare())
		m.changeWindow(w.name)
	case event.Joined:
		w := m.ensureGroupWindow(e.Account, e.Channel)
		if e.UserRequest {
			m.changeWindow(w.name)
		}
	case event.Occupant:
		m.onOccupant(e)
	case event.Contact:
		m.onContact(e.Contact)
	case event.ContactUpdate:
		m.onContact(e.Contact)
	case event.Bookmark:
		if bm, ok := e.Bookmark.(model.Bookmark); ok {
			m.appendLog(fmt.Sprintf("bookmark: %s <%s> autojoin=%v", bm.Name, bm.JID.String(), bm.Autojoin))
		}
	case event.DeletedBookmark:
		m.appendLog("bookmark removed: " + e.JID.String())
	case event.CommandError:
		m.appendLog("error: " + e.Message)
	case event.Win:
		if _, ok := m.windows[e.Name]; ok {
			m.changeWindow(e.Name)
		}
	case event.ReadPassword:
		m.ed.SetPassword(true)
		if cmd, ok := e.Command.(*command.Command); ok {
			m.pendingPasswordCmd = cmd
		}
	case event.Completed:
		m.ed.SetBuf(e.Buf, e.Cursor)
	}
}

func (m *Model) onMessage(e event.Message) {
	msg, ok := e.Msg.(model.Message)
	if !ok {
		return
	}
	if msg.Direction == model.Log {
		m.appendToConsole(msg)
		return
	}

	var peer jid.JID
	if msg.Direction == model.Outgoing {
		peer = msg.Xmpp.To
	} else {
		peer = msg.Xmpp.From
	}

	var w *window
	if msg.Xmpp.Kind == model.KindGroupchat {
		w = m.ensureGroupWindow(e.Account, peer.Bare())
	} else {
		w = m.ensureChatWindow(e.Account, peer.Bare())
	}
	w.msgs.Append(msg)
	if w.name != m.current {
		m.addUnread(w.name)
	}
	m.refreshBars()
}

func (m *Model) onOccupant(e event.Occupant) {
	w, ok := m.windows[e.Conversation]
	if !ok || w.occ == nil {
		return
	}
	occ, ok := e.Occupant.(model.Occupant)
	if !ok {
		return
	}
	items := w.occ.Items()
	if e.Removed {
		kept := items[:0]
		for _, it := range items {
			if it.Nick != occ.Nick {
				kept = append(kept, it)
			}
		}
		w.occ.SetItems(kept)
		return
	}
	w.occ.SetItems(append(items, occ))
}

func (m *Model) onContact(raw any) {
	console, ok := m.windows[consoleWindow]
	if !ok || console.roster == nil {
		return
	}
	c, ok := raw.(model.Contact)
	if !ok {
		return
	}
	console.roster.SetItems(append(console.roster.Items(), c))
}

func (m *Model) appendLog(line string) {
	m.appendToConsole(model.NewLog(line))
}

func (m *Model) appendToConsole(msg model.Message) {
	console := m.windows[consoleWindow]
	console.msgs.Append(msg)
	if m.current != consoleWindow {
		m.addUnread(consoleWindow)
		m.refreshBars()
	}
}

func (m *Model) ensureConsole() *window {
	if w, ok := m.windows[consoleWindow]; ok {
		return w
	}
	msgs := ui.NewBufferedWin[model.Message](ui.Match(), ui.Match())
	roster := ui.NewListView[string, model.Contact](ui.Abs(24), ui.Match(),
		contactBucket, contactBucketLabel,
	).WithUniqueItem(func(c model.Contact) string { return c.JID.String() }).
		WithSortItem(func(a, b model.Contact) bool { return a.String() < b.String() }).
		WithSortGroup(func(a, b string) bool { return contactBucketOrder(a) < contactBucketOrder(b) })

	split := ui.NewLinearLayout(ui.Horizontal, ui.Match(), ui.Match(), msgs, roster)
	split.Divider = true

	w := &window{name: consoleWindow, kind: model.Chat, msgs: msgs, roster: roster}
	m.windows[consoleWindow] = w
	m.order = append(m.order, consoleWindow)
	m.frame.Put(consoleWindow, split)
	return w
}

func (m *Model) ensureChatWindow(account string, peer jid.JID) *window {
	name := peer.String()
	if w, ok := m.windows[name]; ok {
		return w
	}
	msgs := ui.NewBufferedWin[model.Message](ui.Match(), ui.Match())
	w := &window{name: name, account: account, kind: model.Chat, msgs: msgs}
	m.windows[name] = w
	m.order = append(m.order, name)
	m.frame.Put(name, msgs)
	m.refreshBars()
	return w
}

func (m *Model) ensureGroupWindow(account string, room jid.JID) *window {
	name := room.Bare().String()
	if w, ok := m.windows[name]; ok {
		return w
	}
	msgs := ui.NewBufferedWin[model.Message](ui.Match(), ui.Match())
	occ := ui.NewListView[model.Role, model.Occupant](ui.Abs(20), ui.Match(),
		func(o model.Occupant) model.Role { return o.Role },
		func(r model.Role) string { return r.String() },
	).WithUniqueItem(func(o model.Occupant) string { return o.Nick }).
		WithSortItem(func(a, b model.Occupant) bool { return a.Nick < b.Nick }).
		WithSortGroup(func(a, b model.Role) bool { return a > b })

	split := ui.NewLinearLayout(ui.Horizontal, ui.Match(), ui.Match(), msgs, occ)
	split.Divider = true

	w := &window{name: name, account: account, kind: model.Group, msgs: msgs, occ: occ}
	m.windows[name] = w
	m.order = append(m.order, name)
	m.frame.Put(name, split)
	m.refreshBars()
	return w
}

func (m *Model) closeWindow(name string) {
	if name == consoleWindow {
		return
	}
	delete(m.windows, name)
	m.frame.Remove(name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.removeUnread(name)
	m.changeWindow(consoleWindow)
}

func (m *Model) changeWindow(name string) {
	if _, ok := m.windows[name]; !ok {
		return
	}
	m.current = name
	m.frame.SetActive(name)
	m.removeUnread(name)
	if bw, ok := m.windows[name]; ok {
		bw.msgs.GotoBottom()
	}
	m.core.Schedule(event.ChangeWindow{Name: name})
	m.refreshBars()
}

func (m *Model) addUnread(name string) {
	for _, n := range m.unread {
		if n == name {
			return
		}
	}
	m.unread = append(m.unread, name)
	m.refreshBars()
}

func (m *Model) removeUnread(name string) {
	for i, n := range m.unread {
		if n == name {
			m.unread = append(m.unread[:i], m.unread[i+1:]...)
			return
		}
	}
}

// cycleUnread implements Alt-a: pop the oldest unread window and switch to
// it (spec.md §4.7, tested by spec.md §8's S6).
func (m *Model) cycleUnread() {
	if len(m.unread) == 0 {
		return
	}
	name := m.unread[0]
	m.changeWindow(name)
}

func (m *Model) refreshBars() {
	m.titleBar.SetState(m.currentAccount(), m.current)
	unreadSet := make(map[string]bool, len(m.unread))
	for _, n := range m.unread {
		unreadSet[n] = true
	}
	m.winBar.SetState(m.order, m.current, unreadSet)
}

func contactBucket(c model.Contact) string {
	if c.Presence == model.Unavailable {
		return "offline"
	}
	return "online"
}

func contactBucketLabel(bucket string) string {
	switch bucket {
	case "offline":
		return "Offline"
	default:
		return "Online"
	}
}

func contactBucketOrder(bucket string) int {
	if bucket == "online" {
		return 0
	}
	return 1
}
