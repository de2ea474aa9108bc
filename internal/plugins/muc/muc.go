// Package muc implements XEP-0045 Multi-User Chat from the client side:
// joining and leaving rooms, and maintaining each room's occupant list off
// the room presence stream.
//
// Grounded on other_examples/89d1a053 (mellium.im/xmpp/muc), specifically
// its mucPresence shape (a presence wrapping a muc#user <x/> with an <item/>
// and <status/> codes) and its Join/JoinPresence pattern of sending presence
// to room@conference/nick and waiting for the self-presence (status code
// 110) that confirms the join; re-expressed here against this module's
// event-driven OnEvent callback instead of a blocking channel wait, since
// spec.md §5 forbids plugin callbacks from suspending.
package muc

import (
	"context"
	"encoding/xml"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"

	"github.com/aparte-go/aparte/internal/apterr"
	"github.com/aparte-go/aparte/internal/command"
	"github.com/aparte-go/aparte/internal/event"
	"github.com/aparte-go/aparte/internal/model"
	"github.com/aparte-go/aparte/internal/plugin"
	"github.com/aparte-go/aparte/internal/xmppsession"
)

// NS is the base MUC namespace, sent as the join presence's <x/> child.
const NS = "http://jabber.org/protocol/muc"

// statusSelfPresence is the MUC status code marking a presence as the
// occupant's own (XEP-0045 §17.2.1).
const statusSelfPresence = 110

type joinX struct {
	XMLName  xml.Name `xml:"http://jabber.org/protocol/muc x"`
	Password string   `xml:"password,omitempty"`
}

type pendingJoin struct {
	nick        string
	userRequest bool
}

// room tracks one joined or joining MUC conversation.
type room struct {
	self      jid.JID // room@conference/nick
	occupants map[string]model.Occupant
}

// Plugin joins/leaves rooms and maintains their occupant lists.
type Plugin struct {
	ctx     *plugin.Context
	account string

	mu      sync.Mutex
	pending map[string]pendingJoin // bare room jid -> join awaiting confirmation
	rooms   map[string]*room       // bare room jid -> joined room
}

// New creates the muc plugin.
func New() *Plugin {
	return &Plugin{
		pending: make(map[string]pendingJoin),
		rooms:   make(map[string]*room),
	}
}

func (p *Plugin) ID() string { return "muc" }

func (p *Plugin) Init(ctx *plugin.Context) error {
	p.ctx = ctx
	p.account = ctx.Core.CurrentAccount().Bare()
	ctx.Core.AddCommand(joinSpec())
	ctx.Core.AddCommand(leaveSpec())
	if d, ok := ctx.Core.Registry().Get("disco").(interface{ AddFeature(string) }); ok {
		d.AddFeature(NS)
	}
	return nil
}

func (p *Plugin) Start() tea.Cmd { return nil }
func (p *Plugin) Stop()          {}

// Occupants returns the current nick list for a joined room, for the
// completion plugin's in-room nick suggestions. conversation is a bare room
// jid; returns nil if no room by that jid is joined.
func (p *Plugin) Occupants(conversation string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	rm, ok := p.rooms[conversation]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(rm.occupants))
	for nick := range rm.occupants {
		out = append(out, nick)
	}
	return out
}

func joinSpec() *command.Spec {
	return &command.Spec{
		Name: "join",
		Help: "/join <room@conference>/<nick> [password=..] — the nick is required",
		Positionals: []command.Positional{
			{Name: "jid", Parse: command.StringParser},
		},
		Flags: []command.Flag{
			{Name: "password", Parse: command.StringParser},
		},
	}
}

func leaveSpec() *command.Spec {
	empty := ""
	return &command.Spec{
		Name: "leave",
		Help: "/leave [room@conference] — defaults to the sole joined room",
		Positionals: []command.Positional{
			{Name: "jid", Parse: command.StringParser, Default: &empty},
		},
	}
}

// OnEvent handles /join and /leave commands and maintains occupant state off
// every MUC-tagged presence observed for a room this plugin is managing or
// awaiting confirmation for.
func (p *Plugin) OnEvent(ev event.Event) {
	switch e := ev.(type) {
	case event.Command:
		cmd, ok := e.Cmd.(*command.Command)
		if !ok || len(cmd.Path) == 0 {
			return
		}
		switch cmd.Path[0] {
		case "join":
			p.join(cmd)
		case "leave":
			p.leave(cmd)
		}
	case event.Stanza:
		if e.Name == "presence" {
			if pr, ok := e.Raw.(xmppsession.IncomingPresence); ok {
				p.handlePresence(e.Account, pr)
			}
		}
	}
}

func (p *Plugin) join(cmd *command.Command) {
	jidStr, _ := cmd.Values["jid"].(string)
	full, err := jid.Parse(jidStr)
	if err != nil || full.Resourcepart() == "" {
		p.reportError(apterr.ParseErr(fmt.Errorf("/join requires room@conference/nick, got %q", jidStr)))
		return
	}

	sess := p.ctx.Core.RawSession(p.account)
	if sess == nil {
		p.reportError(apterr.TransportErr(fmt.Errorf("not connected")))
		return
	}

	bare := full.Bare().String()
	p.mu.Lock()
	p.pending[bare] = pendingJoin{nick: full.Resourcepart(), userRequest: true}
	p.mu.Unlock()

	x := joinX{}
	if pw, ok := cmd.Flags["password"].(string); ok {
		x.Password = pw
	}
	payload, err := xmppsession.MarshalPayload(x)
	if err != nil {
		return
	}
	pres := stanza.Presence{To: full}
	if err := sess.SendPresencePayload(context.Background(), pres, payload); err != nil {
		p.reportError(apterr.TransportErr(err))
	}
}

func (p *Plugin) leave(cmd *command.Command) {
	jidStr, _ := cmd.Values["jid"].(string)

	sess := p.ctx.Core.RawSession(p.account)
	if sess == nil {
		p.reportError(apterr.TransportErr(fmt.Errorf("not connected")))
		return
	}

	p.mu.Lock()
	bare := jidStr
	if bare == "" {
		if len(p.rooms) != 1 {
			p.mu.Unlock()
			p.reportError(apterr.UsageErr(fmt.Errorf("/leave needs a room jid: %d rooms joined", len(p.rooms))))
			return
		}
		for k := range p.rooms {
			bare = k
		}
	}
	rm, ok := p.rooms[bare]
	p.mu.Unlock()
	if !ok {
		p.reportError(apterr.UsageErr(fmt.Errorf("not joined to %q", bare)))
		return
	}

	pres := stanza.Presence{To: rm.self, Type: stanza.UnavailablePresence}
	if err := sess.SendPresence(context.Background(), pres); err != nil {
		p.reportError(apterr.TransportErr(err))
		return
	}

	p.mu.Lock()
	delete(p.rooms, bare)
	p.mu.Unlock()
}

func (p *Plugin) handlePresence(account string, pr xmppsession.IncomingPresence) {
	bare := pr.From.Bare().String()

	p.mu.Lock()
	pend, isPending := p.pending[bare]
	rm, isJoined := p.rooms[bare]
	p.mu.Unlock()

	if !isPending && !isJoined {
		return // not a room this plugin is managing
	}

	isSelf := false
	for _, c := range pr.StatusCodes {
		if c == statusSelfPresence {
			isSelf = true
		}
	}
	// A resource-exact match against the nick we joined with is also self
	// presence, for servers that omit status code 110 on the join response.
	if isPending && pr.From.Resourcepart() == pend.nick {
		isSelf = true
	}

	if pr.Type == stanza.UnavailablePresence {
		if isJoined {
			p.mu.Lock()
			delete(rm.occupants, pr.From.Resourcepart())
			p.mu.Unlock()
			p.ctx.Core.Schedule(event.Occupant{
				Conversation: bare,
				Occupant:     model.Occupant{Nick: pr.From.Resourcepart()},
				Removed:      true,
			})
		}
		return
	}

	if isPending && isSelf {
		p.mu.Lock()
		delete(p.pending, bare)
		p.rooms[bare] = &room{self: pr.From, occupants: make(map[string]model.Occupant)}
		p.mu.Unlock()
		p.ctx.Core.Schedule(event.Joined{Account: account, Channel: pr.From.Bare(), UserRequest: pend.userRequest})
	}

	p.mu.Lock()
	rm, isJoined = p.rooms[bare]
	p.mu.Unlock()
	if !isJoined {
		return
	}

	occ := model.Occupant{Nick: pr.From.Resourcepart()}
	if pr.MucItem != nil {
		occ.Role = parseRole(pr.MucItem.Role)
		occ.Affiliation = parseAffiliation(pr.MucItem.Affiliation)
		if !pr.MucItem.JID.Equal(jid.JID{}) {
			j := pr.MucItem.JID
			occ.JID = &j
		}
	}

	p.mu.Lock()
	rm.occupants[occ.Nick] = occ
	p.mu.Unlock()
	p.ctx.Core.Schedule(event.Occupant{Conversation: bare, Occupant: occ})
}

func (p *Plugin) reportError(err error) {
	p.ctx.Core.Schedule(event.CommandError{Message: err.Error()})
}

func parseRole(s string) model.Role {
	switch s {
	case "moderator":
		return model.RoleModerator
	case "participant":
		return model.RoleParticipant
	case "visitor":
		return model.RoleVisitor
	default:
		return model.RoleNone
	}
}

func parseAffiliation(s string) model.Affiliation {
	switch s {
	case "owner":
		return model.AffiliationOwner
	case "admin":
		return model.AffiliationAdmin
	case "member":
		return model.AffiliationMember
	case "outcast":
		return model.AffiliationOutcast
	default:
		return model.AffiliationNone
	}
}
