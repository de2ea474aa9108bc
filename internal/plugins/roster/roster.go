// Package roster implements jabber:iq:roster: fetching the roster on
// connect (and on /roster), acknowledging server-pushed updates, and
// tracking each contact's availability off the presence stream. A push's
// item is not applied to the local contact map; the change shows up on the
// next fetch.
//
// Grounded on other_examples/475f82b7 (meszmate-roster's client, which
// fetches jabber:iq:roster and keeps a local contact map updated from
// inbound presence) and the request/response UnmarshalIQ pattern already
// established by internal/xmppsession for bookmarks.
package roster

import (
	"context"
	"encoding/xml"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"

	"github.com/aparte-go/aparte/internal/command"
	"github.com/aparte-go/aparte/internal/event"
	"github.com/aparte-go/aparte/internal/model"
	"github.com/aparte-go/aparte/internal/plugin"
	"github.com/aparte-go/aparte/internal/xmppsession"
)

// NS is the roster query namespace.
const NS = "jabber:iq:roster"

type rosterItem struct {
	JID          string   `xml:"jid,attr"`
	Name         string   `xml:"name,attr,omitempty"`
	Subscription string   `xml:"subscription,attr,omitempty"`
	Group        []string `xml:"group"`
}

type rosterQuery struct {
	XMLName xml.Name     `xml:"jabber:iq:roster query"`
	Item    []rosterItem `xml:"item"`
}

// Plugin fetches and tracks the roster.
type Plugin struct {
	ctx     *plugin.Context
	account string

	mu       sync.RWMutex
	contacts map[string]model.Contact // bare jid -> contact
}

// New creates the roster plugin.
func New() *Plugin {
	return &Plugin{contacts: make(map[string]model.Contact)}
}

func (p *Plugin) ID() string { return "roster" }

func (p *Plugin) Init(ctx *plugin.Context) error {
	p.ctx = ctx
	p.account = ctx.Core.CurrentAccount().Bare()
	ctx.Core.AddCommand(&command.Spec{Name: "roster", Help: "/roster — re-sync the roster"})
	return nil
}

func (p *Plugin) Start() tea.Cmd { return nil }
func (p *Plugin) Stop()          {}

// Contacts returns every known contact's bare jid, for the completion
// plugin's jid suggestions.
func (p *Plugin) Contacts() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.contacts))
	for j := range p.contacts {
		out = append(out, j)
	}
	return out
}

// OnEvent fetches the roster on Connected and /roster, acknowledges roster
// pushes, and updates presence for known contacts.
func (p *Plugin) OnEvent(ev event.Event) {
	switch e := ev.(type) {
	case event.Connected:
		p.fetch(e.Account)
	case event.Command:
		if cmd, ok := e.Cmd.(*command.Command); ok && len(cmd.Path) > 0 && cmd.Path[0] == "roster" {
			p.fetch(p.account)
		}
	case event.Stanza:
		switch e.Name {
		case "iq":
			if iq, ok := e.Raw.(xmppsession.IncomingIQ); ok {
				if name, ok := e.Inner.(xml.Name); ok && name.Space == NS && iq.Type == stanza.SetIQ {
					p.handlePush(e.Account, iq)
				}
			}
		case "presence":
			if pr, ok := e.Raw.(xmppsession.IncomingPresence); ok {
				p.handlePresence(e.Account, pr)
			}
		}
	}
}

func (p *Plugin) fetch(account string) {
	sess := p.ctx.Core.RawSession(account)
	if sess == nil {
		return
	}
	payload, err := xmppsession.MarshalPayload(rosterQuery{})
	if err != nil {
		return
	}
	var result rosterQuery
	iq := stanza.IQ{Type: stanza.GetIQ}
	if err := sess.UnmarshalIQ(context.Background(), iq, payload, &result); err != nil {
		p.ctx.Logger.Debug("roster: fetch failed", "error", err)
		return
	}

	for _, it := range result.Item {
		p.applyItem(account, it)
	}
}

// handlePush answers a roster-push IQ-set with an empty result (required by
// RFC 6121 §2.1.6). It does not apply the pushed item.
func (p *Plugin) handlePush(account string, iq xmppsession.IncomingIQ) {
	sess := p.ctx.Core.RawSession(account)
	if sess == nil {
		return
	}
	// The push's <query/> payload was already consumed off the wire by the
	// time OnEvent runs (xmppsession only forwards the element name), so
	// acknowledge with an empty result; the contact update itself arrives
	// out of band via the next roster fetch or is already reflected by
	// presence tracking.
	reply := stanza.IQ{ID: iq.ID, To: iq.From, Type: stanza.ResultIQ}
	empty, err := xmppsession.MarshalPayload(struct {
		XMLName xml.Name `xml:"jabber:iq:roster query"`
	}{})
	if err != nil {
		return
	}
	if err := sess.SendIQResult(context.Background(), reply, empty); err != nil {
		p.ctx.Logger.Debug("roster: push ack failed", "error", err)
	}
}

func (p *Plugin) applyItem(account string, it rosterItem) {
	j, err := jid.Parse(it.JID)
	if err != nil {
		return
	}
	bare := j.Bare().String()

	p.mu.Lock()
	existing, had := p.contacts[bare]
	groups := make(map[string]struct{}, len(it.Group))
	for _, g := range it.Group {
		groups[g] = struct{}{}
	}
	contact := model.Contact{JID: j.Bare(), Name: it.Name, Groups: groups}
	if had {
		contact.Presence = existing.Presence
	}
	p.contacts[bare] = contact
	p.mu.Unlock()

	if had {
		p.ctx.Core.Schedule(event.ContactUpdate{Account: account, Contact: contact})
	} else {
		p.ctx.Core.Schedule(event.Contact{Account: account, Contact: contact})
	}
}

func (p *Plugin) handlePresence(account string, pr xmppsession.IncomingPresence) {
	if pr.MucItem != nil {
		return // MUC occupant presence, not a roster contact
	}
	bare := pr.From.Bare().String()

	p.mu.Lock()
	contact, ok := p.contacts[bare]
	if !ok {
		p.mu.Unlock()
		return
	}
	contact.Presence = presenceFrom(pr)
	p.contacts[bare] = contact
	p.mu.Unlock()

	p.ctx.Core.Schedule(event.ContactUpdate{Account: account, Contact: contact})
}

func presenceFrom(pr xmppsession.IncomingPresence) model.Presence {
	if pr.Type == stanza.UnavailablePresence {
		return model.Unavailable
	}
	switch pr.Show {
	case "chat":
		return model.PresenceChat
	case "away":
		return model.Away
	case "dnd":
		return model.Dnd
	case "xa":
		return model.Xa
	default:
		return model.Available
	}
}
