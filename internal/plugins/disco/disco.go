// Package disco implements XEP-0030 Service Discovery: answering disco#info
// queries about the client's own supported features. Grounded on
// original_source/src/main.rs, which registers a Disco plugin first (ahead
// of carbons) so every other plugin's feature namespace can be folded into
// its answer, and on other_examples/89d1a053 (mellium's muc package) for
// the IQ payload shape (a typed query struct driven through
// SendIQElement/SendIQResult rather than hand xml.Encoder calls).
package disco

import (
	"context"
	"encoding/xml"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"mellium.im/xmpp/stanza"

	"github.com/aparte-go/aparte/internal/event"
	"github.com/aparte-go/aparte/internal/plugin"
	"github.com/aparte-go/aparte/internal/xmppsession"
)

const (
	// NSInfo is the disco#info namespace.
	NSInfo = "http://jabber.org/protocol/disco#info"
	// NSItems is the disco#items namespace.
	NSItems = "http://jabber.org/protocol/disco#items"
)

type infoIdentity struct {
	XMLName  xml.Name `xml:"identity"`
	Category string   `xml:"category,attr"`
	Type     string   `xml:"type,attr"`
	Name     string   `xml:"name,attr,omitempty"`
}

type infoFeature struct {
	XMLName xml.Name `xml:"feature"`
	Var     string   `xml:"var,attr"`
}

type infoQuery struct {
	XMLName    xml.Name       `xml:"http://jabber.org/protocol/disco#info query"`
	Identities []infoIdentity `xml:"identity"`
	Features   []infoFeature  `xml:"feature"`
}

// Plugin answers disco#info queries with this client's identity and the
// feature namespaces every other registered plugin contributes.
type Plugin struct {
	ctx      *plugin.Context
	account  string
	features map[string]struct{}
}

// New creates the disco plugin with its own always-present features.
func New() *Plugin {
	return &Plugin{
		features: map[string]struct{}{
			NSInfo:                                 {},
			"jabber:iq:version":                    {},
			"urn:xmpp:ping":                         {},
			"http://jabber.org/protocol/chatstates": {},
		},
	}
}

// AddFeature registers an additional feature namespace another plugin
// supports (e.g. carbons calls this with urn:xmpp:carbons:2).
func (p *Plugin) AddFeature(ns string) { p.features[ns] = struct{}{} }

func (p *Plugin) ID() string { return "disco" }

func (p *Plugin) Init(ctx *plugin.Context) error {
	p.ctx = ctx
	p.account = ctx.Core.CurrentAccount().Bare()
	return nil
}

func (p *Plugin) Start() tea.Cmd { return nil }
func (p *Plugin) Stop()          {}

// OnEvent answers every inbound disco#info query addressed to this client.
func (p *Plugin) OnEvent(ev event.Event) {
	st, ok := ev.(event.Stanza)
	if !ok || st.Name != "iq" {
		return
	}
	iq, ok := st.Raw.(xmppsession.IncomingIQ)
	if !ok || iq.Type != stanza.GetIQ {
		return
	}
	name, ok := st.Inner.(xml.Name)
	if !ok || name.Space != NSInfo || name.Local != "query" {
		return
	}

	sess := p.ctx.Core.RawSession(st.Account)
	if sess == nil {
		return
	}

	features := make([]string, 0, len(p.features))
	for f := range p.features {
		features = append(features, f)
	}
	sort.Strings(features)

	resp := infoQuery{
		Identities: []infoIdentity{{Category: "client", Type: "console", Name: "aparte"}},
	}
	for _, f := range features {
		resp.Features = append(resp.Features, infoFeature{Var: f})
	}

	replyIQ := stanza.IQ{ID: iq.ID, To: iq.From, Type: stanza.ResultIQ}
	payload, err := xmppsession.MarshalPayload(resp)
	if err != nil {
		p.ctx.Logger.Debug("disco: failed to marshal reply", "error", err)
		return
	}
	if err := sess.SendIQResult(context.Background(), replyIQ, payload); err != nil {
		p.ctx.Logger.Debug("disco: failed to answer query", "error", err)
	}
}
