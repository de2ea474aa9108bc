// Package carbons implements XEP-0280 Message Carbons: enabling carbons on
// connect so a message sent from, or received on, another of the account's
// resources still appears in the right conversation window. Unwrapping the
// <sent/>/<received/> forward itself happens in xmppsession, which is where
// the rest of the raw stanza parsing already lives; this plugin only
// negotiates the feature and advertises it to disco.
//
// Grounded on original_source/src/main.rs, which registers CarbonsPlugin
// right after Disco.
package carbons

import (
	"context"
	"encoding/xml"

	tea "github.com/charmbracelet/bubbletea"
	"mellium.im/xmpp/stanza"

	"github.com/aparte-go/aparte/internal/event"
	"github.com/aparte-go/aparte/internal/plugin"
	"github.com/aparte-go/aparte/internal/xmppsession"
)

// NS is the carbons namespace.
const NS = "urn:xmpp:carbons:2"

type enable struct {
	XMLName xml.Name `xml:"urn:xmpp:carbons:2 enable"`
}

// featureRegistrar is the slice of the disco plugin carbons needs; declared
// locally so this package doesn't import plugins/disco directly.
type featureRegistrar interface {
	AddFeature(ns string)
}

// Plugin enables carbons once connected.
type Plugin struct {
	ctx     *plugin.Context
	account string
}

// New creates the carbons plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) ID() string { return "carbons" }

func (p *Plugin) Init(ctx *plugin.Context) error {
	p.ctx = ctx
	p.account = ctx.Core.CurrentAccount().Bare()
	if d, ok := ctx.Core.Registry().Get("disco").(featureRegistrar); ok {
		d.AddFeature(NS)
	}
	return nil
}

func (p *Plugin) Start() tea.Cmd { return nil }
func (p *Plugin) Stop()          {}

// OnEvent sends the carbons enable IQ once the account connects.
func (p *Plugin) OnEvent(ev event.Event) {
	if c, ok := ev.(event.Connected); ok {
		p.enableCarbons(c.Account)
	}
}

func (p *Plugin) enableCarbons(account string) {
	sess := p.ctx.Core.RawSession(account)
	if sess == nil {
		return
	}
	payload, err := xmppsession.MarshalPayload(enable{})
	if err != nil {
		return
	}
	iq := stanza.IQ{Type: stanza.SetIQ}
	if _, err := sess.SendIQ(context.Background(), iq, payload); err != nil {
		p.ctx.Logger.Debug("carbons: enable failed", "error", err)
	}
}
