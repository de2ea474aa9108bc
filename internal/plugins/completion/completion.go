// Package completion answers AutoComplete requests (spec.md §4.6/§4.8) with
// context-sensitive suggestions: command names at column 0, jid completion
// from the roster inside a command argument, and nick completion at the
// start of the line inside a group window.
//
// Grounded on wilbur182-forge/internal/palette's fuzzy-match/filter idiom
// for turning a name list plus a prefix into ranked suggestions, simplified
// here to a plain prefix filter since spec.md only asks for Completed's
// (buf, cursor) replacement, not a ranked palette UI.
package completion

import (
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aparte-go/aparte/internal/event"
	"github.com/aparte-go/aparte/internal/plugin"
)

type contactLister interface {
	Contacts() []string
}

type occupantLister interface {
	Occupants(conversation string) []string
}

// Plugin resolves AutoComplete events.
type Plugin struct {
	ctx *plugin.Context
}

// New creates the completion plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) ID() string { return "completion" }

func (p *Plugin) Init(ctx *plugin.Context) error {
	p.ctx = ctx
	return nil
}

func (p *Plugin) Start() tea.Cmd { return nil }
func (p *Plugin) Stop()          {}

// OnEvent resolves one AutoComplete request into a Completed event carrying
// the replacement buffer and cursor.
func (p *Plugin) OnEvent(ev event.Event) {
	ac, ok := ev.(event.AutoComplete)
	if !ok {
		return
	}

	wordStart := strings.LastIndexByte(ac.RawBuf[:clamp(ac.Cursor, len(ac.RawBuf))], ' ') + 1
	prefix := ac.RawBuf[wordStart:clamp(ac.Cursor, len(ac.RawBuf))]

	var candidates []string
	switch {
	case wordStart == 0 && strings.HasPrefix(prefix, "/"):
		for _, name := range p.ctx.Core.CommandNames() {
			candidates = append(candidates, "/"+name)
		}
	case wordStart == 0 && p.inGroupWindow(ac.Conversation):
		if occ, ok := p.ctx.Core.Registry().Get("muc").(occupantLister); ok {
			candidates = occ.Occupants(ac.Conversation)
		}
	default:
		if ros, ok := p.ctx.Core.Registry().Get("roster").(contactLister); ok {
			candidates = ros.Contacts()
		}
	}

	match := commonPrefixMatch(candidates, prefix)
	if match == "" {
		p.ctx.Core.Schedule(event.ResetCompletion{})
		return
	}

	newBuf := ac.RawBuf[:wordStart] + match + ac.RawBuf[clamp(ac.Cursor, len(ac.RawBuf)):]
	p.ctx.Core.Schedule(event.Completed{Buf: newBuf, Cursor: wordStart + len(match)})
}

func (p *Plugin) inGroupWindow(conversation string) bool {
	occ, ok := p.ctx.Core.Registry().Get("muc").(occupantLister)
	if !ok {
		return false
	}
	return occ.Occupants(conversation) != nil
}

// commonPrefixMatch returns the longest common prefix of every candidate
// starting with prefix, or "" if none match.
func commonPrefixMatch(candidates []string, prefix string) string {
	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	if len(matches) == 1 {
		return matches[0]
	}

	first, last := matches[0], matches[len(matches)-1]
	i := 0
	for i < len(first) && i < len(last) && first[i] == last[i] {
		i++
	}
	return first[:i]
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
