// Package model holds the data types shared across the session core, the
// protocol feature plugins and the terminal UI: accounts, messages,
// conversations, occupants, contacts and bookmarks.
package model

import (
	"time"

	"mellium.im/xmpp/jid"
)

// Account is a credential-bearing handle equal to the bare jid the client is
// logged in as.
type Account struct {
	JID jid.JID
}

// Bare returns the bare-jid string form of the account.
func (a Account) Bare() string {
	return a.JID.Bare().String()
}

// ConversationKind distinguishes a one-to-one chat from a multi-user room.
type ConversationKind int

const (
	// Chat is a one-to-one conversation with a bare-jid contact.
	Chat ConversationKind = iota
	// Group is a multi-user-chat room.
	Group
)

// Conversation is created lazily on first incoming/outgoing message
// referencing it, or on an explicit /join or /msg command. It is uniquely
// identified by JID.String().
type Conversation struct {
	Account Account
	JID     jid.JID // bare
	Kind    ConversationKind
}

// Role is MUC occupant role.
type Role int

const (
	RoleNone Role = iota
	RoleVisitor
	RoleParticipant
	RoleModerator
)

func (r Role) String() string {
	switch r {
	case RoleModerator:
		return "moderator"
	case RoleParticipant:
		return "participant"
	case RoleVisitor:
		return "visitor"
	default:
		return "none"
	}
}

// Affiliation is MUC occupant affiliation.
type Affiliation int

const (
	AffiliationNone Affiliation = iota
	AffiliationOutcast
	AffiliationMember
	AffiliationAdmin
	AffiliationOwner
)

// Occupant is a present member of a MUC room, keyed by nick within its
// conversation.
type Occupant struct {
	Nick        string
	JID         *jid.JID // real jid, if disclosed
	Role        Role
	Affiliation Affiliation
}

func (o Occupant) String() string { return o.Nick }

// Presence is a roster contact's availability.
type Presence int

const (
	Unavailable Presence = iota
	Available
	PresenceChat
	Away
	Dnd
	Xa
)

func (p Presence) String() string {
	switch p {
	case Available:
		return "available"
	case PresenceChat:
		return "chat"
	case Away:
		return "away"
	case Dnd:
		return "dnd"
	case Xa:
		return "xa"
	default:
		return "unavailable"
	}
}

// Contact is a roster entry.
type Contact struct {
	JID      jid.JID // bare
	Name     string
	Groups   map[string]struct{}
	Presence Presence
}

func (c Contact) String() string {
	if c.Name != "" {
		return c.Name
	}
	return c.JID.String()
}

// Bookmark is a PEP-native (XEP-0402) conference bookmark.
type Bookmark struct {
	JID      jid.JID // bare, the conference room
	Name     string
	Nick     string
	Password string
	Autojoin bool
}

// XmppMessageKind distinguishes the two wire message shapes the client
// exchanges.
type XmppMessageKind int

const (
	// KindChat is a one-to-one chat message.
	KindChat XmppMessageKind = iota
	// KindGroupchat is a MUC message; From carries the sender's nick as
	// the resource.
	KindGroupchat
)

// XmppMessage is either a Chat or Groupchat wire message.
type XmppMessage struct {
	Kind      XmppMessageKind
	ID        string
	Timestamp time.Time
	From      jid.JID
	To        jid.JID
	Body      string
}

// MessageDirection distinguishes locally authored messages from ones
// received over the wire.
type MessageDirection int

const (
	Incoming MessageDirection = iota
	Outgoing
	Log
)

// Message is the tagged variant spec.md §3 describes: a local log line, or
// an incoming/outgoing wire message.
type Message struct {
	Direction MessageDirection
	Timestamp time.Time
	Body      string // used only when Direction == Log
	Xmpp      XmppMessage
}

// NewLog builds a local, not-on-the-wire log message.
func NewLog(body string) Message {
	return Message{Direction: Log, Timestamp: time.Now(), Body: body}
}

// NewIncoming wraps an Xmpp message received from the wire.
func NewIncoming(m XmppMessage) Message {
	return Message{Direction: Incoming, Timestamp: m.Timestamp, Xmpp: m}
}

// NewOutgoing wraps an Xmpp message the client sent.
func NewOutgoing(m XmppMessage) Message {
	return Message{Direction: Outgoing, Timestamp: m.Timestamp, Xmpp: m}
}

// String renders the message the way a BufferedWin displays it: a
// timestamp, a speaker, and a body.
func (m Message) String() string {
	ts := m.Timestamp
	switch m.Direction {
	case Log:
		return ts.Format("15:04:05") + " * " + m.Body
	default:
		var from string
		switch m.Xmpp.Kind {
		case KindGroupchat:
			from = m.Xmpp.From.Resourcepart()
		default:
			from = m.Xmpp.From.Bare().String()
		}
		return ts.Format("15:04:05") + " " + from + ": " + m.Xmpp.Body
	}
}
